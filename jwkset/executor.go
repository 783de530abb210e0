package jwkset

import (
	"sync"
	"time"

	"github.com/NomadCrew/jwkset-resolver/logger"
)

// executor runs background refresh tasks off the calling goroutine, in the
// style of the teacher's notification worker pool: a small fixed pool of
// workers draining a task channel, with a bounded-wait Close.
type executor struct {
	tasks  chan func()
	wg     sync.WaitGroup
	log    *zapSugared
	once   sync.Once
	closed chan struct{}
}

// newExecutor starts workers goroutines ready to run submitted tasks.
func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	e := &executor{
		tasks:  make(chan func(), 64),
		log:    newZapSugared("jwkset.executor"),
		closed: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.run()
	}
	return e
}

func (e *executor) run() {
	defer e.wg.Done()
	for {
		select {
		case task, ok := <-e.tasks:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						e.log.log.Errorw("recovered panic in background refresh task", "panic", r)
					}
				}()
				task()
			}()
		case <-e.closed:
			return
		}
	}
}

// submit enqueues task for asynchronous execution. It never blocks the
// caller beyond the channel's buffer; a full buffer drops the task and logs
// a warning, since a missed background refresh is recovered by the next
// synchronous call.
func (e *executor) submit(task func()) {
	select {
	case e.tasks <- task:
	default:
		e.log.log.Warnw("background refresh queue full, dropping task")
	}
}

// shutdown signals workers to stop and waits up to timeout for in-flight
// tasks to finish.
func (e *executor) shutdown(timeout time.Duration) error {
	e.once.Do(func() { close(e.closed) })

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return nil
	}
}
