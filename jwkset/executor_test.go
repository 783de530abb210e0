package jwkset

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutor_RunsSubmittedTasks(t *testing.T) {
	exec := newExecutor(2)
	defer func() { _ = exec.shutdown(time.Second) }()

	var ran int32
	done := make(chan struct{})
	exec.submit(func() {
		atomic.AddInt32(&ran, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestExecutor_ShutdownWaitsForInFlightTasks(t *testing.T) {
	exec := newExecutor(1)

	started := make(chan struct{})
	release := make(chan struct{})
	exec.submit(func() {
		close(started)
		<-release
	})

	<-started
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	err := exec.shutdown(2 * time.Second)
	assert.NoError(t, err)
}

func TestExecutor_RecoversFromPanic(t *testing.T) {
	exec := newExecutor(1)
	defer func() { _ = exec.shutdown(time.Second) }()

	done := make(chan struct{})
	exec.submit(func() { panic("boom") })
	exec.submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor did not recover from panic and continue")
	}
}
