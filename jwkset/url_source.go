package jwkset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/NomadCrew/jwkset-resolver/errors"
	"github.com/NomadCrew/jwkset-resolver/logger"
)

// DefaultParser parses bytes into a JWKSet using lestrrat-go/jwx's jwk.Parse,
// the same entry point the teacher's jwks_cache.go used directly.
type DefaultParser struct{}

// Parse implements JWKSetParser.
func (DefaultParser) Parse(data []byte) (*JWKSet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK set: %w", err)
	}
	return NewJWKSet(set), nil
}

// HTTPRetriever fetches a JWK set document over HTTP, enforcing a single
// overall request timeout of ConnectTimeout + ReadTimeout and a response
// size limit, matching the builder defaults in spec §4.11. The connect and
// read phases are not bounded separately.
type HTTPRetriever struct {
	Client        *http.Client
	Headers       map[string]string
	ConnectTimeout time.Duration
	ReadTimeout   time.Duration
	SizeLimit     int64
}

// NewHTTPRetriever builds a retriever with its own *http.Client configured
// from the given timeouts, mirroring the teacher's httpClient construction
// in jwks_cache.go.
func NewHTTPRetriever(connectTimeout, readTimeout time.Duration, sizeLimit int64, headers map[string]string) *HTTPRetriever {
	return &HTTPRetriever{
		Client: &http.Client{
			Timeout: connectTimeout + readTimeout,
		},
		Headers:        headers,
		ConnectTimeout: connectTimeout,
		ReadTimeout:    readTimeout,
		SizeLimit:      sizeLimit,
	}
}

// Retrieve implements ResourceRetriever.
func (r *HTTPRetriever) Retrieve(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWKS request: %w", err)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", location, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("JWKS endpoint %s returned status %d", location, resp.StatusCode)
	}

	limit := r.SizeLimit
	if limit <= 0 {
		limit = DefaultHTTPSizeLimit
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("JWKS response from %s exceeded size limit of %d bytes", location, limit)
	}
	return body, nil
}

// FileRetriever reads a JWK set document from the local filesystem, used
// when the builder is configured with a file:// leaf source.
type FileRetriever struct{}

// Retrieve implements ResourceRetriever.
func (FileRetriever) Retrieve(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS file %s: %w", location, err)
	}
	return data, nil
}

// URLSource is the leaf of the decorator stack: it fetches and parses a JWK
// set from a URL or file on every call. It performs no caching of its own;
// CachingSource and OutageSource are responsible for that.
type URLSource struct {
	location  string
	retriever ResourceRetriever
	parser    JWKSetParser
	log       *zapSugared
}

// NewURLSource builds a URLSource over the given retriever and parser.
func NewURLSource(location string, retriever ResourceRetriever, parser JWKSetParser) *URLSource {
	if parser == nil {
		parser = DefaultParser{}
	}
	return &URLSource{
		location:  location,
		retriever: retriever,
		parser:    parser,
		log:       newZapSugared("jwkset.url_source"),
	}
}

// Get implements JWKSetSource. The evaluator is accepted for interface
// conformance but ignored: the leaf always performs a fresh fetch.
func (s *URLSource) Get(_ RefreshEvaluator, _ int64, ctx context.Context) (*JWKSet, error) {
	body, err := s.retriever.Retrieve(ctx, s.location)
	if err != nil {
		s.log.log.Errorw("failed to retrieve JWK set", "location", s.location, "error", err)
		return nil, errors.JWKSetUnavailable("failed to retrieve JWK set", err)
	}

	set, err := s.parser.Parse(body)
	if err != nil {
		s.log.log.Errorw("failed to parse JWK set", "location", s.location, "error", err)
		return nil, errors.JWKSetUnavailable("failed to parse JWK set", err)
	}

	s.log.log.Debugw("fetched JWK set", "location", s.location, "keys", set.Len())
	return set, nil
}

// Close implements JWKSetSource; URLSource owns no resources of its own.
func (s *URLSource) Close() error { return nil }

var _ JWKSetSource = (*URLSource)(nil)

// zapSugared is a tiny indirection so every decorator can get a named
// logger the way the teacher's services do (logger.GetLogger().Named(...))
// without repeating the call at every construction site.
type zapSugared struct {
	log interface {
		Debugw(string, ...interface{})
		Infow(string, ...interface{})
		Warnw(string, ...interface{})
		Errorw(string, ...interface{})
	}
}

func newZapSugared(name string) *zapSugared {
	return &zapSugared{log: logger.GetLogger().Named(name)}
}
