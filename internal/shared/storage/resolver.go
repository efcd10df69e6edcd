package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned when a newer resolution for the same key started
// before this one finished; its results are stale.
var ErrSuperseded = errors.New("resolution superseded")

const resolveConcurrency = 8

// Resolution outcome for one object path. A failed entry keeps its path and
// carries Err plus a user-facing Label.
type Resolution struct {
	Path     string `json:"path"`
	URL      string `json:"url,omitempty"`
	Label    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
}

// Failed reports whether the entry is unresolved.
func (r Resolution) Failed() bool {
	return r.Err != nil
}

// ResolverOptions bounds each resolution.
type ResolverOptions struct {
	TTL      time.Duration
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// Resolver turns stored object paths into signed URLs concurrently. Each
// attempt races a fixed timeout; failed attempts are retried with linear
// backoff; exhausted entries are returned marked instead of failing the batch.
type Resolver struct {
	storage FileStorage
	opts    ResolverOptions
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]*resolveToken
}

// resolveToken marks the latest run for a key. It is removed when that run
// ends, so idle keys hold no state.
type resolveToken struct {
	cancel context.CancelFunc
}

func NewResolver(s FileStorage, opts ResolverOptions, logger *zap.Logger) *Resolver {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		storage:  s,
		opts:     opts,
		logger:   logger,
		inflight: make(map[string]*resolveToken),
	}
}

// Resolve resolves paths under key. Starting another Resolve with the same key
// cancels this one, which then returns ErrSuperseded.
func (r *Resolver) Resolve(ctx context.Context, key string, paths []string) ([]Resolution, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if prev, ok := r.inflight[key]; ok {
		prev.cancel()
	}
	token := &resolveToken{cancel: cancel}
	r.inflight[key] = token
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.inflight[key] == token {
			delete(r.inflight, key)
		}
		r.mu.Unlock()
	}()

	results := make([]Resolution, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			results[i] = r.resolveOne(gctx, p)
			return nil
		})
	}
	g.Wait()

	if r.superseded(key, token) {
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	if failed > 0 {
		r.logger.Warn("Attachment URL resolution partially failed",
			zap.String("key", key),
			zap.Int("failed", failed),
			zap.Int("total", len(paths)),
		)
	}
	return results, nil
}

func (r *Resolver) superseded(key string, token *resolveToken) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight[key] != token
}

func (r *Resolver) resolveOne(ctx context.Context, objectPath string) Resolution {
	res := Resolution{Path: objectPath}
	for attempt := 1; attempt <= r.opts.Attempts; attempt++ {
		res.Attempts = attempt
		u, err := r.attempt(ctx, objectPath)
		if err == nil {
			res.URL = u
			res.Err = nil
			res.Label = ""
			return res
		}
		res.Err = err
		res.Label = Label(err)

		if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrInvalidPath) {
			return res
		}
		if attempt == r.opts.Attempts {
			break
		}
		wait := time.Duration(attempt) * r.opts.Backoff
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			res.Label = Label(res.Err)
			return res
		case <-time.After(wait):
		}
	}
	return res
}

// attempt races one signed URL request against the per-attempt timeout.
func (r *Resolver) attempt(ctx context.Context, objectPath string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	type result struct {
		url string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		u, err := r.storage.CreateSignedURL(actx, objectPath, r.opts.TTL)
		ch <- result{url: u, err: err}
	}()

	select {
	case res := <-ch:
		return res.url, res.err
	case <-actx.Done():
		return "", actx.Err()
	}
}
