package media

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/krishkalaria12/snap-social/logging"
)

// Result describes the outcome of an advisory removal. Callers may log it;
// they never have to check it.
type Result struct {
	Ref      string
	Filename string
	// Skipped is set when nothing had to be deleted: no filename in the
	// reference, the default asset, or an unsafe name.
	Skipped bool
	// Pending is set when the removal was queued and completes later.
	Pending bool
	Err     error
}

// Removed reports whether the file was actually deleted.
func (r Result) Removed() bool {
	return !r.Skipped && !r.Pending && r.Err == nil
}

// AssetRemover performs best-effort deletion of referenced assets.
type AssetRemover interface {
	Remove(ctx context.Context, ref string) Result
}

// Remover deletes assets synchronously. Failures are logged and returned in
// the Result, never as an error.
type Remover struct {
	store Store
	log   logging.Logger
}

func NewRemover(store Store, log logging.Logger) *Remover {
	return &Remover{store: store, log: log}
}

// plan resolves ref to a deletable filename, or a skipped Result.
func plan(ref string) (Result, bool) {
	res := Result{Ref: ref, Filename: FilenameOf(ref)}
	if res.Filename == "" || IsDefault(res.Filename) || !validName(res.Filename) {
		res.Skipped = true
		return res, false
	}
	return res, true
}

func (r *Remover) Remove(ctx context.Context, ref string) Result {
	res, ok := plan(ref)
	if !ok {
		return res
	}
	return r.remove(ctx, res)
}

func (r *Remover) remove(ctx context.Context, res Result) Result {
	res.Err = r.store.Delete(ctx, res.Filename)
	switch {
	case res.Err == nil:
		r.log.Debug(ctx, "media removed", "file", res.Filename)
	case errors.Is(res.Err, fs.ErrNotExist):
		r.log.Warn(ctx, "media already gone", "file", res.Filename)
	default:
		r.log.Error(ctx, "media removal failed", "file", res.Filename, "error", res.Err)
	}
	return res
}

// AsyncRemover queues removals for a fixed pool of workers so that file
// deletion does not hold up the response. Every queued removal is reported
// through the logger and the optional OnResult hook. When the queue is full
// or the remover is closed, the removal runs inline.
type AsyncRemover struct {
	base     *Remover
	jobs     chan Result
	timeout  time.Duration
	onResult func(Result)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type AsyncOption func(*AsyncRemover)

// WithResultHook is called from a worker goroutine after each queued removal.
func WithResultHook(fn func(Result)) AsyncOption {
	return func(a *AsyncRemover) { a.onResult = fn }
}

// WithQueueSize sets the capacity of the pending queue.
func WithQueueSize(n int) AsyncOption {
	return func(a *AsyncRemover) { a.jobs = make(chan Result, n) }
}

func NewAsyncRemover(base *Remover, workers int, opts ...AsyncOption) *AsyncRemover {
	a := &AsyncRemover{
		base:    base,
		jobs:    make(chan Result, 64),
		timeout: remoteTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if workers < 1 {
		workers = 1
	}

	a.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.work()
	}
	return a
}

func (a *AsyncRemover) work() {
	defer a.wg.Done()
	for job := range a.jobs {
		// the request that queued the job may be finished already
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		res := a.base.remove(ctx, job)
		cancel()
		if a.onResult != nil {
			a.onResult(res)
		}
	}
}

func (a *AsyncRemover) Remove(ctx context.Context, ref string) Result {
	res, ok := plan(ref)
	if !ok {
		return res
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.closed {
		select {
		case a.jobs <- res:
			res.Pending = true
			return res
		default:
		}
	}
	return a.base.remove(ctx, res)
}

// Close stops accepting work and waits until queued removals finish or ctx
// is done.
func (a *AsyncRemover) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
