package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

const (
	defaultMaxWorkers  = 4
	defaultQueueSize   = 64
	defaultIdleTimeout = time.Second
)

// Fragment is one loaded model: the root of its node tree and the locator it came from.
type Fragment struct {
	Locator Locator
	Root    *scene.Node
}

// BatchProgressFunc receives batch progress on the caller's goroutine.
type BatchProgressFunc func(BatchProgress)

// LoadedFunc receives each fragment on the caller's goroutine as soon as it is decoded.
type LoadedFunc func(Fragment)

// Loader decodes model files into scene fragments. Batches run on a worker pool owned by the
// loader.
type Loader interface {
	// Load decodes a single asset on the calling goroutine.
	//
	// Parameters:
	//   - ctx: cancellation for the load
	//   - loc: the asset to load
	//   - progress: optional byte progress callback
	//
	// Returns:
	//   - *scene.Node: the fragment root, named after the locator
	//   - error: a *LoadError for any failure
	Load(ctx context.Context, loc Locator, progress ProgressFunc) (*scene.Node, error)

	// LoadBatch loads every locator in parallel. onLoaded sees each fragment in completion order.
	// On the first failure the remaining loads are cancelled, their results discarded, and the
	// failure returned; fragments already handed to onLoaded stay with the caller.
	//
	// Parameters:
	//   - ctx: cancellation for the whole batch
	//   - locs: the assets to load
	//   - onProgress: optional progress callback
	//   - onLoaded: optional per-fragment callback
	//
	// Returns:
	//   - []Fragment: all fragments in locator order, nil on failure
	//   - error: the first *LoadError, ErrClosed, or ctx's error
	LoadBatch(ctx context.Context, locs []Locator, onProgress BatchProgressFunc, onLoaded LoadedFunc) ([]Fragment, error)

	// Close stops the worker pool. It is idempotent.
	Close()
}

type loader struct {
	mu *sync.Mutex

	backends    map[string]loaderBackend
	pool        worker.DynamicWorkerPool
	maxWorkers  int
	queueSize   int
	idleTimeout time.Duration
	log         logger.Logger

	closeOnce *sync.Once
	closed    bool
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the glTF backend registered for .gltf and .glb.
//
// Parameters:
//   - options: variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:          &sync.Mutex{},
		backends:    make(map[string]loaderBackend),
		maxWorkers:  defaultMaxWorkers,
		queueSize:   defaultQueueSize,
		idleTimeout: defaultIdleTimeout,
		log:         logger.Nop(),
		closeOnce:   &sync.Once{},
	}
	l.register(newGLTFLoaderBackend())

	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.maxWorkers, l.queueSize, l.idleTimeout)
	return l
}

func (l *loader) register(b loaderBackend) {
	for _, ext := range b.Extensions() {
		l.backends[ext] = b
	}
}

// resolveBackend selects the backend for path by its lowercase extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	b, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return b, nil
}

func (l *loader) Load(ctx context.Context, loc Locator, progress ProgressFunc) (*scene.Node, error) {
	root, err := l.load(ctx, loc, progress)
	if err != nil {
		return nil, &LoadError{Locator: loc, Err: err}
	}
	return root, nil
}

func (l *loader) load(ctx context.Context, loc Locator, progress ProgressFunc) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	backend, err := l.resolveBackend(loc.Path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	start := time.Now()
	r := newCountingReader(ctx, f, size, progress)
	root, err := backend.Decode(ctx, r, Source{Name: loc.Name, BaseDir: filepath.Dir(loc.Path)})
	if err != nil {
		return nil, err
	}
	l.log.Debugf("loaded %s (%d bytes) in %s", loc.Name, r.loaded, time.Since(start))
	return root, nil
}

// batchEvent is sent from a pool task to the batch's caller. done marks the task's final event.
type batchEvent struct {
	index  int
	loaded int64
	total  int64
	root   *scene.Node
	err    error
	done   bool
}

func (l *loader) LoadBatch(ctx context.Context, locs []Locator, onProgress BatchProgressFunc, onLoaded LoadedFunc) ([]Fragment, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	progress := BatchProgress{Total: len(locs)}
	emit := func() {
		if onProgress != nil {
			onProgress(progress)
		}
	}
	emit()
	if len(locs) == 0 {
		return []Fragment{}, nil
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// each task sends exactly one result, so results never blocks a worker
	results := make(chan batchEvent, len(locs))
	updates := make(chan batchEvent, len(locs))
	go func() {
		for i, loc := range locs {
			l.pool.SubmitTask(worker.Task{
				ID:      i,
				Payload: loc,
				Do: func() (any, error) {
					root, err := l.Load(batchCtx, loc, func(loaded, total int64) {
						select {
						case updates <- batchEvent{index: i, loaded: loaded, total: total}:
						case <-batchCtx.Done():
						}
					})
					results <- batchEvent{index: i, root: root, err: err, done: true}
					return root, err
				},
			})
		}
	}()

	fragments := make([]Fragment, len(locs))
	var firstErr error
	for pending := len(locs); pending > 0; {
		var ev batchEvent
		select {
		case ev = <-results:
		case ev = <-updates:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if !ev.done {
			if firstErr == nil {
				progress.Loaded, progress.Size = ev.loaded, ev.total
				emit()
			}
			continue
		}
		pending--
		if firstErr != nil {
			continue
		}
		if ev.err != nil {
			firstErr = ev.err
			cancel()
			l.log.Warnf("batch load failed: %v", ev.err)
			continue
		}
		frag := Fragment{Locator: locs[ev.index], Root: ev.root}
		fragments[ev.index] = frag
		progress.Finished++
		progress.Loaded, progress.Size = 0, 0
		if onLoaded != nil {
			onLoaded(frag)
		}
		emit()
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

func (l *loader) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		l.pool.Stop()
	})
}

// IsLoadError reports whether err carries a *LoadError and returns it.
//
// Parameters:
//   - err: the error to inspect
//
// Returns:
//   - *LoadError: the load error, nil if absent
//   - bool: true if err wraps a *LoadError
func IsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
