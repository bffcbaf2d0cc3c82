package script

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/noventa-dev/noventa/pkg/catalog"
)

// poolRequest is one message to a worker. Exactly one of invoke or
// reload is set; reply always receives exactly one result.
type poolRequest struct {
	// Invoke
	componentID string
	fn          string
	args        map[string]any

	// Reload
	reload []catalog.Component

	reply chan poolResult
}

type poolResult struct {
	ctx Context
	err error
}

// Pool runs a fixed number of workers, each exclusively owning one
// Runtime instance. Dispatch is round-robin over the workers; which
// worker serves a given component is irrelevant because every worker is
// loaded with the full catalog at startup and on reload.
type Pool struct {
	workers []chan poolRequest
	done    chan struct{}
	logger  *slog.Logger

	mu     sync.Mutex
	next   int
	closed bool

	pending atomic.Int64
	wg      sync.WaitGroup
}

// NewPool starts size workers, each with its own Runtime from factory,
// loaded with the logic modules of the given components.
func NewPool(factory Factory, size int, components []catalog.Component, logger *slog.Logger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "script-pool")

	p := &Pool{
		workers: make([]chan poolRequest, size),
		done:    make(chan struct{}),
		logger:  logger,
	}
	for i := 0; i < size; i++ {
		rt, err := factory()
		if err != nil {
			p.Close()
			return nil, err
		}
		loadAll(rt, components, logger)

		ch := make(chan poolRequest)
		p.workers[i] = ch
		p.wg.Add(1)
		go p.run(i, rt, ch)
	}
	return p, nil
}

func loadAll(rt Runtime, components []catalog.Component, logger *slog.Logger) {
	for _, comp := range components {
		if !comp.HasLogic() {
			continue
		}
		if err := rt.Load(comp.ID, comp.LogicPath); err != nil {
			// A broken module only disables that component; the worker
			// keeps serving everything else.
			logger.Warn("failed to load logic module", "id", comp.ID, "error", err)
		}
	}
}

// run is one worker loop. The Runtime is touched only here.
func (p *Pool) run(id int, rt Runtime, requests chan poolRequest) {
	defer p.wg.Done()
	defer func() {
		if err := rt.Close(); err != nil {
			p.logger.Warn("runtime close failed", "worker", id, "error", err)
		}
	}()

	for {
		select {
		case <-p.done:
			return
		case req := <-requests:
			if req.reload != nil {
				loadAll(rt, req.reload, p.logger)
				req.reply <- poolResult{}
				continue
			}
			ctx, err := rt.Invoke(req.componentID, req.fn, req.args)
			req.reply <- poolResult{ctx: ctx, err: err}
		}
	}
}

// Invoke dispatches a logic invocation to the next worker in rotation
// and waits for its single reply. Failure of one call never affects
// other workers; an unreachable worker surfaces as ErrWorkerUnavailable.
func (p *Pool) Invoke(componentID, fn string, args map[string]any) (Context, error) {
	req := poolRequest{
		componentID: componentID,
		fn:          fn,
		args:        args,
		reply:       make(chan poolResult, 1),
	}
	p.pending.Add(1)
	defer p.pending.Add(-1)
	if err := p.dispatch(req); err != nil {
		return nil, err
	}
	res := <-req.reply
	return res.ctx, res.err
}

// Pending returns the number of invocations currently waiting on or
// inside a worker.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// Reload pushes a fresh catalog snapshot to every worker so subsequent
// invocations see the updated logic modules.
func (p *Pool) Reload(components []catalog.Component) error {
	for range p.workers {
		req := poolRequest{reload: components, reply: make(chan poolResult, 1)}
		if err := p.dispatch(req); err != nil {
			return err
		}
		<-req.reply
	}
	return nil
}

// dispatch hands the request to the next worker in rotation. The
// rotation state lives here in the dispatcher, not in the workers.
func (p *Pool) dispatch(req poolRequest) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrWorkerUnavailable
	}
	worker := p.workers[p.next]
	p.next = (p.next + 1) % len(p.workers)
	p.mu.Unlock()

	select {
	case worker <- req:
		return nil
	case <-p.done:
		return ErrWorkerUnavailable
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Close stops all workers and releases their runtimes. In-flight calls
// finish first; later calls get ErrWorkerUnavailable.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
}
