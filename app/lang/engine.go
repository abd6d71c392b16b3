package lang

import (
	"context"
	"sync"
)

// Engine runs evaluation passes for one document. A new pass cancels the one
// in flight, and only the newest generation publishes its Snapshot.
type Engine struct {
	eval    *Evaluator
	publish func(*Snapshot)

	// gate admits one pass at a time into evaluation.
	gate chan struct{}

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest *Snapshot
	text   string
	closed bool
	wg     sync.WaitGroup
}

// NewEngine returns an engine evaluating with eval. publish, if not nil, is
// called with every published snapshot, in generation order.
func NewEngine(eval *Evaluator, publish func(*Snapshot)) *Engine {
	return &Engine{
		eval:    eval,
		publish: publish,
		gate:    make(chan struct{}, 1),
	}
}

// Evaluator returns the engine's evaluator.
func (en *Engine) Evaluator() *Evaluator { return en.eval }

// begin supersedes the current pass and returns the new generation.
func (en *Engine) begin(parent context.Context, text string) (context.Context, uint64, bool) {
	en.mu.Lock()
	defer en.mu.Unlock()
	if en.closed {
		return nil, 0, false
	}
	if en.cancel != nil {
		en.cancel()
	}
	en.gen++
	ctx, cancel := context.WithCancel(parent)
	en.cancel = cancel
	en.text = text
	return ctx, en.gen, true
}

// Update starts a background pass over text and returns its generation, or
// 0 once the engine is closed.
func (en *Engine) Update(text string) uint64 {
	ctx, gen, ok := en.begin(context.Background(), text)
	if !ok {
		return 0
	}
	en.wg.Add(1)
	go func() {
		defer en.wg.Done()
		_, _ = en.run(ctx, gen, text)
	}()
	return gen
}

// Evaluate runs a pass over text on the calling goroutine. It fails with
// context.Canceled when a newer pass supersedes it.
func (en *Engine) Evaluate(ctx context.Context, text string) (*Snapshot, error) {
	ctx, gen, ok := en.begin(ctx, text)
	if !ok {
		return nil, context.Canceled
	}
	return en.run(ctx, gen, text)
}

// Refresh re-runs the last document if its results depend on the clock. It
// reports whether a pass was started.
func (en *Engine) Refresh() bool {
	en.mu.Lock()
	stale := en.latest != nil && en.latest.UsesClock && !en.closed
	text := en.text
	en.mu.Unlock()
	if !stale {
		return false
	}
	return en.Update(text) != 0
}

func (en *Engine) run(ctx context.Context, gen uint64, text string) (*Snapshot, error) {
	select {
	case en.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-en.gate }()

	snap, err := en.eval.EvaluateDocument(ctx, text)
	if err != nil {
		en.eval.logger.Debug("pass abandoned", "generation", gen, "err", err)
		return nil, err
	}
	snap.Generation = gen

	en.mu.Lock()
	current := gen == en.gen && ctx.Err() == nil
	if current {
		en.latest = snap
	}
	en.mu.Unlock()
	if !current {
		en.eval.logger.Debug("pass superseded", "generation", gen)
		return nil, context.Canceled
	}

	en.eval.logger.Debug("pass published", "generation", gen, "pass", snap.PassID, "lines", len(snap.Lines))
	if en.publish != nil {
		en.publish(snap)
	}
	return snap, nil
}

// Latest returns the last published snapshot, or nil.
func (en *Engine) Latest() *Snapshot {
	en.mu.Lock()
	defer en.mu.Unlock()
	return en.latest
}

// Wait blocks until every background pass has finished.
func (en *Engine) Wait() {
	en.wg.Wait()
}

// Close cancels the pass in flight and waits for background passes to stop.
func (en *Engine) Close() {
	en.mu.Lock()
	en.closed = true
	if en.cancel != nil {
		en.cancel()
	}
	en.mu.Unlock()
	en.wg.Wait()
}
