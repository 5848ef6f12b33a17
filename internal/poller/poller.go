// Package poller keeps the ledger store eventually consistent with the
// engine without a push channel: one fetch on tab change, plus a periodic
// reconciliation round on a fixed interval.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"splitbook/internal/core"
	"splitbook/internal/log"
	"splitbook/internal/view"
)

// Lister is the slice of the ledger client the poller needs.
type Lister interface {
	List(ctx context.Context, status core.Status) ([]core.Obligation, error)
}

// Poller issues list fetches and merges their tagged results into the
// store. Overlapping rounds are allowed: there is no de-duplication or
// cancellation of in-flight requests, and the stale-tab guard in the store
// keeps late completions from corrupting the visible list.
type Poller struct {
	lister   Lister
	store    *view.Store
	interval time.Duration
	logger   *log.Logger
	onUpdate func()

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type Option func(*Poller)

// WithOnUpdate registers a callback invoked after every merged fetch
// result, for frontends that need a re-render signal.
func WithOnUpdate(fn func()) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

func New(lister Lister, store *view.Store, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		store:    store,
		interval: interval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(nil, log.ComponentPoller)
	}
	return p
}

// Start launches the periodic reconciliation loop and issues the initial
// fetch for the current tab. It fails if the poller is already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("poller already started")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	p.logger.Info("poller starting", "interval", p.interval.String())
	go p.runLoop(ctx)
	go p.fetchTab(ctx, p.store.Tab(), true)
	return nil
}

// Stop signals the loop to exit and waits for it, or gives up when ctx is
// done. In-flight fetches are not cancelled; their late results are
// harmless under the tagged-write rule.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.Info("poller stopped")
	case <-ctx.Done():
		p.logger.Warn("poller stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// SelectTab switches the visible tab and issues its fetch. Selecting the
// already-current tab does nothing.
func (p *Poller) SelectTab(ctx context.Context, tab view.Tab) {
	if !p.store.SelectTab(tab) {
		return
	}
	go p.fetchTab(ctx, tab, true)
}

// Retry re-issues the primary fetch for the current tab after a surfaced
// load failure.
func (p *Poller) Retry(ctx context.Context) {
	p.store.BeginLoad()
	p.notify()
	go p.fetchTab(ctx, p.store.Tab(), true)
}

// Refresh runs one full reconciliation round: the current tab's list plus,
// when that tab is not active, a concurrent fetch of the active snapshot.
// It blocks until both complete; mutation workflows call it after every
// successful write.
func (p *Poller) Refresh(ctx context.Context) {
	tab := p.store.Tab()

	var g errgroup.Group
	g.Go(func() error {
		p.fetchTab(ctx, tab, false)
		return nil
	})
	if tab != view.TabActive {
		g.Go(func() error {
			p.fetchSnapshot(ctx)
			return nil
		})
	}
	g.Wait()
}

func (p *Poller) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Detached so a slow round never delays the next tick;
			// whichever completes last wins its slot.
			go p.Refresh(ctx)
		}
	}
}

func (p *Poller) fetchTab(ctx context.Context, tab view.Tab, primary bool) {
	obligations, err := p.lister.List(ctx, tab.Status())
	if err != nil && !primary {
		p.logger.Debug("background fetch failed", "tab", string(tab), "error", err)
	}
	p.store.Apply(view.FetchResult{
		Target:       view.TargetTab,
		RequestedTab: tab,
		Obligations:  obligations,
		Err:          err,
		Primary:      primary,
	})
	p.notify()
}

func (p *Poller) fetchSnapshot(ctx context.Context) {
	obligations, err := p.lister.List(ctx, core.StatusActive)
	if err != nil {
		p.logger.Debug("snapshot fetch failed", "error", err)
	}
	p.store.Apply(view.FetchResult{
		Target:      view.TargetSnapshot,
		Obligations: obligations,
		Err:         err,
	})
	p.notify()
}

func (p *Poller) notify() {
	if p.onUpdate != nil {
		p.onUpdate()
	}
}
