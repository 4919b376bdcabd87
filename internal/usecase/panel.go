package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/asreview-stats/internal/domain"
	"github.com/naka-gawa/asreview-stats/internal/render"
)

// StatsPanel derives the four dashboard counters from a StatsQuery and hands
// them to a renderer. It only reads the query state.
type StatsPanel struct {
	query    *StatsQuery
	renderer render.Renderer
	logger   *logrus.Logger

	mu      sync.Mutex
	mounted bool
}

// NewStatsPanel creates a new StatsPanel instance.
func NewStatsPanel(query *StatsQuery, renderer render.Renderer, logger *logrus.Logger) *StatsPanel {
	return &StatsPanel{
		query:    query,
		renderer: renderer,
		logger:   logger,
	}
}

// Values returns the counters to display for the current state.
func (p *StatsPanel) Values() domain.DisplayValues {
	return domain.DeriveDisplayValues(p.query.State())
}

// Render hands the current counters to the renderer.
func (p *StatsPanel) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderer.Render(p.Values())
}

// Mount renders the current counters, re-renders on every state change and
// starts one fetch in the background. Fetch errors are logged and otherwise
// ignored, so the counters stay at zero. done is closed when the fetch returns
// or the panel stops waiting for it. After unmount returns, the renderer is
// not called again; the request itself still completes for other readers.
func (p *StatsPanel) Mount(ctx context.Context) (unmount func(), done <-chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.mounted = true
	p.mu.Unlock()

	unsubscribe := p.query.Subscribe(func(state domain.FetchState) {
		p.draw(domain.DeriveDisplayValues(state))
	})
	p.draw(p.Values())

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		err := p.query.Fetch(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			p.logger.Debug("Panel unmounted before dashboard stats arrived")
		default:
			p.logger.WithError(err).Warn("Could not fetch dashboard stats; showing zeros")
		}
	}()

	var once sync.Once
	unmount = func() {
		once.Do(func() {
			p.mu.Lock()
			p.mounted = false
			p.mu.Unlock()
			unsubscribe()
			cancel()
		})
	}
	return unmount, finished
}

func (p *StatsPanel) draw(values domain.DisplayValues) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return
	}
	if err := p.renderer.Render(values); err != nil {
		p.logger.WithError(err).Error("Failed to render dashboard stats")
	}
}
