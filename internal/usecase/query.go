// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/asreview-stats/internal/domain"
	"github.com/naka-gawa/asreview-stats/internal/gateway"
)

// DashboardStatsKey is the cache key shared by every reader of the dashboard stats.
const DashboardStatsKey = "fetchDashboardStats"

// StatsQuery owns the FetchState for the dashboard stats and makes sure at most
// one request for it is in flight.
type StatsQuery struct {
	fetcher gateway.Fetcher
	logger  *logrus.Logger
	group   singleflight.Group

	mu         sync.RWMutex
	state      domain.FetchState
	generation uint64
	nextID     int
	listeners  map[int]func(domain.FetchState)

	// onJoin, when set, runs after a caller has joined the request.
	onJoin func()
}

// NewStatsQuery creates a new StatsQuery in the NotReady state.
func NewStatsQuery(fetcher gateway.Fetcher, logger *logrus.Logger) *StatsQuery {
	return &StatsQuery{
		fetcher:   fetcher,
		logger:    logger,
		listeners: make(map[int]func(domain.FetchState)),
	}
}

// State returns a snapshot of the current FetchState.
func (q *StatsQuery) State() domain.FetchState {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// Subscribe registers fn to be called after every state change.
// The returned function removes the subscription.
func (q *StatsQuery) Subscribe(fn func(domain.FetchState)) (unsubscribe func()) {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.listeners[id] = fn
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.listeners, id)
			q.mu.Unlock()
		})
	}
}

// Fetch requests the dashboard stats. Concurrent callers share one request,
// which runs detached from any single caller: when ctx is done Fetch returns
// ctx.Err() and the request carries on for the others. On success the state
// becomes Ready with the new payload; on failure the state is left as it was
// and the error is returned.
func (q *StatsQuery) Fetch(ctx context.Context) error {
	q.mu.RLock()
	gen := q.generation
	q.mu.RUnlock()

	// Each generation gets its own key so a fetch after Refetch never joins
	// a request started before it.
	key := fmt.Sprintf("%s#%d", DashboardStatsKey, gen)
	fetchCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan(key, func() (interface{}, error) {
		payload, err := q.fetcher.FetchDashboardStats(fetchCtx)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			payload = &domain.StatsPayload{}
		}
		q.set(gen, domain.FetchState{Ready: true, Payload: payload})
		return payload, nil
	})
	if q.onJoin != nil {
		q.onJoin()
	}

	select {
	case <-ctx.Done():
		q.logger.WithField("key", key).Debug("Stopped waiting for dashboard stats")
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			q.logger.WithError(res.Err).WithField("key", key).Debug("Dashboard stats fetch failed")
			return res.Err
		}
		if res.Shared {
			q.logger.WithField("key", key).Debug("Shared in-flight dashboard stats fetch")
		}
		return nil
	}
}

// Refetch resets the state to NotReady and fetches again. A fetch started
// before the reset cannot overwrite the new result.
func (q *StatsQuery) Refetch(ctx context.Context) error {
	q.mu.Lock()
	q.generation++
	gen := q.generation
	q.mu.Unlock()

	q.set(gen, domain.FetchState{})
	return q.Fetch(ctx)
}

// set stores state unless a Refetch happened after gen was read.
func (q *StatsQuery) set(gen uint64, state domain.FetchState) {
	q.mu.Lock()
	if gen != q.generation {
		q.mu.Unlock()
		q.logger.WithField("key", DashboardStatsKey).Debug("Discarding stale dashboard stats")
		return
	}
	q.state = state
	listeners := make([]func(domain.FetchState), 0, len(q.listeners))
	for _, fn := range q.listeners {
		listeners = append(listeners, fn)
	}
	q.mu.Unlock()

	q.logger.WithField("phase", state.Phase()).Debug("Dashboard stats state changed")
	for _, fn := range listeners {
		fn(state)
	}
}
