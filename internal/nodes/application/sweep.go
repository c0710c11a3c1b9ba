package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	nodes "nodewatch/internal/nodes/domain"
	"nodewatch/internal/notify"
	"nodewatch/internal/observability/metrics"
)

// SweepStore is the persistence surface the offline sweep needs.
type SweepStore interface {
	// ListStale returns monitored nodes with recipients configured, the
	// offline flag still clear, and a last check-in before cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]nodes.Node, error)
	// MarkOffline sets the offline flag only when it is still clear and the
	// node is still silent past cutoff, reporting whether this sweep won the
	// transition. The sweep owns only the offline flag.
	MarkOffline(ctx context.Context, id int64, cutoff time.Time) (bool, error)
	// UnmarkOffline reverts a claim after a failed delivery.
	UnmarkOffline(ctx context.Context, id int64) error
}

// Sweeper scans for nodes silent past the offline threshold and sends
// offline notices. It is stateless; every run re-derives its work from the
// store, so invocations may come from cron, HTTP, or both.
type Sweeper struct {
	store  SweepStore
	sink   notify.Sink
	clock  Clock
	logger *zap.Logger
}

// SweeperOption customizes the sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperClock assigns a clock.
func WithSweeperClock(clock Clock) SweeperOption {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSweeper constructs a sweeper.
func NewSweeper(store SweepStore, sink notify.Sink, logger *zap.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("sweeper: nil store")
	}
	if sink == nil {
		return nil, errors.New("sweeper: nil sink")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sweeper := &Sweeper{
		store:  store,
		sink:   sink,
		clock:  systemClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper, nil
}

// Run performs one sweep and returns the number of nodes notified. The count
// is observability data, not domain state.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("sweeper: nil sweeper")
	}
	start := s.clock.Now().UTC()
	cutoff := start.Add(-nodes.OfflineThreshold)

	stale, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		metrics.ObserveSweep(metrics.ResultError, 0, time.Since(start))
		return 0, err
	}

	notified := 0
	for _, node := range stale {
		claimed, err := s.store.MarkOffline(ctx, node.ID, cutoff)
		if err != nil {
			metrics.ObserveSweep(metrics.ResultError, notified, time.Since(start))
			return notified, err
		}
		if !claimed {
			// A check-in or a concurrent sweep got there first.
			continue
		}
		msg := notify.NodeOffline(node.ExternalID, node.LastCheckinAt, start)
		if err := s.sink.Send(ctx, node.Recipients(), msg); err != nil {
			if revertErr := s.store.UnmarkOffline(ctx, node.ID); revertErr != nil {
				s.logger.Error("failed to revert offline flag after send failure",
					zap.Int64("node_id", node.ID),
					zap.Error(revertErr),
				)
			}
			metrics.IncNotification("node_offline", metrics.ResultError)
			metrics.ObserveSweep(metrics.ResultError, notified, time.Since(start))
			return notified, err
		}
		metrics.IncNotification("node_offline", metrics.ResultSent)
		s.logger.Info("offline notification sent",
			zap.String("node", node.ExternalID),
			zap.Time("last_seen", node.LastCheckinAt),
		)
		notified++
	}

	metrics.ObserveSweep(metrics.ResultSuccess, notified, time.Since(start))
	return notified, nil
}
