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

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// KeyReader authenticates check-ins. Unknown keys are reported through
// nodes.ErrKeyNotFound.
type KeyReader interface {
	FindKeyID(ctx context.Context, key string) (int64, error)
}

// NodeStore is the persistence surface for node rows on the check-in path.
type NodeStore interface {
	// FindByExternalID returns nil, nil when the node has not been seen yet.
	FindByExternalID(ctx context.Context, apiKeyID int64, externalID string) (*nodes.Node, error)
	// Insert creates a node row on first sight with monitoring enabled, an
	// empty recipient list, and the offline flag cleared.
	Insert(ctx context.Context, externalID string, apiKeyID int64, checkinAt time.Time) (*nodes.Node, error)
	// UpdateCheckin stamps the check-in time and clears the offline flag.
	// The check-in path owns only these two fields.
	UpdateCheckin(ctx context.Context, id int64, checkinAt time.Time) error
	// ClaimOnline clears the offline flag only when it is still set,
	// reporting whether this check-in won the online edge. A concurrent
	// check-in loses the race cleanly.
	ClaimOnline(ctx context.Context, id int64) (bool, error)
	// RevertOnline restores the offline flag after a failed delivery.
	RevertOnline(ctx context.Context, id int64) error
}

// TriggerEvaluator runs trigger evaluation after timestamp handling.
type TriggerEvaluator interface {
	EvaluateCheckin(ctx context.Context, node *nodes.Node, readings []nodes.SensorReading, at time.Time) error
}

// CheckinService owns node existence and the offline-to-online edge on an
// inbound check-in.
type CheckinService struct {
	keys      KeyReader
	store     NodeStore
	evaluator TriggerEvaluator
	sink      notify.Sink
	clock     Clock
	logger    *zap.Logger
}

// Option customizes the check-in service.
type Option func(*CheckinService)

// WithClock assigns a clock.
func WithClock(clock Clock) Option {
	return func(s *CheckinService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewCheckinService constructs a check-in service.
func NewCheckinService(keys KeyReader, store NodeStore, evaluator TriggerEvaluator, sink notify.Sink, logger *zap.Logger, opts ...Option) (*CheckinService, error) {
	if keys == nil {
		return nil, errors.New("checkin service: nil key reader")
	}
	if store == nil {
		return nil, errors.New("checkin service: nil node store")
	}
	if evaluator == nil {
		return nil, errors.New("checkin service: nil trigger evaluator")
	}
	if sink == nil {
		return nil, errors.New("checkin service: nil sink")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &CheckinService{
		keys:      keys,
		store:     store,
		evaluator: evaluator,
		sink:      sink,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Process handles one inbound check-in. A check-in with an unknown api key is
// accepted without side effects so callers cannot probe which keys exist.
func (s *CheckinService) Process(ctx context.Context, req nodes.CheckinRequest) error {
	if s == nil {
		return errors.New("checkin service: nil service")
	}
	keyID, err := s.keys.FindKeyID(ctx, req.APIKey)
	if errors.Is(err, nodes.ErrKeyNotFound) {
		s.logger.Info("check-in with unknown api key", zap.String("node", req.NodeID))
		metrics.IncCheckinIgnored("unknown_api_key")
		return nil
	}
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	node, err := s.store.FindByExternalID(ctx, keyID, req.NodeID)
	if err != nil {
		return err
	}

	if node == nil {
		// First sight is not an event: create the row, no notification.
		node, err = s.store.Insert(ctx, req.NodeID, keyID, now)
		if err != nil {
			return err
		}
		s.logger.Info("node registered", zap.String("node", req.NodeID), zap.Int64("id", node.ID))
		return s.evaluator.EvaluateCheckin(ctx, node, req.SensorData, now)
	}

	if node.OfflineNotified {
		claimed, err := s.store.ClaimOnline(ctx, node.ID)
		if err != nil {
			return err
		}
		if claimed {
			if err := s.notifyOnline(ctx, node, now); err != nil {
				if revertErr := s.store.RevertOnline(ctx, node.ID); revertErr != nil {
					s.logger.Error("failed to revert offline flag after send failure",
						zap.Int64("node_id", node.ID),
						zap.Error(revertErr),
					)
				}
				return err
			}
		}
	}
	if err := s.store.UpdateCheckin(ctx, node.ID, now); err != nil {
		return err
	}
	node.LastCheckinAt = now
	node.OfflineNotified = false

	return s.evaluator.EvaluateCheckin(ctx, node, req.SensorData, now)
}

func (s *CheckinService) notifyOnline(ctx context.Context, node *nodes.Node, now time.Time) error {
	if !node.MonitoringEnabled {
		return nil
	}
	recipients := node.Recipients()
	if len(recipients) == 0 {
		// The timestamp and flag still advance; only the notice is lost.
		s.logger.Error("cannot send online notification",
			zap.String("node", node.ExternalID),
			zap.Error(notify.ErrNoRecipients),
		)
		metrics.IncNotification("node_online", metrics.ResultSkipped)
		return nil
	}
	msg := notify.NodeOnline(node.ExternalID, node.LastCheckinAt, now)
	if err := s.sink.Send(ctx, recipients, msg); err != nil {
		metrics.IncNotification("node_online", metrics.ResultError)
		return err
	}
	metrics.IncNotification("node_online", metrics.ResultSent)
	s.logger.Info("node back online",
		zap.String("node", node.ExternalID),
		zap.Duration("offline_for", now.Sub(node.LastCheckinAt)),
	)
	return nil
}
