package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	nodes "nodewatch/internal/nodes/domain"
	"nodewatch/internal/notify"
	"nodewatch/internal/observability/metrics"
	triggers "nodewatch/internal/triggers/domain"
)

const missingReadingMessage = "sensor value is missing"

// TriggerStore is the persistence surface the evaluator needs.
type TriggerStore interface {
	// ListEnabled returns the node's triggers with monitoring enabled.
	ListEnabled(ctx context.Context, nodeID int64) ([]triggers.Trigger, error)
	// SetNotifiedIf flips the notified flag only when it currently equals
	// expected, reporting whether this caller won the transition. Concurrent
	// check-ins for the same node race on this; exactly one wins.
	SetNotifiedIf(ctx context.Context, id int64, expected, next bool) (bool, error)
}

// Evaluator matches a check-in's readings against the node's configured
// triggers, decides a verdict per trigger, and drives the edge-triggered
// notification transitions.
type Evaluator struct {
	store  TriggerStore
	sink   notify.Sink
	logger *zap.Logger
}

// NewEvaluator constructs a trigger evaluator.
func NewEvaluator(store TriggerStore, sink notify.Sink, logger *zap.Logger) (*Evaluator, error) {
	if store == nil {
		return nil, errors.New("trigger evaluator: nil store")
	}
	if sink == nil {
		return nil, errors.New("trigger evaluator: nil sink")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{store: store, sink: sink, logger: logger}, nil
}

// EvaluateCheckin runs every enabled trigger for the node against the
// submitted readings. Configuration problems are recovered locally; store and
// sink failures abort the remaining triggers and fail the check-in.
func (e *Evaluator) EvaluateCheckin(ctx context.Context, node *nodes.Node, readings []nodes.SensorReading, at time.Time) error {
	if e == nil {
		return errors.New("trigger evaluator: nil evaluator")
	}
	if node == nil {
		return errors.New("trigger evaluator: nil node")
	}
	list, err := e.store.ListEnabled(ctx, node.ID)
	if err != nil {
		return err
	}
	for _, trig := range list {
		if err := e.evaluateTrigger(ctx, node, trig, readings, at); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evaluateTrigger(ctx context.Context, node *nodes.Node, trig triggers.Trigger, readings []nodes.SensorReading, at time.Time) error {
	reading := findReading(trig.SensorID, readings)

	var verdict triggers.Verdict
	sensorName := ""
	if reading == nil {
		if trig.Notified {
			// A still-missing sensor is not a new edge.
			return nil
		}
		verdict = triggers.Verdict{Outcome: triggers.OutcomeFail, Message: missingReadingMessage}
	} else {
		sensorName = reading.SensorName
		verdict = triggers.Validate(trig.Function, trig.Param1, trig.Param2, reading.Value)
		e.logger.Debug("trigger evaluated",
			zap.Int64("trigger_id", trig.ID),
			zap.String("sensor_id", trig.SensorID),
			zap.Float64("value", reading.Value),
			zap.String("outcome", string(verdict.Outcome)),
			zap.String("message", verdict.Message),
		)
	}

	if verdict.ConfigError() {
		e.logger.Error("trigger configuration error",
			zap.Int64("trigger_id", trig.ID),
			zap.String("sensor_id", trig.SensorID),
			zap.String("function", string(trig.Function)),
			zap.String("message", verdict.Message),
		)
		return nil
	}

	switch {
	case verdict.Outcome == triggers.OutcomeFail && !trig.Notified:
		msg := notify.TriggerFailed(node.ExternalID, trig.SensorID, sensorName, verdict.Message, at)
		return e.transition(ctx, node, trig, true, msg, "trigger_failed")
	case verdict.Outcome == triggers.OutcomePass && trig.Notified:
		msg := notify.TriggerRecovered(node.ExternalID, trig.SensorID, sensorName, verdict.Message, at)
		return e.transition(ctx, node, trig, false, msg, "trigger_recovered")
	default:
		// Level, not edge: no notice, no state change.
		return nil
	}
}

// transition claims the notified flag via conditional update, then sends. On
// delivery failure the claim is reverted so the condition stays eligible for
// a retry on the next check-in.
func (e *Evaluator) transition(ctx context.Context, node *nodes.Node, trig triggers.Trigger, next bool, msg notify.Message, kind string) error {
	recipients := node.Recipients()
	if len(recipients) == 0 {
		// Not advancing the flag keeps the condition pending until
		// recipients are configured.
		e.logger.Error("cannot send trigger notification",
			zap.Int64("trigger_id", trig.ID),
			zap.String("node", node.ExternalID),
			zap.Error(notify.ErrNoRecipients),
		)
		metrics.IncNotification(kind, metrics.ResultSkipped)
		return nil
	}

	claimed, err := e.store.SetNotifiedIf(ctx, trig.ID, trig.Notified, next)
	if err != nil {
		return err
	}
	if !claimed {
		// Another check-in already handled this edge.
		return nil
	}

	if err := e.sink.Send(ctx, recipients, msg); err != nil {
		if _, revertErr := e.store.SetNotifiedIf(ctx, trig.ID, next, trig.Notified); revertErr != nil {
			e.logger.Error("failed to revert notified flag after send failure",
				zap.Int64("trigger_id", trig.ID),
				zap.Error(revertErr),
			)
		}
		metrics.IncNotification(kind, metrics.ResultError)
		return err
	}
	metrics.IncNotification(kind, metrics.ResultSent)
	e.logger.Info("trigger notification sent",
		zap.Int64("trigger_id", trig.ID),
		zap.String("node", node.ExternalID),
		zap.String("sensor_id", trig.SensorID),
		zap.String("kind", kind),
	)
	return nil
}

// findReading returns the first reading matching the sensor id. The readings
// list carries no uniqueness guarantee; first match wins.
func findReading(sensorID string, readings []nodes.SensorReading) *nodes.SensorReading {
	for i := range readings {
		if readings[i].SensorID == sensorID {
			return &readings[i]
		}
	}
	return nil
}
