package postgres

import (
	"context"
	"database/sql"
	"errors"

	triggers "nodewatch/internal/triggers/domain"
)

// TriggerRepository is a Postgres repository for sensor trigger rows.
type TriggerRepository struct {
	db *sql.DB
}

// NewTriggerRepository constructs a repository.
func NewTriggerRepository(db *sql.DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

// ListEnabled returns the node's triggers with monitoring enabled.
func (r *TriggerRepository) ListEnabled(ctx context.Context, nodeID int64) ([]triggers.Trigger, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("trigger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT sensor_triggers_id, node_id, sensor_id, monitoring_enabled,
	trigger_notification_sent, validation_function,
	validation_parameter_1, validation_parameter_2
FROM sensor_triggers
WHERE node_id = $1 AND monitoring_enabled = true
ORDER BY sensor_triggers_id`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []triggers.Trigger
	for rows.Next() {
		var trig triggers.Trigger
		var fn string
		var param1, param2 sql.NullFloat64
		if err := rows.Scan(
			&trig.ID,
			&trig.NodeID,
			&trig.SensorID,
			&trig.MonitoringEnabled,
			&trig.Notified,
			&fn,
			&param1,
			&param2,
		); err != nil {
			return nil, err
		}
		trig.Function = triggers.Function(fn)
		if param1.Valid {
			value := param1.Float64
			trig.Param1 = &value
		}
		if param2.Valid {
			value := param2.Float64
			trig.Param2 = &value
		}
		result = append(result, trig)
	}
	return result, rows.Err()
}

// SetNotifiedIf flips the notified flag only when it currently equals
// expected, reporting whether the update was applied. This is the
// conditional-update contract that keeps concurrent check-ins from both
// claiming the same edge.
func (r *TriggerRepository) SetNotifiedIf(ctx context.Context, id int64, expected, next bool) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("trigger repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE sensor_triggers
SET trigger_notification_sent = $2
WHERE sensor_triggers_id = $1 AND trigger_notification_sent = $3`, id, next, expected)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
