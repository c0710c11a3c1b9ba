package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	nodes "nodewatch/internal/nodes/domain"
)

const nodeColumns = `id, node_id_external, fk_api_key_id, monitoring_enabled, last_checkin_timestamp, notification_email_list, offline_notification_sent`

// NodeRepository is a Postgres repository for node rows.
type NodeRepository struct {
	db *sql.DB
}

// NewNodeRepository constructs a repository.
func NewNodeRepository(db *sql.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// FindByExternalID loads a node by owner key and external id, returning
// nil, nil when the node has not been seen yet.
func (r *NodeRepository) FindByExternalID(ctx context.Context, apiKeyID int64, externalID string) (*nodes.Node, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("node repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+nodeColumns+`
FROM nodes
WHERE fk_api_key_id = $1 AND node_id_external = $2
LIMIT 1`, apiKeyID, externalID)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return node, nil
}

// Insert creates a node row on first sight. Monitoring starts enabled with no
// recipients configured; the id is assigned by the database.
func (r *NodeRepository) Insert(ctx context.Context, externalID string, apiKeyID int64, checkinAt time.Time) (*nodes.Node, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("node repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
INSERT INTO nodes (
	node_id_external, fk_api_key_id, monitoring_enabled,
	last_checkin_timestamp, notification_email_list, offline_notification_sent
) VALUES (
	$1, $2, true,
	$3, '', false
)
RETURNING id`, externalID, apiKeyID, checkinAt.UTC())
	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	return &nodes.Node{
		ID:                id,
		ExternalID:        externalID,
		APIKeyID:          apiKeyID,
		MonitoringEnabled: true,
		LastCheckinAt:     checkinAt.UTC(),
	}, nil
}

// UpdateCheckin stamps the check-in time and clears the offline flag. Only
// the two fields owned by the check-in path are touched.
func (r *NodeRepository) UpdateCheckin(ctx context.Context, id int64, checkinAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("node repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE nodes
SET last_checkin_timestamp = $2, offline_notification_sent = false
WHERE id = $1`, id, checkinAt.UTC())
	return err
}

// ClaimOnline clears the offline flag only when it is still set. It reports
// whether this caller won the online edge; concurrent check-ins for the same
// node serialize on the row so only one sends the notice.
func (r *NodeRepository) ClaimOnline(ctx context.Context, id int64) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("node repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE nodes
SET offline_notification_sent = false
WHERE id = $1 AND offline_notification_sent = true`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RevertOnline restores the offline flag; used to revert a claim after a
// failed delivery.
func (r *NodeRepository) RevertOnline(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("node repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE nodes
SET offline_notification_sent = true
WHERE id = $1`, id)
	return err
}

// ListStale returns monitored nodes with recipients configured, the offline
// flag clear, and a last check-in before cutoff.
func (r *NodeRepository) ListStale(ctx context.Context, cutoff time.Time) ([]nodes.Node, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("node repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+nodeColumns+`
FROM nodes
WHERE monitoring_enabled = true
  AND notification_email_list <> ''
  AND offline_notification_sent = false
  AND last_checkin_timestamp < $1
ORDER BY last_checkin_timestamp`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []nodes.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *node)
	}
	return result, rows.Err()
}

// MarkOffline sets the offline flag only when it is still clear and the node
// is still silent past cutoff. It reports whether this caller won the
// transition; a concurrent check-in loses the race cleanly.
func (r *NodeRepository) MarkOffline(ctx context.Context, id int64, cutoff time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("node repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE nodes
SET offline_notification_sent = true
WHERE id = $1
  AND offline_notification_sent = false
  AND last_checkin_timestamp < $2`, id, cutoff.UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UnmarkOffline clears the offline flag; used to revert a claim after a
// failed delivery.
func (r *NodeRepository) UnmarkOffline(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("node repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE nodes
SET offline_notification_sent = false
WHERE id = $1 AND offline_notification_sent = true`, id)
	return err
}

// List returns all node rows for the operator API.
func (r *NodeRepository) List(ctx context.Context) ([]nodes.Node, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("node repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+nodeColumns+`
FROM nodes
ORDER BY node_id_external`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []nodes.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *node)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*nodes.Node, error) {
	var node nodes.Node
	var recipients sql.NullString
	if err := row.Scan(
		&node.ID,
		&node.ExternalID,
		&node.APIKeyID,
		&node.MonitoringEnabled,
		&node.LastCheckinAt,
		&recipients,
		&node.OfflineNotified,
	); err != nil {
		return nil, err
	}
	node.LastCheckinAt = node.LastCheckinAt.UTC()
	if recipients.Valid {
		node.RecipientList = recipients.String
	}
	return &node, nil
}
