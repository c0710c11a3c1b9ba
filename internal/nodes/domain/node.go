package nodes

import (
	"strings"
	"time"
)

// OfflineThreshold is how long a node may stay silent before the offline
// sweep flags it and sends an offline notice.
const OfflineThreshold = 5 * time.Minute

// Node is a remote device identified by an external id scoped to one API key.
// Rows are created lazily on the first valid check-in.
type Node struct {
	ID                int64
	ExternalID        string
	APIKeyID          int64
	MonitoringEnabled bool
	LastCheckinAt     time.Time
	// RecipientList is a ";"-separated list of notification addresses,
	// possibly empty.
	RecipientList string
	// OfflineNotified is true iff an offline notice has been sent and no
	// subsequent check-in has cleared it. It is the sole source of truth for
	// the online/offline edge; there is no separate status column.
	OfflineNotified bool
}

// Recipients splits the stored recipient list, dropping empty entries.
func (n Node) Recipients() []string {
	if n.RecipientList == "" {
		return nil
	}
	parts := strings.Split(n.RecipientList, ";")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			recipients = append(recipients, part)
		}
	}
	return recipients
}

// SensorReading is one reading submitted with a check-in. Readings are not
// persisted; they live only for the duration of one evaluation.
type SensorReading struct {
	SensorID   string  `json:"id"`
	SensorName string  `json:"sensor_name"`
	Value      float64 `json:"value"`
}

// CheckinRequest is the inbound check-in payload.
type CheckinRequest struct {
	APIKey     string          `json:"api_key"`
	NodeID     string          `json:"node_id"`
	SensorData []SensorReading `json:"sensor_data,omitempty"`
}
