package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	nodes "nodewatch/internal/nodes/domain"
)

// NodeLister lists all registered nodes.
type NodeLister interface {
	List(ctx context.Context) ([]nodes.Node, error)
}

// NodesHandler serves the fleet status listing.
type NodesHandler struct {
	store NodeLister
	now   func() time.Time
}

// NewNodesHandler constructs a NodesHandler.
func NewNodesHandler(store NodeLister) *NodesHandler {
	return &NodesHandler{store: store, now: func() time.Time { return time.Now().UTC() }}
}

type nodeStatusRow struct {
	NodeID            string    `json:"node_id"`
	MonitoringEnabled bool      `json:"monitoring_enabled"`
	LastCheckinAt     time.Time `json:"last_checkin_at"`
	Online            bool      `json:"online"`
	OfflineNotified   bool      `json:"offline_notified"`
	Recipients        int       `json:"recipients"`
}

// ServeHTTP handles GET /api/v1/nodes.
func (h *NodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	list, err := h.store.List(r.Context())
	if err != nil {
		http.Error(w, "query nodes error", http.StatusInternalServerError)
		return
	}

	now := h.now()
	result := make([]nodeStatusRow, 0, len(list))
	for _, node := range list {
		result = append(result, nodeStatusRow{
			NodeID:            node.ExternalID,
			MonitoringEnabled: node.MonitoringEnabled,
			LastCheckinAt:     node.LastCheckinAt.UTC(),
			Online:            nodeOnline(node, now),
			OfflineNotified:   node.OfflineNotified,
			Recipients:        len(node.Recipients()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func nodeOnline(node nodes.Node, now time.Time) bool {
	if node.OfflineNotified {
		return false
	}
	return now.Sub(node.LastCheckinAt) <= nodes.OfflineThreshold
}
