package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nodes "nodewatch/internal/nodes/domain"
)

type stubCheckinService struct {
	requests []nodes.CheckinRequest
	err      error
}

func (s *stubCheckinService) Process(ctx context.Context, req nodes.CheckinRequest) error {
	s.requests = append(s.requests, req)
	return s.err
}

type stubSweeper struct {
	notified int
	err      error
	runs     int
}

func (s *stubSweeper) Run(ctx context.Context) (int, error) {
	s.runs++
	return s.notified, s.err
}

type stubNodeLister struct {
	list []nodes.Node
	err  error
}

func (s *stubNodeLister) List(ctx context.Context) ([]nodes.Node, error) {
	return s.list, s.err
}

func TestCheckinHandler_EchoesPayload(t *testing.T) {
	svc := &stubCheckinService{}
	handler := NewCheckinHandler(svc, nil)

	body := `{"api_key":"k","node_id":"node-1","sensor_data":[{"id":"s1","sensor_name":"temp","value":21.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(svc.requests) != 1 {
		t.Fatalf("expected 1 processed request, got %d", len(svc.requests))
	}
	if svc.requests[0].SensorData[0].Value != 21.5 {
		t.Fatalf("unexpected reading: %+v", svc.requests[0].SensorData)
	}

	var echoed nodes.CheckinRequest
	if err := json.NewDecoder(resp.Body).Decode(&echoed); err != nil {
		t.Fatalf("decode echo: %v", err)
	}
	if echoed.NodeID != "node-1" || echoed.APIKey != "k" {
		t.Fatalf("unexpected echo: %+v", echoed)
	}
}

func TestCheckinHandler_Validation(t *testing.T) {
	handler := NewCheckinHandler(&stubCheckinService{}, nil)

	t.Run("rejects GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkin", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", resp.Code)
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader("{"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader(`{"api_key":"k"}`))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
	})
}

func TestCheckinHandler_ServiceError(t *testing.T) {
	svc := &stubCheckinService{err: errors.New("db down")}
	handler := NewCheckinHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/checkin", strings.NewReader(`{"api_key":"k","node_id":"n"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestAlertSenderHandler(t *testing.T) {
	t.Run("runs the sweep", func(t *testing.T) {
		sweeper := &stubSweeper{notified: 2}
		handler := NewAlertSenderHandler(sweeper, nil)

		req := httptest.NewRequest(http.MethodGet, "/alert-sender", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if resp.Body.String() != "OK" {
			t.Fatalf("unexpected body: %q", resp.Body.String())
		}
		if sweeper.runs != 1 {
			t.Fatalf("expected 1 run, got %d", sweeper.runs)
		}
	})

	t.Run("reports sweep failure", func(t *testing.T) {
		handler := NewAlertSenderHandler(&stubSweeper{err: errors.New("db down")}, nil)

		req := httptest.NewRequest(http.MethodGet, "/alert-sender", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.Code)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		handler := NewAlertSenderHandler(&stubSweeper{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/alert-sender", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", resp.Code)
		}
	})
}

func TestNodesHandler(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	lister := &stubNodeLister{list: []nodes.Node{
		{
			ExternalID:        "node-1",
			MonitoringEnabled: true,
			LastCheckinAt:     now.Add(-time.Minute),
			RecipientList:     "a@example.com;b@example.com",
		},
		{
			ExternalID:        "node-2",
			MonitoringEnabled: true,
			LastCheckinAt:     now.Add(-time.Hour),
			OfflineNotified:   true,
		},
	}}
	handler := NewNodesHandler(lister)
	handler.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []nodeStatusRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Online || rows[0].Recipients != 2 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Online || !rows[1].OfflineNotified {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestNodesHandler_StoreError(t *testing.T) {
	handler := NewNodesHandler(&stubNodeLister{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestExportNodesHandler(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	lister := &stubNodeLister{list: []nodes.Node{{
		ExternalID:        "node-1",
		MonitoringEnabled: true,
		LastCheckinAt:     now.Add(-time.Minute),
	}}}

	t.Run("xlsx", func(t *testing.T) {
		handler := NewExportNodesHandler(lister, "xlsx")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/nodes.xlsx", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if !strings.Contains(resp.Header().Get("Content-Disposition"), "nodes.xlsx") {
			t.Fatalf("unexpected disposition: %s", resp.Header().Get("Content-Disposition"))
		}
		// XLSX files are zip archives.
		if !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
			t.Fatal("expected zip payload")
		}
	})

	t.Run("pdf", func(t *testing.T) {
		handler := NewExportNodesHandler(lister, "pdf")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/nodes.pdf", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
			t.Fatal("expected pdf payload")
		}
	})
}

func TestExportNodesHandler_BuildErrorSendsNoAttachmentHeaders(t *testing.T) {
	handler := NewExportNodesHandler(&stubNodeLister{}, "xlsx")
	handler.build = func([]nodes.Node, time.Time) ([]byte, error) {
		return nil, errors.New("render failed")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/nodes.xlsx", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); got != "" {
		t.Fatalf("failed export must not advertise an attachment, got %q", got)
	}
	if got := resp.Header().Get("Content-Type"); strings.Contains(got, "spreadsheet") {
		t.Fatalf("failed export must not keep the document content type, got %q", got)
	}
}
