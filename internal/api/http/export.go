package apihttp

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	nodes "nodewatch/internal/nodes/domain"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// BuildNodesXLSX renders the fleet status as a spreadsheet.
func BuildNodesXLSX(list []nodes.Node, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "nodes"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Node")
	_ = f.SetCellValue(sheet, "B1", "Monitoring")
	_ = f.SetCellValue(sheet, "C1", "Last Check-in (UTC)")
	_ = f.SetCellValue(sheet, "D1", "Status")
	_ = f.SetCellValue(sheet, "E1", "Recipients")
	for i, node := range list {
		row := i + 2
		status := "online"
		if !nodeOnline(node, now) {
			status = "offline"
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), node.ExternalID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), node.MonitoringEnabled)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), node.LastCheckinAt.UTC().Format(exportTimeLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), len(node.Recipients()))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildNodesPDF renders the fleet status as a PDF report.
func BuildNodesPDF(list []nodes.Node, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Node Fleet Status")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", now.UTC().Format(exportTimeLayout)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(55, 6, "Node", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Monitoring", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Last Check-in (UTC)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, node := range list {
		monitoring := "off"
		if node.MonitoringEnabled {
			monitoring = "on"
		}
		status := "online"
		if !nodeOnline(node, now) {
			status = "offline"
		}
		pdf.CellFormat(55, 6, node.ExternalID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, monitoring, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, node.LastCheckinAt.UTC().Format(exportTimeLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, status, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportNodesHandler serves fleet status exports in xlsx or pdf form.
type ExportNodesHandler struct {
	store  NodeLister
	format string
	build  func([]nodes.Node, time.Time) ([]byte, error)
	now    func() time.Time
}

// NewExportNodesHandler constructs an ExportNodesHandler. format is
// "xlsx" or "pdf".
func NewExportNodesHandler(store NodeLister, format string) *ExportNodesHandler {
	h := &ExportNodesHandler{store: store, format: format, now: func() time.Time { return time.Now().UTC() }}
	switch format {
	case "pdf":
		h.build = BuildNodesPDF
	default:
		h.build = BuildNodesXLSX
	}
	return h
}

// ServeHTTP handles GET /api/v1/exports/nodes.{xlsx,pdf}.
func (h *ExportNodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.build == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	list, err := h.store.List(r.Context())
	if err != nil {
		http.Error(w, "query nodes error", http.StatusInternalServerError)
		return
	}

	// Attachment headers only go out once the document built.
	payload, err := h.build(list, h.now())
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	filename := "nodes.xlsx"
	if h.format == "pdf" {
		contentType = "application/pdf"
		filename = "nodes.pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}
