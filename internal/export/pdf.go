package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/HerbHall/netscope/internal/view"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/jung-kurt/gofpdf"
)

// EncodePDF renders a one-document network report: the health summary,
// the stat cards, the device table ordered by bandwidth, and the incidents.
func EncodePDF(snap *models.Snapshot, exportedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Network Report", false)
	pdf.SetCreator("NetScope", false)
	pdf.AddPage()

	pdfHeader(pdf, snap, exportedAt)
	pdfSummary(pdf, snap)
	pdfDevices(pdf, snap)
	pdfIncidents(pdf, snap, exportedAt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfHeader(pdf *gofpdf.Fpdf, snap *models.Snapshot, exportedAt time.Time) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 12, "Network Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated: "+exportedAt.UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Data as of: "+snap.LastUpdated.UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func colorRGB(c models.StatusColor) (r, g, b int) {
	switch c {
	case models.ColorOK:
		return 52, 199, 89
	case models.ColorWarning:
		return 255, 149, 0
	case models.ColorCritical:
		return 220, 53, 69
	}
	return 120, 120, 120
}

func pdfSummary(pdf *gofpdf.Fpdf, snap *models.Snapshot) {
	pdfSection(pdf, "Network Status")
	sum := view.Summarize(snap.NetworkStatus)

	type row struct {
		label string
		value string
		color models.StatusColor
	}
	rows := []row{
		{"Overall", sum.OverallStatus.Label(), sum.OverallStatus.Color()},
		{"Devices online", fmt.Sprintf("%d / %d (%d%%)", sum.DevicesOnline, sum.DevicesTotal, sum.DevicePercent), sum.DeviceColor},
		{"Active alerts", fmt.Sprintf("%d", sum.ActiveAlerts), sum.AlertColor},
	}
	for _, c := range view.StatCards(snap.StatusStats) {
		dir := "+"
		if !c.Up {
			dir = "-"
		}
		rows = append(rows, row{c.Title, fmt.Sprintf("%s (%s%g%%)", c.Value, dir, c.Trend), models.ColorMuted})
	}

	for _, r := range rows {
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, r.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(colorRGB(r.color))
		pdf.CellFormat(0, 7, r.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func pdfDevices(pdf *gofpdf.Fpdf, snap *models.Snapshot) {
	pdfSection(pdf, "Devices")
	if len(snap.Devices) == 0 {
		pdfEmpty(pdf, "No devices")
		return
	}

	widths := []float64{45, 32, 22, 30, 22, 22, 17}
	pdfTableHeader(pdf, widths, "Name", "IP Address", "Status", "Bandwidth", "Latency", "Loss", "Score")

	pdf.SetFont("Arial", "", 9)
	for _, d := range view.SortDevices(snap.Devices, view.SortByBandwidth) {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[0], 6, d.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, d.IPAddress, "1", 0, "L", false, 0, "")
		pdf.SetTextColor(colorRGB(d.Status.Color()))
		pdf.CellFormat(widths[2], 6, d.Status.Label(), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[3], 6, view.FormatBytes(float64(d.Bandwidth.Total()))+"/s", "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%g ms", d.LatencyMs), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%g%%", d.PacketLoss), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, fmt.Sprintf("%d", view.PerformanceScore(d)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func pdfIncidents(pdf *gofpdf.Fpdf, snap *models.Snapshot, now time.Time) {
	pdfSection(pdf, "Incidents")
	if len(snap.Incidents) == 0 {
		pdfEmpty(pdf, "No incidents")
		return
	}

	widths := []float64{70, 25, 25, 40, 30}
	pdfTableHeader(pdf, widths, "Title", "Severity", "Status", "Opened", "Device")

	pdf.SetFont("Arial", "", 9)
	for _, inc := range snap.Incidents {
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[0], 6, inc.Title, "1", 0, "L", false, 0, "")
		pdf.SetTextColor(colorRGB(inc.Severity.Color()))
		pdf.CellFormat(widths[1], 6, inc.Severity.Label(), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[2], 6, inc.Status.Label(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, view.RelativeTime(inc.Timestamp, now), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, inc.DeviceID, "1", 1, "L", false, 0, "")
	}
}

func pdfTableHeader(pdf *gofpdf.Fpdf, widths []float64, cols ...string) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func pdfEmpty(pdf *gofpdf.Fpdf, msg string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, msg, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}
