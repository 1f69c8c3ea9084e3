package integration

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF renders the plan as a printable document.
func RenderPDF(p *Plan, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Title, false)
	pdf.SetCreator("NetScope", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(0, 51, 102)
	pdf.MultiCell(0, 9, p.Title, "", "L", false)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated: "+generatedAt.UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	paragraph(pdf, p.Summary)

	heading(pdf, "Project Overview")
	paragraph(pdf, p.Overview.Description)
	for _, h := range p.Overview.Highlights {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, h.Title, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, h.Value+"  "+h.Caption, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	bullets(pdf, "Key Objectives", p.Overview.Objectives)
	bullets(pdf, "Project Scope", p.Overview.Scope)

	heading(pdf, "Technical Requirements")
	for i, g := range p.Requirements {
		subheading(pdf, fmt.Sprintf("%d. %s", i+1, g.Title))
		for _, s := range g.Sections {
			bullets(pdf, s.Title, s.Items)
		}
	}

	heading(pdf, "Timeline & Resources")
	for _, ph := range p.Phases {
		subheading(pdf, ph.Name+" ("+ph.Timeline+")")
		numbered(pdf, ph.Tasks)
		line(pdf, "Resources: "+strings.Join(ph.Resources, ", "))
		line(pdf, "Deliverables: "+strings.Join(ph.Deliverables, ", "))
		pdf.Ln(2)
	}

	heading(pdf, "Deliverables & Success Criteria")
	for _, g := range p.Deliverables {
		bullets(pdf, g.Title, g.Items)
	}
	for _, r := range p.Reports {
		line(pdf, r.Title+": "+r.Description)
	}
	pdf.Ln(2)
	bullets(pdf, "Success Criteria", p.SuccessCriteria)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
}

func subheading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
}

func paragraph(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(0, 5, text, "", "L", false)
	pdf.Ln(2)
}

func line(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(0, 5, text, "", "L", false)
}

func bullets(pdf *gofpdf.Fpdf, title string, items []string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, it := range items {
		pdf.CellFormat(6, 5, "-", "", 0, "R", false, 0, "")
		pdf.MultiCell(0, 5, " "+it, "", "L", false)
	}
	pdf.Ln(1)
}

func numbered(pdf *gofpdf.Fpdf, items []string) {
	pdf.SetFont("Arial", "", 10)
	for i, it := range items {
		pdf.CellFormat(8, 5, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.MultiCell(0, 5, " "+it, "", "L", false)
	}
}
