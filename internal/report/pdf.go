package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// RenderPDF paginates doc with l and writes it as a PDF to w.
func RenderPDF(w io.Writer, doc Document, l Layout) error {
	pages := Paginate(doc, l)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(l.Margin, l.Margin, l.Margin)
	pdf.SetCreator("colectas", true)
	pdf.SetTitle(doc.Title+" - "+doc.Subtitle, true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r := renderer{pdf: pdf, tr: tr, layout: l}
	for _, page := range pages {
		pdf.AddPage()
		for _, placed := range page.Blocks {
			r.draw(placed)
		}
		r.footer(page.Footer)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

type renderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	layout Layout
}

func (r renderer) width() float64 { return r.layout.PageWidth - 2*r.layout.Margin }

func (r renderer) draw(p Placed) {
	l := r.layout
	pdf := r.pdf
	pdf.SetXY(l.Margin, p.Y)
	switch p.Block.Kind {
	case BlockHeading:
		pdf.SetFont(fontFamily, "B", 14)
		pdf.SetTextColor(20, 60, 110)
		pdf.CellFormat(r.width(), l.HeadingSize-2, r.tr(p.Block.Text), "B", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	case BlockText:
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(r.width(), l.LineHeight, r.tr(r.fit(p.Block.Text, r.width())), "", 0, "L", false, 0, "")
	case BlockKeyValues:
		keyW := r.width() * 0.55
		for i, kv := range p.Block.Pairs {
			y := p.Y + float64(i)*l.LineHeight
			pdf.SetXY(l.Margin, y)
			pdf.SetFont(fontFamily, "", 10)
			pdf.CellFormat(keyW, l.LineHeight, r.tr(r.fit(kv.Key, keyW)), "", 0, "L", false, 0, "")
			pdf.SetFont(fontFamily, "B", 10)
			pdf.CellFormat(r.width()-keyW, l.LineHeight, r.tr(r.fit(kv.Value, r.width()-keyW)), "", 0, "R", false, 0, "")
		}
	case BlockTable:
		r.table(p.Block.Table, p.Y)
	}
}

func (r renderer) table(t Table, y float64) {
	l := r.layout
	pdf := r.pdf
	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetXY(l.Margin, y)
	pdf.CellFormat(r.width(), l.LineHeight, r.tr(t.Title), "", 0, "L", false, 0, "")
	y += l.LineHeight

	cols := max(len(t.Headers), 1)
	colW := r.width() / float64(cols)

	pdf.SetFont(fontFamily, "B", 8)
	pdf.SetFillColor(225, 232, 242)
	pdf.SetXY(l.Margin, y)
	for _, h := range t.Headers {
		pdf.CellFormat(colW, l.RowHeight, r.tr(r.fit(h, colW)), "1", 0, "C", true, 0, "")
	}
	y += l.RowHeight

	pdf.SetFont(fontFamily, "", 8)
	for i, row := range t.Rows {
		pdf.SetXY(l.Margin, y)
		fill := i%2 == 1
		pdf.SetFillColor(245, 247, 250)
		if len(row) > 0 && row[0] == NoData {
			pdf.CellFormat(colW*float64(cols), l.RowHeight, r.tr(NoData), "1", 0, "C", false, 0, "")
			y += l.RowHeight
			continue
		}
		for _, cell := range row {
			pdf.CellFormat(colW, l.RowHeight, r.tr(r.fit(cell, colW)), "1", 0, "L", fill, 0, "")
		}
		y += l.RowHeight
	}
}

func (r renderer) footer(text string) {
	l := r.layout
	pdf := r.pdf
	pdf.SetFont(fontFamily, "I", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.SetXY(l.Margin, l.PageHeight-l.Margin-l.FooterHeight/2)
	pdf.CellFormat(r.width(), l.LineHeight, r.tr(text), "T", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// fit truncates s with an ellipsis so it fits in width at the current font.
func (r renderer) fit(s string, width float64) string {
	const pad = 2
	if r.pdf.GetStringWidth(r.tr(s))+pad <= width {
		return s
	}
	rs := []rune(s)
	for len(rs) > 0 && r.pdf.GetStringWidth(r.tr(string(rs)+"..."))+pad > width {
		rs = rs[:len(rs)-1]
	}
	return string(rs) + "..."
}
