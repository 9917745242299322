package report

import "fmt"

// Layout holds page geometry in millimetres. Heights of blocks are
// estimated from line counts, the same way the renderer draws them.
type Layout struct {
	PageWidth    float64
	PageHeight   float64
	Margin       float64
	FooterHeight float64
	LineHeight   float64
	RowHeight    float64
	HeadingSize  float64
	// Threshold is the cursor position past which a new page is started
	// before drawing the next block.
	Threshold float64
}

// A4 is the default portrait layout.
var A4 = Layout{
	PageWidth:    210,
	PageHeight:   297,
	Margin:       15,
	FooterHeight: 12,
	LineHeight:   6,
	RowHeight:    6,
	HeadingSize:  12,
	Threshold:    250,
}

func (l Layout) bottom() float64 { return l.PageHeight - l.Margin - l.FooterHeight }

// Placed is a block positioned on a page. Tables split across pages keep
// their headers on every part.
type Placed struct {
	Block Block
	Y     float64
}

type Page struct {
	Number int
	Blocks []Placed
	Footer string
}

func (l Layout) height(b Block) float64 {
	switch b.Kind {
	case BlockHeading:
		return l.HeadingSize
	case BlockKeyValues:
		return float64(len(b.Pairs)) * l.LineHeight
	case BlockTable:
		return l.tableHeight(len(b.Table.Rows))
	}
	return l.LineHeight
}

// tableHeight accounts for the title line and the header row.
func (l Layout) tableHeight(rows int) float64 {
	return l.LineHeight + l.RowHeight + float64(rows)*l.RowHeight + l.LineHeight/2
}

// Paginate assigns the blocks of doc to pages. The cover always sits alone
// on the first page. A block is moved to a new page when the cursor is past
// the threshold or when it does not fit; a table taller than a page is split
// by rows. Every page gets a "Página i de n" footer.
func Paginate(doc Document, l Layout) []Page {
	p := paginator{layout: l}
	p.newPage()
	for i, s := range doc.Sections {
		if i > 0 && doc.Sections[i-1].ID == SectionCover {
			p.newPage()
		}
		for j, b := range s.Blocks {
			// keep a section heading with the block that follows it
			if b.Kind == BlockHeading && j+1 < len(s.Blocks) {
				next := s.Blocks[j+1]
				need := l.height(b) + min(l.height(next), l.tableHeight(1))
				if p.y+need > l.bottom() {
					p.newPage()
				}
			}
			p.place(b)
		}
	}

	total := len(p.pages)
	stamp := FormatTimestamp(doc.GeneratedAt, doc.Location)
	for i := range p.pages {
		p.pages[i].Footer = Footer(i+1, total, stamp)
	}
	return p.pages
}

// Footer is the text drawn at the bottom of every page.
func Footer(page, total int, generated string) string {
	return fmt.Sprintf("Página %d de %d · Generado %s", page, total, generated)
}

type paginator struct {
	layout Layout
	pages  []Page
	y      float64
}

func (p *paginator) newPage() {
	p.pages = append(p.pages, Page{Number: len(p.pages) + 1})
	p.y = p.layout.Margin
}

func (p *paginator) current() *Page { return &p.pages[len(p.pages)-1] }

func (p *paginator) fresh() bool { return len(p.current().Blocks) == 0 }

func (p *paginator) put(b Block) {
	p.current().Blocks = append(p.current().Blocks, Placed{Block: b, Y: p.y})
	p.y += p.layout.height(b)
}

func (p *paginator) place(b Block) {
	l := p.layout
	if !p.fresh() && p.y > l.Threshold {
		p.newPage()
	}
	h := l.height(b)
	if p.y+h <= l.bottom() {
		p.put(b)
		return
	}
	if b.Kind != BlockTable {
		if !p.fresh() {
			p.newPage()
		}
		p.put(b)
		return
	}
	// a table that fits on an empty page is moved whole
	if l.Margin+h <= l.bottom() {
		p.newPage()
		p.put(b)
		return
	}
	p.splitTable(b.Table)
}

func (p *paginator) splitTable(t Table) {
	l := p.layout
	rows := t.Rows
	part := 0
	for len(rows) > 0 {
		fit := int((l.bottom() - p.y - l.tableHeight(0)) / l.RowHeight)
		if fit < 1 && !p.fresh() {
			p.newPage()
			continue
		}
		fit = max(fit, 1)
		fit = min(fit, len(rows))
		chunk := t
		chunk.Rows = rows[:fit]
		if part > 0 {
			chunk.Title = t.Title + " (cont.)"
		}
		p.put(Block{Kind: BlockTable, Table: chunk})
		rows = rows[fit:]
		part++
		if len(rows) > 0 {
			p.newPage()
		}
	}
}
