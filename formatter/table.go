package formatter

import (
	"io"
	"strings"
)

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

// cell is a table value. Widths are measured on text and style is applied
// after padding, so escape sequences never affect alignment.
type cell struct {
	text  string
	style func(string) string
}

type tableRow struct {
	cells   []cell
	section string // set for heading rows that span the table
}

type table struct {
	headers  []string
	aligns   []alignment
	rows     []tableRow
	noHeader bool
}

func newTable(headers ...string) *table {
	return &table{
		headers: headers,
		aligns:  make([]alignment, len(headers)),
	}
}

func (t *table) align(col int, a alignment) {
	t.aligns[col] = a
}

func (t *table) row(cells ...cell) {
	t.rows = append(t.rows, tableRow{cells: cells})
}

func (t *table) section(title string) {
	t.rows = append(t.rows, tableRow{section: title})
}

func (t *table) widths() []int {
	widths := make([]int, len(t.headers))
	if !t.noHeader {
		for i, h := range t.headers {
			widths[i] = displayWidth(h)
		}
	}
	for _, r := range t.rows {
		for i, c := range r.cells {
			widths[i] = max(widths[i], displayWidth(c.text))
		}
	}
	return widths
}

// write renders the table. Data rows are prefixed with indent; section
// headings are not indented and are styled with heading, as is the header
// row.
func (t *table) write(w io.Writer, indent string, heading func(string) string) error {
	if heading == nil {
		heading = func(s string) string { return s }
	}
	widths := t.widths()

	var buf strings.Builder
	if !t.noHeader {
		cells := make([]cell, len(t.headers))
		for i, h := range t.headers {
			cells[i] = cell{text: h, style: heading}
		}
		t.writeRow(&buf, indent, cells, widths)
	}

	for _, r := range t.rows {
		if r.section != "" {
			buf.WriteString(heading(r.section))
			buf.WriteByte('\n')
			continue
		}
		t.writeRow(&buf, indent, r.cells, widths)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func (t *table) writeRow(buf *strings.Builder, indent string, cells []cell, widths []int) {
	var line strings.Builder
	line.WriteString(indent)
	for i, c := range cells {
		if i > 0 {
			line.WriteString(strings.Repeat(" ", ColumnSpacing))
		}
		pad := strings.Repeat(" ", widths[i]-displayWidth(c.text))
		text := c.text
		if c.style != nil {
			text = c.style(text)
		}
		if t.aligns[i] == alignRight {
			line.WriteString(pad)
			line.WriteString(text)
		} else {
			line.WriteString(text)
			line.WriteString(pad)
		}
	}
	buf.WriteString(strings.TrimRight(line.String(), " "))
	buf.WriteByte('\n')
}
