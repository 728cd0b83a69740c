package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

type cellStyle int

const (
	stylePlain cellStyle = iota
	styleGrid
	styleHeader
	styleToday
	styleCursor
	styleOpen
	styleInProgress
	styleComplete
	styleBlocked
)

var cellStyles = map[cellStyle]lipgloss.Style{
	styleGrid:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	styleHeader:     lipgloss.NewStyle().Bold(true),
	styleToday:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
	styleCursor:     lipgloss.NewStyle().Reverse(true),
	styleOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("33")),
	styleInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")),
	styleComplete:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("35")),
	styleBlocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
)

func barStyle(status constants.WorkOrderStatus) cellStyle {
	switch status {
	case constants.StatusInProgress:
		return styleInProgress
	case constants.StatusComplete:
		return styleComplete
	case constants.StatusBlocked:
		return styleBlocked
	default:
		return styleOpen
	}
}

type cell struct {
	r     rune
	style cellStyle
}

// renderCells writes runs of equally styled cells
func renderCells(cells []cell) string {
	var sb strings.Builder
	for i := 0; i < len(cells); {
		j := i
		var run []rune
		for j < len(cells) && cells[j].style == cells[i].style {
			run = append(run, cells[j].r)
			j++
		}
		if cells[i].style == stylePlain {
			sb.WriteString(string(run))
		} else {
			sb.WriteString(cellStyles[cells[i].style].Render(string(run)))
		}
		i = j
	}
	return sb.String()
}

// fit pads or truncates s to exactly n runes
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > n {
		if n == 1 {
			return "…"
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

func (m *Model) View() string {
	if !m.mounted || m.width == 0 {
		return "Loading timeline…"
	}

	units := m.ctrl.Units()
	cc := m.opts.ColumnCells
	px := m.pxPerCell()
	firstCell := int(m.scroll.offset / px)
	grid := m.gridCells()
	left := m.leftCells()
	cursorCol := m.cursorColumn()
	currentCol := m.ctrl.CurrentUnitColumn(m.opts.Now())

	var sb strings.Builder

	// title
	cursorLabel := ""
	if cursorCol >= 1 {
		cursorLabel = units[cursorCol-1].Label
	}
	title := fmt.Sprintf("Shop timeline  %s  cursor %s", m.ctrl.State().Scale, cursorLabel)
	sb.WriteString(titleStyle.Render(fit(title, min(len(title), m.width))))
	if m.status != "" && m.width > len(title)+2 {
		sb.WriteString("  " + statusStyle.Render(fit(m.status, m.width-len(title)-2)))
	}
	sb.WriteString("\n")

	// timescale header
	header := make([]cell, grid)
	for x := range header {
		abs := firstCell + x
		col, within := abs/cc, abs%cc
		header[x] = cell{r: ' ', style: stylePlain}
		if col >= len(units) {
			continue
		}
		if within == 0 {
			header[x] = cell{r: '│', style: styleGrid}
			continue
		}
		label := []rune(units[col].Label)
		if within-1 < len(label) {
			style := styleHeader
			if col+1 == currentCol {
				style = styleToday
			}
			header[x] = cell{r: label[within-1], style: style}
		}
	}
	sb.WriteString(nameStyle.Render(fit("Work Center", left-1)) + "│" + renderCells(header) + "\n")

	// rows
	positions := m.ctrl.PositionedOrdersByRow(m.board)
	last := min(m.firstRow+m.visibleRows(), m.board.Len())
	for i := m.firstRow; i < last; i++ {
		wc, ok := m.board.Row(i)
		name := "…"
		if ok {
			name = wc.Name
		}
		if i == m.cursorRow {
			name = nameStyle.Render(fit(name, left-1))
		} else {
			name = fit(name, left-1)
		}

		cells := make([]cell, grid)
		for x := range cells {
			if (firstCell+x)%cc == 0 {
				cells[x] = cell{r: '┊', style: styleGrid}
			} else {
				cells[x] = cell{r: ' ', style: stylePlain}
			}
		}
		if ok {
			for _, p := range positions[wc.ID] {
				m.drawBar(cells, firstCell, p)
			}
		}
		if i == m.cursorRow && cursorCol >= 1 {
			for abs := (cursorCol - 1) * cc; abs < cursorCol*cc; abs++ {
				if x := abs - firstCell; x >= 0 && x < len(cells) {
					cells[x].style = styleCursor
				}
			}
		}
		sb.WriteString(name + "│" + renderCells(cells) + "\n")
	}
	for i := last - m.firstRow; i < m.visibleRows(); i++ {
		sb.WriteString(strings.Repeat(" ", left-1) + "│\n")
	}

	footer := fmt.Sprintf("←→ move  ↑↓ rows  d/w/m scale  t today  n new  e status  x delete  q quit   rows %d-%d of %d",
		min(m.firstRow+1, last), last, m.board.Len())
	sb.WriteString(footerStyle.Render(fit(footer, m.width)))
	return sb.String()
}

// drawBar paints a positioned order onto the visible cells of a row
func (m *Model) drawBar(cells []cell, firstCell int, p workorder.PositionedOrder) {
	width := m.opts.Settings.Mapper.ColumnWidth
	px := m.pxPerCell()
	leftPx := float64((p.ColumnStart-1)*width + p.LeftInset)
	rightPx := float64((p.ColumnEnd-1)*width - p.RightInset)

	start := int(math.Floor(leftPx / px))
	end := max(int(math.Ceil(rightPx/px)), start+1)
	label := []rune(" " + p.Order.Name)
	style := barStyle(p.Order.Status)

	for abs := start; abs < end; abs++ {
		x := abs - firstCell
		if x < 0 || x >= len(cells) {
			continue
		}
		r := ' '
		if k := abs - start; k < len(label) && abs < end-1 {
			r = label[k]
		}
		cells[x] = cell{r: r, style: style}
	}
}
