package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"ocs/pkg/board"
	"ocs/pkg/protocol"
)

// placeholderText is shown instead of the board when no goal is active.
const placeholderText = "Select or start a goal to see tasks"

// minColumnWidth is the narrowest a board column is rendered.
const minColumnWidth = 20

// boardColumn represents a single column in the task board.
type boardColumn struct {
	bucket board.Bucket
	tasks  []protocol.Task
}

// BoardModel renders partitioned tasks as side-by-side columns.
type BoardModel struct {
	columns []boardColumn
	width   int
}

// NewBoardModel builds the three columns from a partition. width is the
// total width available to the board; 0 selects a default.
func NewBoardModel(cols board.Columns, width int) BoardModel {
	columns := make([]boardColumn, 0, len(board.Buckets))
	for _, b := range board.Buckets {
		columns = append(columns, boardColumn{bucket: b, tasks: cols.Tasks(b)})
	}
	return BoardModel{columns: columns, width: width}
}

// columnWidth splits the board width evenly, with a floor.
func (bm BoardModel) columnWidth() int {
	if bm.width <= 0 || len(bm.columns) == 0 {
		return 30
	}
	return max(bm.width/len(bm.columns), minColumnWidth)
}

// Render renders the board columns side-by-side using lipgloss.
func (bm BoardModel) Render(theme Theme, styles Styles) string {
	colWidth := bm.columnWidth()
	// Column padding plus the card's left border and padding.
	textWidth := max(colWidth-5, 1)

	columnStyle := lipgloss.NewStyle().
		Width(colWidth).
		Padding(0, 1)

	rendered := make([]string, 0, len(bm.columns))
	for _, col := range bm.columns {
		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.BucketColor(col.bucket)).
			Width(colWidth - 2).
			Align(lipgloss.Center).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder())

		header := headerStyle.Render(fmt.Sprintf("%s (%d)", col.bucket.Title(), len(col.tasks)))

		var cards strings.Builder
		if len(col.tasks) == 0 {
			cards.WriteString(styles.Muted.Render("No tasks"))
			cards.WriteString("\n")
		}
		for _, t := range col.tasks {
			cards.WriteString(renderCard(t, textWidth, styles))
			cards.WriteString("\n")
		}

		rendered = append(rendered, columnStyle.Render(header+"\n"+cards.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderCard renders one task: title, type tag, assignee and raw status.
func renderCard(t protocol.Task, width int, styles Styles) string {
	title := t.Title
	if title == "" {
		title = t.ID
	}
	lines := []string{
		styles.CardTitle.Render(ansi.Truncate(title, width, "…")),
		styles.TypeTag.Render(ansi.Truncate("["+t.Type+"]", width, "…")),
		styles.Assignee.Render(ansi.Truncate(t.Assignee(), width, "…")),
		styles.RawStatus.Render(ansi.Truncate(t.Status, width, "…")),
	}
	return styles.Card.Render(strings.Join(lines, "\n"))
}

// renderPlaceholder renders the idle board.
func renderPlaceholder(styles Styles) string {
	return styles.Placeholder.Render(placeholderText)
}
