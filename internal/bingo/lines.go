package bingo

import (
	"fmt"
	"sort"

	"goalbingo/internal/models"
)

// LineType distinguishes rows, columns and diagonals
type LineType string

const (
	LineRow      LineType = "row"
	LineColumn   LineType = "column"
	LineDiagonal LineType = "diagonal"
)

// Line is a derived scoring line. Diagonal index 0 is the main diagonal, 1 the anti diagonal.
type Line struct {
	Type       LineType `json:"type"`
	Index      int      `json:"index"`
	Positions  []int    `json:"cell_positions"`
	IsComplete bool     `json:"is_complete"`
}

// Key identifies the line on its card, e.g. "row-2"
func (l Line) Key() string {
	return fmt.Sprintf("%s-%d", l.Type, l.Index)
}

// Stats summarises completion on a card
type Stats struct {
	TotalCells      int `json:"total_cells"`
	CompletedCells  int `json:"completed_cells"`
	CompletionRate  int `json:"completion_rate"`
	BingoLines      int `json:"bingo_lines"`
	TotalBingoLines int `json:"total_bingo_lines"`
}

// completionMap indexes completion by position; positions missing from cells read as incomplete
func completionMap(cells []models.Cell) map[int]bool {
	m := make(map[int]bool, len(cells))
	for _, c := range cells {
		m[c.Position] = c.IsCompleted
	}
	return m
}

func allCompleted(done map[int]bool, positions []int) bool {
	for _, p := range positions {
		if !done[p] {
			return false
		}
	}
	return true
}

// EvaluateLines returns every row, then every column, then the main and anti diagonals
func EvaluateLines(cells []models.Cell, size int) []Line {
	if size <= 0 {
		return nil
	}
	done := completionMap(cells)
	lines := make([]Line, 0, TotalLines(size))

	for row := 0; row < size; row++ {
		positions := RowPositions(size, row)
		lines = append(lines, Line{Type: LineRow, Index: row, Positions: positions, IsComplete: allCompleted(done, positions)})
	}
	for col := 0; col < size; col++ {
		positions := ColumnPositions(size, col)
		lines = append(lines, Line{Type: LineColumn, Index: col, Positions: positions, IsComplete: allCompleted(done, positions)})
	}

	main, anti := Diagonals(size)
	lines = append(lines,
		Line{Type: LineDiagonal, Index: 0, Positions: main, IsComplete: allCompleted(done, main)},
		Line{Type: LineDiagonal, Index: 1, Positions: anti, IsComplete: allCompleted(done, anti)},
	)
	return lines
}

// CalculateStats counts completed cells and lines. CompletionRate is a percentage rounded half up.
// Each on-card position counts once; positions off the card are ignored.
func CalculateStats(cells []models.Cell, size int) Stats {
	total := size * size
	done := completionMap(cells)
	completed := 0
	for p := 0; p < total; p++ {
		if done[p] {
			completed++
		}
	}

	bingoLines := 0
	for _, l := range EvaluateLines(cells, size) {
		if l.IsComplete {
			bingoLines++
		}
	}

	return Stats{
		TotalCells:      total,
		CompletedCells:  completed,
		CompletionRate:  roundPercent(completed, total),
		BingoLines:      bingoLines,
		TotalBingoLines: TotalLines(size),
	}
}

// CellsToNextBingo returns the fewest cells still missing on any incomplete line,
// or 0 when every line is already complete.
func CellsToNextBingo(cells []models.Cell, size int) int {
	done := completionMap(cells)
	best := 0
	for _, l := range EvaluateLines(cells, size) {
		if l.IsComplete {
			continue
		}
		missing := 0
		for _, p := range l.Positions {
			if !done[p] {
				missing++
			}
		}
		if best == 0 || missing < best {
			best = missing
		}
	}
	return best
}

// CompletedLinePositions returns, ascending, every position that belongs to at least one complete line
func CompletedLinePositions(cells []models.Cell, size int) []int {
	seen := make(map[int]struct{})
	for _, l := range EvaluateLines(cells, size) {
		if !l.IsComplete {
			continue
		}
		for _, p := range l.Positions {
			seen[p] = struct{}{}
		}
	}

	positions := make([]int, 0, len(seen))
	for p := range seen {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	return positions
}

// roundPercent returns part/whole*100 rounded half up; 0 for an empty whole
func roundPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}
