// Package bingo holds the grid geometry and line evaluation for bingo cards.
package bingo

import (
	"errors"

	"goalbingo/internal/models"
)

const (
	MinSize = 3
	MaxSize = 9
)

// ErrOutOfRange is returned when a size, position or coordinate falls outside the grid
var ErrOutOfRange = errors.New("bingo: out of range")

// Coords is a zero-based row/column pair
type Coords struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ValidSize reports whether size is a supported grid side
func ValidSize(size int) bool {
	return size >= MinSize && size <= MaxSize
}

// TotalLines returns the number of scoring lines on a grid: every row, every column and both diagonals
func TotalLines(size int) int {
	return 2*size + 2
}

// RowPositions returns the positions of row, left to right
func RowPositions(size, row int) []int {
	positions := make([]int, size)
	for col := 0; col < size; col++ {
		positions[col] = row*size + col
	}
	return positions
}

// ColumnPositions returns the positions of col, top to bottom
func ColumnPositions(size, col int) []int {
	positions := make([]int, size)
	for row := 0; row < size; row++ {
		positions[row] = row*size + col
	}
	return positions
}

// Diagonals returns the main (top-left to bottom-right) and anti (top-right to bottom-left) diagonals
func Diagonals(size int) (main, anti []int) {
	main = make([]int, size)
	anti = make([]int, size)
	for i := 0; i < size; i++ {
		main[i] = i*size + i
		anti[i] = i*size + (size - 1 - i)
	}
	return main, anti
}

// PositionToCoords converts a row-major position into row/column
func PositionToCoords(position, size int) (Coords, error) {
	if size <= 0 || position < 0 || position >= size*size {
		return Coords{}, ErrOutOfRange
	}
	return Coords{Row: position / size, Col: position % size}, nil
}

// CoordsToPosition converts row/column into a row-major position
func CoordsToPosition(row, col, size int) (int, error) {
	if size <= 0 || row < 0 || col < 0 || row >= size || col >= size {
		return 0, ErrOutOfRange
	}
	return row*size + col, nil
}

// FreeCenterPosition returns the centre position of an odd-sized grid.
// Even grids have no centre cell.
func FreeCenterPosition(size int) (int, bool) {
	if size <= 0 || size%2 == 0 {
		return 0, false
	}
	return (size * size) / 2, true
}

// NewCells lays out an empty card. When freeCenter is set and the grid has a
// centre, that cell is created free and already completed.
func NewCells(size int, freeCenter bool) []models.Cell {
	center, hasCenter := FreeCenterPosition(size)
	cells := make([]models.Cell, size*size)
	for i := range cells {
		free := freeCenter && hasCenter && i == center
		cells[i] = models.Cell{
			Position:    i,
			IsCompleted: free,
			IsFree:      free,
			Difficulty:  1,
		}
	}
	return cells
}
