package models

import "time"

// Card is a bingo card owned by one user
type Card struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Size          int       `json:"size"`
	HasFreeCenter bool      `json:"has_free_center"`
	IsActive      bool      `json:"is_active"`
	Theme         string    `json:"theme"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Cell is one goal slot on a card. Position is a row-major index.
type Cell struct {
	Position     int        `json:"position"`
	GoalText     string     `json:"goal_text"`
	IsCompleted  bool       `json:"is_completed"`
	IsFree       bool       `json:"is_free"`
	Category     string     `json:"category,omitempty"`
	Difficulty   int        `json:"difficulty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	PointsEarned int        `json:"points_earned"`
}

// CardWithCells bundles a card and its cells ordered by position
type CardWithCells struct {
	Card  Card
	Cells []Cell
}

// ActivityEntry is one row of the append-only activity log
type ActivityEntry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	CardID       string    `json:"card_id"`
	Position     int       `json:"position"`
	Date         string    `json:"date"`
	PointsEarned int       `json:"points_earned"`
	BingoLines   int       `json:"bingo_lines"`
	CreatedAt    time.Time `json:"created_at"`
}

// Categories lists the goal categories offered when editing a cell
var Categories = []string{
	"health",
	"learning",
	"work",
	"hobby",
	"relationships",
	"money",
	"growth",
	"other",
}

// IsValidCategory reports whether c is empty or one of Categories
func IsValidCategory(c string) bool {
	if c == "" {
		return true
	}
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Themes lists the selectable card themes
var Themes = []string{"default", "dark", "sakura", "ocean", "forest", "sunset"}

// IsValidTheme reports whether t is one of Themes
func IsValidTheme(t string) bool {
	for _, known := range Themes {
		if known == t {
			return true
		}
	}
	return false
}
