// Package scoring converts completions into points and points into levels.
package scoring

import (
	"fmt"
	"math"
)

const (
	CellCompletePoints = 100
	BingoBonusPoints   = 500

	// Streak multipliers are kept in tenths so point math stays integral:
	// 1.1 at a one-day streak, +0.1 per further day, capped at 2.0.
	streakMultiplierBaseTenths = 11
	streakMultiplierMaxTenths  = 20
)

// streakMultiplierTenths returns the streak multiplier times ten
func streakMultiplierTenths(streak int) int {
	if streak <= 0 {
		return 10
	}
	if streak >= streakMultiplierMaxTenths-streakMultiplierBaseTenths+1 {
		return streakMultiplierMaxTenths
	}
	return streakMultiplierBaseTenths + (streak - 1)
}

// StreakMultiplier returns the point multiplier for a streak length
func StreakMultiplier(streak int) float64 {
	return float64(streakMultiplierTenths(streak)) / 10
}

// CellPoints returns the points for completing one cell.
// Difficulty below 1 counts as 1.
func CellPoints(difficulty, streak int) int {
	if difficulty < 1 {
		difficulty = 1
	}
	return CellCompletePoints * difficulty * streakMultiplierTenths(streak) / 10
}

// BingoBonus returns the bonus for lines completed by a single action
func BingoBonus(linesCompleted int) int {
	if linesCompleted <= 0 {
		return 0
	}
	return BingoBonusPoints * linesCompleted
}

// FormatPoints renders large totals compactly: 1234 -> "1.2K", 2500000 -> "2.5M"
func FormatPoints(points int) string {
	switch {
	case points >= 1_000_000:
		return fmt.Sprintf("%.1fM", math.Floor(float64(points)/100_000)/10)
	case points >= 1_000:
		return fmt.Sprintf("%.1fK", math.Floor(float64(points)/100)/10)
	default:
		return fmt.Sprintf("%d", points)
	}
}
