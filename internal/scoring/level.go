package scoring

import "math"

// LevelProgress describes how far a total is through its current level
type LevelProgress struct {
	Level           int `json:"level"`
	Current         int `json:"current"`
	Next            int `json:"next"`
	ProgressPercent int `json:"progress_percent"`
}

// LevelFromPoints returns floor(sqrt(points/100)) + 1.
//
// Level 1: 0-99, level 2: 100-399, level 3: 400-899, ...
func LevelFromPoints(totalPoints int) int {
	if totalPoints <= 0 {
		return 1
	}
	return isqrt(totalPoints/100) + 1
}

// PointsForLevel returns the cumulative points at which level starts
func PointsForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * 100
}

// PointsForNextLevel returns the cumulative points needed to leave level
func PointsForNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * level * 100
}

// Progress reports points earned within the current level and the size of that level
func Progress(totalPoints int) LevelProgress {
	if totalPoints < 0 {
		totalPoints = 0
	}
	level := LevelFromPoints(totalPoints)
	current := totalPoints - PointsForLevel(level)
	next := PointsForLevel(level+1) - PointsForLevel(level)
	return LevelProgress{
		Level:           level,
		Current:         current,
		Next:            next,
		ProgressPercent: (current*200 + next) / (2 * next),
	}
}

// LevelTitle returns the display title for a level
func LevelTitle(level int) string {
	switch {
	case level >= 50:
		return "Legendary Achiever"
	case level >= 40:
		return "Master"
	case level >= 30:
		return "Expert"
	case level >= 20:
		return "Veteran"
	case level >= 15:
		return "Advanced"
	case level >= 10:
		return "Intermediate"
	case level >= 5:
		return "Apprentice"
	case level >= 2:
		return "Novice"
	default:
		return "Beginner"
	}
}

// isqrt returns floor(sqrt(n)) for n >= 0
func isqrt(n int) int {
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
