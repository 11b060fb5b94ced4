// Package analytics derives progress reports from a card's cells, the
// player's activity days and the completion activity log.
package analytics

import (
	"sort"
	"time"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
)

// UncategorizedLabel is the category reported for goals without one
const UncategorizedLabel = "other"

// CategoryStat is completion of one category's goals on a card
type CategoryStat struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Rate      int    `json:"rate"`
}

// Day is one calendar day of the activity log
type Day struct {
	Date        string `json:"date"`
	Completions int    `json:"completions"`
	Points      int    `json:"points"`
	BingoLines  int    `json:"bingo_lines"`
}

// Week is a Sunday-to-Saturday week. Days[i] is set when the player was
// active on the i-th day of the week.
type Week struct {
	Start       string  `json:"start"`
	ActiveDays  int     `json:"active_days"`
	Days        [7]bool `json:"days"`
	Completions int     `json:"completions"`
	Points      int     `json:"points"`
}

// Month counts active days in one calendar month, e.g. "2026-03"
type Month struct {
	Month      string `json:"month"`
	ActiveDays int    `json:"active_days"`
}

// YearReport summarizes the player's activity days in one year
type YearReport struct {
	Year                  int    `json:"year"`
	ActiveDays            int    `json:"active_days"`
	MostActiveMonth       string `json:"most_active_month,omitempty"`
	MostActiveMonthDays   int    `json:"most_active_month_days"`
	MostActiveWeekday     string `json:"most_active_weekday,omitempty"`
	MostActiveWeekdayDays int    `json:"most_active_weekday_days"`
	ElapsedDays           int    `json:"elapsed_days"`
	TotalDays             int    `json:"total_days"`
	YearProgress          int    `json:"year_progress"`
}

// Categories reports completion per category for the goals on a card, most
// goals first. Free cells and cells without a goal are not counted.
func Categories(cells []models.Cell) []CategoryStat {
	byCategory := map[string]*CategoryStat{}
	for _, c := range cells {
		if c.IsFree || c.GoalText == "" {
			continue
		}
		name := c.Category
		if name == "" {
			name = UncategorizedLabel
		}
		st, ok := byCategory[name]
		if !ok {
			st = &CategoryStat{Category: name}
			byCategory[name] = st
		}
		st.Total++
		if c.IsCompleted {
			st.Completed++
		}
	}

	stats := make([]CategoryStat, 0, len(byCategory))
	for _, st := range byCategory {
		st.Rate = percent(st.Completed, st.Total)
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return categoryRank(stats[i].Category) < categoryRank(stats[j].Category)
	})
	return stats
}

func categoryRank(name string) int {
	for i, c := range models.Categories {
		if c == name {
			return i
		}
	}
	return len(models.Categories)
}

// Daily returns one entry per day for the n days ending on today, oldest
// first. Days without activity are present with zero counts.
func Daily(entries []models.ActivityEntry, today string, n int) []Day {
	end, err := time.Parse(gamestate.DateLayout, today)
	if err != nil || n <= 0 {
		return []Day{}
	}

	days := make([]Day, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		date := end.AddDate(0, 0, i-n+1).Format(gamestate.DateLayout)
		days[i] = Day{Date: date}
		index[date] = i
	}
	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			continue
		}
		days[i].Completions++
		days[i].Points += e.PointsEarned
		days[i].BingoLines += e.BingoLines
	}
	return days
}

// WeekStart returns the Sunday on or before day
func WeekStart(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// Weekly returns the n weeks ending with the week of today, oldest first.
// Active days come from activityDates; completions and points from entries.
func Weekly(activityDates []string, entries []models.ActivityEntry, today string, n int) []Week {
	end, err := time.Parse(gamestate.DateLayout, today)
	if err != nil || n <= 0 {
		return []Week{}
	}
	first := WeekStart(end).AddDate(0, 0, -7*(n-1))

	weeks := make([]Week, n)
	for w := range weeks {
		weeks[w].Start = first.AddDate(0, 0, 7*w).Format(gamestate.DateLayout)
	}
	locate := func(date string) (w, d int, ok bool) {
		t, err := time.Parse(gamestate.DateLayout, date)
		if err != nil || t.Before(first) {
			return 0, 0, false
		}
		offset := int(t.Sub(first).Hours() / 24)
		if offset >= 7*n {
			return 0, 0, false
		}
		return offset / 7, offset % 7, true
	}

	for _, date := range activityDates {
		if w, d, ok := locate(date); ok && !weeks[w].Days[d] {
			weeks[w].Days[d] = true
			weeks[w].ActiveDays++
		}
	}
	for _, e := range entries {
		if w, _, ok := locate(e.Date); ok {
			weeks[w].Completions++
			weeks[w].Points += e.PointsEarned
		}
	}
	return weeks
}

// Monthly counts active days in each month of year
func Monthly(activityDates []string, year int) []Month {
	months := make([]Month, 12)
	for i := range months {
		months[i].Month = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	}
	for _, date := range activityDates {
		t, err := time.Parse(gamestate.DateLayout, date)
		if err != nil || t.Year() != year {
			continue
		}
		months[t.Month()-1].ActiveDays++
	}
	return months
}

// Annual summarizes year as seen on today. Ties for the most active month
// or weekday go to the earlier one.
func Annual(activityDates []string, year int, today string) YearReport {
	r := YearReport{Year: year}

	r.TotalDays = 365
	if isLeap(year) {
		r.TotalDays = 366
	}
	if now, err := time.Parse(gamestate.DateLayout, today); err == nil {
		switch {
		case now.Year() > year:
			r.ElapsedDays = r.TotalDays
		case now.Year() == year:
			r.ElapsedDays = now.YearDay()
		}
	}
	r.YearProgress = percent(r.ElapsedDays, r.TotalDays)

	var perMonth [12]int
	var perWeekday [7]int
	seen := map[string]bool{}
	for _, date := range activityDates {
		t, err := time.Parse(gamestate.DateLayout, date)
		if err != nil || t.Year() != year || seen[date] {
			continue
		}
		seen[date] = true
		r.ActiveDays++
		perMonth[t.Month()-1]++
		perWeekday[t.Weekday()]++
	}
	if r.ActiveDays == 0 {
		return r
	}

	best := 0
	for m := range perMonth {
		if perMonth[m] > perMonth[best] {
			best = m
		}
	}
	r.MostActiveMonth = time.Month(best + 1).String()
	r.MostActiveMonthDays = perMonth[best]

	best = 0
	for d := range perWeekday {
		if perWeekday[d] > perWeekday[best] {
			best = d
		}
	}
	r.MostActiveWeekday = time.Weekday(best).String()
	r.MostActiveWeekdayDays = perWeekday[best]
	return r
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// percent returns part/whole*100 rounded to the nearest integer; 0 for an empty whole
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}
