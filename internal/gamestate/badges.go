package gamestate

// BadgeID identifies a catalog badge
type BadgeID string

const (
	BadgeFirstStep       BadgeID = "first_step"
	BadgeFirstBingo      BadgeID = "first_bingo"
	BadgeTripleLine      BadgeID = "triple_line"
	BadgeBlackout        BadgeID = "blackout"
	BadgeWeekStreak      BadgeID = "week_streak"
	BadgeMonthStreak     BadgeID = "month_streak"
	BadgeCustomizer      BadgeID = "customizer"
	BadgeSocialButterfly BadgeID = "social_butterfly"
)

// Trigger is the rule that awards a badge
type Trigger int

const (
	TriggerFirstCell Trigger = iota
	TriggerFirstBingo
	TriggerTripleLine
	TriggerBlackout
	TriggerWeekStreak
	TriggerMonthStreak
	TriggerThemeCustomized
	TriggerFiveShares
)

const (
	tripleLineThreshold  = 3
	weekStreakThreshold  = 7
	monthStreakThreshold = 30
	sharesThreshold      = 5
)

// Badge is display metadata for a catalog entry
type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Trigger     Trigger `json:"-"`
}

// Catalog lists every badge in evaluation order
var Catalog = []Badge{
	{ID: BadgeFirstStep, Name: "First Step", Description: "Complete your first goal", Icon: "🎯", Trigger: TriggerFirstCell},
	{ID: BadgeFirstBingo, Name: "First Bingo", Description: "Complete your first line", Icon: "🎰", Trigger: TriggerFirstBingo},
	{ID: BadgeTripleLine, Name: "Triple Line", Description: "Complete three lines with one goal", Icon: "⭐", Trigger: TriggerTripleLine},
	{ID: BadgeBlackout, Name: "Blackout", Description: "Complete every goal on a card", Icon: "🏆", Trigger: TriggerBlackout},
	{ID: BadgeWeekStreak, Name: "Week Streak", Description: "Stay active 7 days in a row", Icon: "🔥", Trigger: TriggerWeekStreak},
	{ID: BadgeMonthStreak, Name: "Month Streak", Description: "Stay active 30 days in a row", Icon: "💪", Trigger: TriggerMonthStreak},
	{ID: BadgeCustomizer, Name: "Customizer", Description: "Customize a card theme", Icon: "🎨", Trigger: TriggerThemeCustomized},
	{ID: BadgeSocialButterfly, Name: "Social Butterfly", Description: "Share your card 5 times", Icon: "👥", Trigger: TriggerFiveShares},
}

// LookupBadge finds a catalog entry by id
func LookupBadge(id BadgeID) (Badge, bool) {
	for _, b := range Catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// event carries everything a trigger may look at. Counters are after the event
// unless suffixed Before.
type event struct {
	cellsBefore     int
	cells           int
	bingosBefore    int
	bingos          int
	linesThisAction int
	completionRate  int
	streak          int
	themeCustomized bool
	shares          int
}

func (t Trigger) satisfiedBy(ev event) bool {
	switch t {
	case TriggerFirstCell:
		return ev.cellsBefore == 0 && ev.cells >= 1
	case TriggerFirstBingo:
		return ev.bingosBefore == 0 && ev.bingos > 0
	case TriggerTripleLine:
		return ev.linesThisAction >= tripleLineThreshold
	case TriggerBlackout:
		return ev.completionRate == 100
	case TriggerWeekStreak:
		return ev.streak >= weekStreakThreshold
	case TriggerMonthStreak:
		return ev.streak >= monthStreakThreshold
	case TriggerThemeCustomized:
		return ev.themeCustomized
	case TriggerFiveShares:
		return ev.shares >= sharesThreshold
	}
	return false
}

// awardBadges appends every newly satisfied badge to state in catalog order and
// returns them. Badges already earned are skipped.
func awardBadges(state *GameState, ev event) []Badge {
	var earned []Badge
	for _, b := range Catalog {
		if state.HasBadge(b.ID) || !b.Trigger.satisfiedBy(ev) {
			continue
		}
		state.EarnedBadgeIDs = append(state.EarnedBadgeIDs, b.ID)
		earned = append(earned, b)
	}
	return earned
}
