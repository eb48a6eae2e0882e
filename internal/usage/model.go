package usage

import "time"

// Tiers and their monthly query allowances.
const (
	TierFree = "free"
	TierPro  = "pro"

	FreeMonthlyLimit = 20
	ProMonthlyLimit  = 500
)

// Usage tracks one user's query consumption in the current calendar month.
type Usage struct {
	UserID      string
	Tier        string
	Limit       int
	Used        int
	PeriodStart time.Time
}

// Remaining reports how many queries the user has left this month.
func (u Usage) Remaining() int {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// LimitForTier maps a tier to its monthly allowance.
func LimitForTier(tier string) int {
	if tier == TierPro {
		return ProMonthlyLimit
	}
	return FreeMonthlyLimit
}

// periodStart truncates a time to the first instant of its month, UTC.
func periodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
