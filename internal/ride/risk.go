package ride

import "time"

type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
	RiskLost    RiskLevel = "lost"
)

// ClassifyRisk derives the dashboard risk level from the gap between
// the last recorded ride and today. A gap of 0-1 days is safe, 2-3
// days puts the streak in danger (the grace window is running out),
// and 4+ days means the streak is lost. With no ride ever recorded
// there is nothing at stake yet.
func ClassifyRisk(lastRideDate *time.Time, today time.Time) RiskLevel {
	if lastRideDate == nil {
		return RiskSafe
	}
	gap := gapDays(*lastRideDate, today)
	switch {
	case gap >= 4:
		return RiskLost
	case gap >= 2:
		return RiskDanger
	}
	return RiskSafe
}
