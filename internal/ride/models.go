package ride

import "time"

type Ride struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	RideDate        time.Time `json:"ride_date"`
	DistanceKm      float64   `json:"distance_km"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// StreakRecord is the authoritative per-user streak state. LastRideDate
// is nil until the first ride is ever recorded.
type StreakRecord struct {
	UserID        string     `json:"user_id"`
	CurrentStreak int        `json:"current_streak"`
	RecordStreak  int        `json:"record_streak"`
	LastRideDate  *time.Time `json:"last_ride_date,omitempty"`
}

// Submission is a sanitized ride write. A zero RideDate means today.
type Submission struct {
	DistanceKm      float64
	DurationSeconds int
	RideDate        time.Time
}

type StreakResult struct {
	Streak int `json:"streak"`
	Record int `json:"record"`
}

type StreakSummary struct {
	CurrentStreak        int        `json:"current_streak"`
	RecordStreak         int        `json:"record_streak"`
	LastRideDate         *time.Time `json:"last_ride_date,omitempty"`
	TotalDistanceKm      float64    `json:"total_distance_km"`
	TotalDurationSeconds int        `json:"total_duration_seconds"`
}

type Dashboard struct {
	Streak        StreakSummary `json:"streak"`
	RecentRides   []Ride        `json:"recent_rides"`
	Risk          RiskLevel     `json:"risk"`
	DisplayStreak int           `json:"display_streak"`
}
