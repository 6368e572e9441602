package achievement

import (
	"context"
	"errors"

	"github.com/wellingtonpereira12/cycling-streak/internal/db"

	"github.com/jackc/pgx/v5"
)

type Achievement struct {
	Threshold   int    `json:"threshold"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// catalog is ordered by threshold; unlocking is a pure function of the
// current streak.
var catalog = []Achievement{
	{Threshold: 1, Title: "First Ride", Description: "Recorded your first activity!"},
	{Threshold: 3, Title: "Warming Up", Description: "Kept the streak for 3 days."},
	{Threshold: 7, Title: "Full Week", Description: "A whole week of focus!"},
	{Threshold: 30, Title: "Habit Formed", Description: "30 days of consistency."},
	{Threshold: 100, Title: "Riding Legend", Description: "100 days. Unstoppable."},
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// ForUser returns the catalog with unlocked flags for the user's
// current streak. A user without a streak row simply has everything
// locked.
func (s *Service) ForUser(ctx context.Context, userID string) ([]Achievement, error) {
	var streak int
	err := s.db.QueryRow(ctx, `
		SELECT current_streak FROM streaks WHERE user_id=$1
	`, userID).Scan(&streak)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return ForStreak(streak), nil
}

func ForStreak(streak int) []Achievement {
	achievements := make([]Achievement, len(catalog))
	for i, a := range catalog {
		a.Unlocked = streak >= a.Threshold
		achievements[i] = a
	}
	return achievements
}
