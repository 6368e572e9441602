package achievement

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestForStreakUnlocks(t *testing.T) {
	achievements := ForStreak(7)
	unlocked := 0
	for _, a := range achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	if unlocked != 3 {
		t.Fatalf("expected 3 unlocked at streak 7, got %d", unlocked)
	}

	for _, a := range ForStreak(0) {
		if a.Unlocked {
			t.Fatalf("nothing should unlock at streak 0")
		}
	}
	for _, a := range ForStreak(100) {
		if !a.Unlocked {
			t.Fatalf("everything should unlock at streak 100")
		}
	}
}

func TestForUser(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT current_streak FROM streaks`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"current_streak"}).AddRow(3))

	svc := NewService(mock)
	achievements, err := svc.ForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if !achievements[0].Unlocked || !achievements[1].Unlocked || achievements[2].Unlocked {
		t.Fatalf("unexpected unlock state: %+v", achievements)
	}
}

func TestForUserMissingStreakRow(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT current_streak FROM streaks`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	achievements, err := svc.ForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	for _, a := range achievements {
		if a.Unlocked {
			t.Fatalf("expected everything locked")
		}
	}
}
