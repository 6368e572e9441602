package ride

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/wellingtonpereira12/cycling-streak/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db  db.TxQuerier
	now func() time.Time
}

func NewService(db db.TxQuerier) *Service {
	return &Service{db: db, now: time.Now}
}

// SubmitRide upserts the ride row for (user, calendar day) and, when
// the day had no prior entry, applies the streak transition:
//
//	first ride ever        -> 1
//	gap of one day         -> current + 1
//	gap of two/three days  -> current (grace period)
//	gap of four or more    -> 1
//
// Resubmitting the same day only overwrites distance/duration; the
// streak fields are left untouched. Everything runs in one transaction
// so a failure leaves both tables unchanged.
func (s *Service) SubmitRide(ctx context.Context, userID string, sub Submission) (StreakResult, error) {
	sub = sanitize(sub, s.now())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return StreakResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM rides WHERE user_id=$1 AND ride_date=$2)
	`, userID, sub.RideDate).Scan(&exists)
	if err != nil {
		return StreakResult{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (id, user_id, ride_date, distance_km, duration_seconds)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, ride_date)
		DO UPDATE SET distance_km=EXCLUDED.distance_km, duration_seconds=EXCLUDED.duration_seconds
	`, uuid.NewString(), userID, sub.RideDate, sub.DistanceKm, sub.DurationSeconds)
	if err != nil {
		return StreakResult{}, err
	}

	rec, err := loadOrCreateStreak(ctx, tx, userID)
	if err != nil {
		return StreakResult{}, err
	}

	result := StreakResult{Streak: rec.CurrentStreak, Record: rec.RecordStreak}
	if !exists {
		newStreak := nextStreak(rec.CurrentStreak, rec.LastRideDate, sub.RideDate)
		newRecord := rec.RecordStreak
		if newStreak > newRecord {
			newRecord = newStreak
		}
		_, err = tx.Exec(ctx, `
			UPDATE streaks
			SET current_streak=$2, record_streak=$3, last_ride_date=$4, updated_at=NOW()
			WHERE user_id=$1
		`, userID, newStreak, newRecord, sub.RideDate)
		if err != nil {
			return StreakResult{}, err
		}
		result = StreakResult{Streak: newStreak, Record: newRecord}
	}

	if err := tx.Commit(ctx); err != nil {
		return StreakResult{}, err
	}
	return result, nil
}

// Dashboard returns the streak record with rollup totals over the most
// recent current_streak rides, the last seven rides, and the risk level
// for today. When the streak is already lost the displayed streak is
// forced to zero even though the stored record only resets on the next
// submission.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	rec, err := s.loadStreak(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	summary := StreakSummary{
		CurrentStreak: rec.CurrentStreak,
		RecordStreak:  rec.RecordStreak,
		LastRideDate:  rec.LastRideDate,
	}
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(distance_km),0), COALESCE(SUM(duration_seconds),0)
		FROM (
			SELECT distance_km, duration_seconds
			FROM rides
			WHERE user_id=$1
			ORDER BY ride_date DESC
			LIMIT $2
		) last_rides
	`, userID, rec.CurrentStreak).Scan(&summary.TotalDistanceKm, &summary.TotalDurationSeconds)
	if err != nil {
		return Dashboard{}, err
	}

	recent, err := s.queryRides(ctx, `
		SELECT id, user_id, ride_date, distance_km, duration_seconds, created_at
		FROM rides WHERE user_id=$1
		ORDER BY ride_date DESC
		LIMIT 7
	`, userID)
	if err != nil {
		return Dashboard{}, err
	}

	risk := ClassifyRisk(rec.LastRideDate, dateOnly(s.now()))
	display := rec.CurrentStreak
	if risk == RiskLost {
		display = 0
	}

	return Dashboard{
		Streak:        summary,
		RecentRides:   recent,
		Risk:          risk,
		DisplayStreak: display,
	}, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Ride, error) {
	return s.queryRides(ctx, `
		SELECT id, user_id, ride_date, distance_km, duration_seconds, created_at
		FROM rides WHERE user_id=$1
		ORDER BY ride_date DESC
	`, userID)
}

func (s *Service) queryRides(ctx context.Context, sql, userID string) ([]Ride, error) {
	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []Ride
	for rows.Next() {
		var r Ride
		if err := rows.Scan(&r.ID, &r.UserID, &r.RideDate, &r.DistanceKm, &r.DurationSeconds, &r.CreatedAt); err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

func (s *Service) loadStreak(ctx context.Context, userID string) (StreakRecord, error) {
	rec := StreakRecord{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT current_streak, record_streak, last_ride_date
		FROM streaks WHERE user_id=$1
	`, userID).Scan(&rec.CurrentStreak, &rec.RecordStreak, &rec.LastRideDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return StreakRecord{UserID: userID}, nil
	}
	return rec, err
}

// loadOrCreateStreak lazily seeds a zeroed streak row. Registration
// already creates one, so the insert path is self-healing only.
func loadOrCreateStreak(ctx context.Context, q db.Querier, userID string) (StreakRecord, error) {
	rec := StreakRecord{UserID: userID}
	err := q.QueryRow(ctx, `
		SELECT current_streak, record_streak, last_ride_date
		FROM streaks WHERE user_id=$1
	`, userID).Scan(&rec.CurrentStreak, &rec.RecordStreak, &rec.LastRideDate)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err = q.Exec(ctx, `
			INSERT INTO streaks (id, user_id, current_streak, record_streak)
			VALUES ($1,$2,0,0)
		`, uuid.NewString(), userID)
		return StreakRecord{UserID: userID}, err
	}
	return rec, err
}

func nextStreak(current int, last *time.Time, day time.Time) int {
	if last == nil {
		return 1
	}
	switch gap := gapDays(*last, day); {
	case gap == 1:
		return current + 1
	case gap == 2 || gap == 3:
		return current
	case gap >= 4:
		return 1
	}
	return current
}

func gapDays(a, b time.Time) int {
	d := dateOnly(b).Sub(dateOnly(a))
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sanitize clamps malformed numerics and defaults the ride date to
// today; a ride write is never rejected for a bad numeric payload.
func sanitize(sub Submission, now time.Time) Submission {
	if math.IsNaN(sub.DistanceKm) || math.IsInf(sub.DistanceKm, 0) || sub.DistanceKm < 0 {
		sub.DistanceKm = 0
	}
	if sub.DurationSeconds < 0 {
		sub.DurationSeconds = 0
	}
	if sub.RideDate.IsZero() {
		sub.RideDate = now
	}
	sub.RideDate = dateOnly(sub.RideDate)
	return sub
}
