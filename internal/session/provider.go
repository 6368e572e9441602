package session

import (
	"context"
	"time"
)

type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// PositionProvider is the GPS source feeding a recorder. Start returns
// a channel of position batches, or an error when location access is
// refused; in that case no session state is touched. Active reports
// whether a previous process left the provider running.
type PositionProvider interface {
	Start(ctx context.Context) (<-chan []Position, error)
	Stop()
	Active() bool
}
