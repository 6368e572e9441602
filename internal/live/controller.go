package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wellingtonpereira12/cycling-streak/internal/ride"
	"github.com/wellingtonpereira12/cycling-streak/internal/session"
	"github.com/wellingtonpereira12/cycling-streak/internal/stream"
)

// Controller owns the live recording sessions, one per user at most.
// It feeds streamed GPS points into a session recorder, relays the
// recorder's snapshots to spectators through the hub, and on stop(save)
// submits the final result to the streak engine dated today.
type Controller struct {
	rides *ride.Service
	hub   *stream.Hub

	mu       sync.Mutex
	sessions map[string]*activeSession
}

type activeSession struct {
	recorder *session.Recorder
	provider *channelProvider
	done     chan struct{}
}

func NewController(rides *ride.Service, hub *stream.Hub) *Controller {
	return &Controller{
		rides:    rides,
		hub:      hub,
		sessions: map[string]*activeSession{},
	}
}

func (c *Controller) StartSession(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[userID]; ok {
		return session.ErrSessionActive
	}

	provider := newChannelProvider()
	recorder := session.NewRecorder(provider)
	if err := recorder.Start(ctx); err != nil {
		return err
	}

	s := &activeSession{recorder: recorder, provider: provider, done: make(chan struct{})}
	c.sessions[userID] = s
	go c.relay(userID, recorder, s.done)
	return nil
}

func (c *Controller) AddPoints(userID string, batch []session.Position) error {
	s, err := c.lookup(userID)
	if err != nil {
		return err
	}
	s.provider.Feed(batch)
	return nil
}

func (c *Controller) PauseSession(userID string) error {
	s, err := c.lookup(userID)
	if err != nil {
		return err
	}
	return s.recorder.Pause()
}

func (c *Controller) ResumeSession(userID string) error {
	s, err := c.lookup(userID)
	if err != nil {
		return err
	}
	return s.recorder.Resume()
}

// StopSession ends the user's session and returns the final result
// regardless of save; with save set it also submits the ride.
func (c *Controller) StopSession(ctx context.Context, userID string, save bool) (session.Result, error) {
	c.mu.Lock()
	s, ok := c.sessions[userID]
	if ok {
		delete(c.sessions, userID)
	}
	c.mu.Unlock()
	if !ok {
		return session.Result{}, session.ErrNoActiveSession
	}

	close(s.done)
	result, err := s.recorder.Stop()
	if err != nil {
		return session.Result{}, err
	}

	if save {
		_, err = c.rides.SubmitRide(ctx, userID, ride.Submission{
			DistanceKm:      result.DistanceKm,
			DurationSeconds: result.DurationSeconds,
		})
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (c *Controller) lookup(userID string) (*activeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[userID]
	if !ok {
		return nil, session.ErrNoActiveSession
	}
	return s, nil
}

func (c *Controller) relay(userID string, recorder *session.Recorder, done chan struct{}) {
	for {
		select {
		case snapshot := <-recorder.Snapshots():
			if payload, err := json.Marshal(snapshot); err == nil {
				c.hub.Broadcast(userID, payload)
			}
		case paused := <-recorder.PauseEvents():
			if payload, err := json.Marshal(map[string]bool{"paused": paused}); err == nil {
				c.hub.Broadcast(userID, payload)
			}
		case <-done:
			return
		}
	}
}

// channelProvider adapts the websocket point feed to the recorder's
// position provider contract.
type channelProvider struct {
	mu     sync.Mutex
	ch     chan []session.Position
	active bool
}

func newChannelProvider() *channelProvider {
	return &channelProvider{ch: make(chan []session.Position, 8)}
}

func (p *channelProvider) Start(_ context.Context) (<-chan []session.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	return p.ch, nil
}

func (p *channelProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

func (p *channelProvider) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Feed drops batches arriving after the session stopped.
func (p *channelProvider) Feed(batch []session.Position) {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if !active {
		return
	}
	select {
	case p.ch <- batch:
	default:
	}
}
