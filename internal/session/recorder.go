package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/wellingtonpereira12/cycling-streak/internal/shared/geo"
)

const (
	// Movement below ~10 meters does not count as leaving a pause.
	movementThresholdKm = 0.01
	autoPauseAfter      = 10 * time.Second
	snapshotInterval    = time.Second
)

var (
	ErrSessionActive   = errors.New("a tracking session is already active")
	ErrNoActiveSession = errors.New("no active tracking session")
)

type Snapshot struct {
	DistanceKm      float64    `json:"distance_km"`
	DurationSeconds float64    `json:"duration_seconds"`
	Path            []Position `json:"path"`
}

type Result struct {
	DistanceKm      float64    `json:"distance_km"`
	DurationSeconds int        `json:"duration_seconds"`
	Path            []Position `json:"path"`
}

// Recorder runs one live tracking session at a time. All session state
// is owned by a single event loop goroutine fed by the position stream,
// a one-second tick, and control requests, so transitions never race.
// Snapshots and pause changes go out on buffered channels; a slow
// consumer drops updates rather than stalling the loop.
type Recorder struct {
	provider  PositionProvider
	now       func() time.Time
	newTicker func(time.Duration) (<-chan time.Time, func())

	snapshots   chan Snapshot
	pauseEvents chan bool

	mu      sync.Mutex
	active  bool
	control chan controlMsg
}

type controlKind int

const (
	ctlPause controlKind = iota
	ctlResume
	ctlStop
)

type controlMsg struct {
	kind  controlKind
	reply chan Result
}

type sessionState struct {
	startTime    time.Time
	distanceKm   float64
	paused       bool
	pausedTotal  time.Duration
	pauseStart   time.Time
	lastMovement time.Time
	path         []Position
}

func NewRecorder(provider PositionProvider) *Recorder {
	return &Recorder{
		provider:    provider,
		now:         time.Now,
		newTicker:   newTicker,
		snapshots:   make(chan Snapshot, 16),
		pauseEvents: make(chan bool, 4),
	}
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Snapshots delivers a live {distance, duration, path} view on every
// tick and position batch.
func (r *Recorder) Snapshots() <-chan Snapshot { return r.snapshots }

// PauseEvents delivers the new pause state on every manual or automatic
// transition.
func (r *Recorder) PauseEvents() <-chan bool { return r.pauseEvents }

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// DiscardLingering stops a provider left running by an abnormal exit.
// The interrupted session is dropped, never resumed.
func (r *Recorder) DiscardLingering() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active || !r.provider.Active() {
		return false
	}
	r.provider.Stop()
	return true
}

// Start begins a fresh session. It fails if one is already active, or
// if the provider refuses to start (location permission denied); a
// refused start changes no state.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return ErrSessionActive
	}

	positions, err := r.provider.Start(ctx)
	if err != nil {
		return err
	}

	tick, stopTick := r.newTicker(snapshotInterval)
	now := r.now()
	st := &sessionState{startTime: now, lastMovement: now}

	r.control = make(chan controlMsg)
	r.active = true
	go r.run(st, positions, tick, stopTick)
	return nil
}

func (r *Recorder) Pause() error  { _, err := r.request(ctlPause); return err }
func (r *Recorder) Resume() error { _, err := r.request(ctlResume); return err }

// Stop synchronously cancels the tick, stops the position stream and
// returns the final result; the recorder is idle again afterwards.
// Whether the result is persisted is the caller's decision.
func (r *Recorder) Stop() (Result, error) {
	result, err := r.request(ctlStop)
	if err != nil {
		return Result{}, err
	}
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
	return result, nil
}

func (r *Recorder) request(kind controlKind) (Result, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return Result{}, ErrNoActiveSession
	}
	control := r.control
	r.mu.Unlock()

	reply := make(chan Result)
	control <- controlMsg{kind: kind, reply: reply}
	return <-reply, nil
}

func (r *Recorder) run(st *sessionState, positions <-chan []Position, tick <-chan time.Time, stopTick func()) {
	for {
		select {
		case batch, ok := <-positions:
			if !ok {
				positions = nil
				continue
			}
			r.ingest(st, batch)
			r.emit(st)
		case <-tick:
			if !st.paused && r.now().Sub(st.lastMovement) > autoPauseAfter {
				r.pause(st)
			}
			r.emit(st)
		case msg := <-r.control:
			switch msg.kind {
			case ctlPause:
				r.pause(st)
				msg.reply <- Result{}
			case ctlResume:
				r.resume(st)
				msg.reply <- Result{}
			case ctlStop:
				stopTick()
				r.provider.Stop()
				msg.reply <- r.finalize(st)
				return
			}
		}
	}
}

func (r *Recorder) ingest(st *sessionState, batch []Position) {
	for _, pos := range batch {
		if n := len(st.path); n > 0 {
			prev := st.path[n-1]
			delta := geo.HaversineKm(prev.Latitude, prev.Longitude, pos.Latitude, pos.Longitude)

			if st.paused && delta > movementThresholdKm {
				r.resume(st)
			}
			if !st.paused && delta > 0 {
				st.distanceKm += delta
				st.lastMovement = r.now()
			}
		}
		// The path trace keeps every sample, paused or not.
		st.path = append(st.path, pos)
	}
}

func (r *Recorder) pause(st *sessionState) {
	if st.paused {
		return
	}
	st.paused = true
	st.pauseStart = r.now()
	r.notifyPause(true)
}

func (r *Recorder) resume(st *sessionState) {
	if !st.paused {
		return
	}
	st.pausedTotal += r.now().Sub(st.pauseStart)
	st.pauseStart = time.Time{}
	st.paused = false
	r.notifyPause(false)
}

func (r *Recorder) emit(st *sessionState) {
	snapshot := Snapshot{
		DistanceKm:      st.distanceKm,
		DurationSeconds: st.elapsed(r.now()).Seconds(),
		Path:            append([]Position(nil), st.path...),
	}
	select {
	case r.snapshots <- snapshot:
	default:
	}
}

func (r *Recorder) notifyPause(paused bool) {
	select {
	case r.pauseEvents <- paused:
	default:
	}
}

func (r *Recorder) finalize(st *sessionState) Result {
	return Result{
		DistanceKm:      math.Round(st.distanceKm*100) / 100,
		DurationSeconds: int(st.elapsed(r.now()).Seconds()),
		Path:            st.path,
	}
}

// elapsed is the active wall-clock time: total minus every paused
// interval, including the one still running.
func (st *sessionState) elapsed(now time.Time) time.Duration {
	paused := st.pausedTotal
	if st.paused {
		paused += now.Sub(st.pauseStart)
	}
	return now.Sub(st.startTime) - paused
}
