package provision

import (
	"fmt"
	"sync"

	"github.com/forPelevin/ytclip/internal/types"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateChecking      State = "checking"
	StateDownloading   State = "downloading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

var transitions = map[State][]State{
	StateUninitialized: {StateChecking},
	StateChecking:      {StateDownloading, StateReady, StateFailed},
	StateDownloading:   {StateReady, StateFailed},
}

// Transition returns to if from -> to is a legal lifecycle step.
// ready and failed are terminal for the life of the process.
func Transition(from, to State) (State, error) {
	for _, s := range transitions[from] {
		if s == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("provision: illegal transition %s -> %s", from, to)
}

// SetupStatus maps a state to what the presentation layer shows.
func (s State) SetupStatus() string {
	switch s {
	case StateFailed:
		return "error"
	case StateUninitialized:
		return string(StateChecking)
	default:
		return string(s)
	}
}

// Tracker is the process wide provisioning state. It is written by the
// Provisioner only and read by every clip job.
type Tracker struct {
	mu        sync.RWMutex
	state     State
	message   string
	binPath   string
	listeners []func(types.SetupStatus)
}

func NewTracker(binPath string) *Tracker {
	return &Tracker{state: StateUninitialized, binPath: binPath}
}

// Subscribe registers fn for every later transition.
func (t *Tracker) Subscribe(fn func(types.SetupStatus)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Tracker) set(to State, msg string) error {
	t.mu.Lock()
	next, err := Transition(t.state, to)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.state = next
	t.message = msg
	ls := append(([]func(types.SetupStatus))(nil), t.listeners...)
	t.mu.Unlock()

	st := types.SetupStatus{Status: to.SetupStatus(), Message: msg}
	for _, fn := range ls {
		fn(st)
	}
	return nil
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Tracker) Ready() bool { return t.State() == StateReady }

func (t *Tracker) Status() types.SetupStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.SetupStatus{Status: t.state.SetupStatus(), Message: t.message}
}

func (t *Tracker) BinaryPath() string { return t.binPath }
