package entity

import "time"

// Phase is the wizard phase as seen by clients.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseCollectingCode
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseCollectingCode:
		return "collecting_code"
	case PhaseVerified:
		return "verified"
	default:
		return "closed"
	}
}

// Step is the verification step inside an open wizard.
type Step int

const (
	StepAwaitingCode Step = iota
	StepVerifying
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepVerifying:
		return "verifying"
	case StepDone:
		return "done"
	default:
		return "awaiting_code"
	}
}

// LastErrorInvalidCode is the translation key set after a rejected code.
const LastErrorInvalidCode = "mfa.totp.invalidCode"

// Session is one owner's enrollment wizard.
type Session struct {
	ID            string
	Owner         string
	ScannableCode string
	Step          Step
	LastError     string
	Pin           PinPad

	// Epoch identifies this incarnation of the wizard. Responses carrying
	// an older epoch are discarded.
	Epoch uint64
	// Pending is set while a remote call is in flight.
	Pending bool
	// Opened is false while the initial code is still being fetched.
	Opened bool

	OpenedAt  time.Time
	TouchedAt time.Time
}

// Phase derives the wizard phase. A nil session is closed.
func (s *Session) Phase() Phase {
	switch {
	case s == nil || !s.Opened:
		return PhaseClosed
	case s.Step == StepDone:
		return PhaseVerified
	default:
		return PhaseCollectingCode
	}
}

// Snapshot copies what clients may see.
func (s *Session) Snapshot() SessionState {
	if s == nil {
		return SessionState{Phase: PhaseClosed}
	}

	return SessionState{
		Phase:         s.Phase(),
		Step:          s.Step,
		ScannableCode: s.ScannableCode,
		LastError:     s.LastError,
		Focus:         s.Pin.Focus(),
		Cells:         s.Pin.Cells(),
		Pending:       s.Pending,
	}
}

// SessionState is a read-only view of a Session.
type SessionState struct {
	Phase         Phase
	Step          Step
	ScannableCode string
	LastError     string
	Focus         int
	Cells         [PinLength]string
	Pending       bool
}
