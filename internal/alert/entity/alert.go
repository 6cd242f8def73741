package entity

import (
	"time"

	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityInfo
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return string(event.AlertInfo)
	case SeveritySuccess:
		return string(event.AlertSuccess)
	case SeverityError:
		return string(event.AlertError)
	default:
		return "unknown"
	}
}

// SeverityFromEvent maps the wire severity.
func SeverityFromEvent(s event.AlertSeverity) Severity {
	switch s {
	case event.AlertInfo:
		return SeverityInfo
	case event.AlertSuccess:
		return SeveritySuccess
	case event.AlertError:
		return SeverityError
	default:
		return SeverityUnknown
	}
}

// Event is a transient user-facing notice. It is delivered at most once
// and never stored.
type Event struct {
	ID        int64
	Owner     string
	Severity  Severity
	TitleKey  string
	BodyKey   string
	CreatedAt time.Time
}
