package usecase

import (
	"context"
	"sync"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const subscriberBuffer = 10

type repoMessaging interface {
	PublishAlert(ctx context.Context, evt entity.Event) error
}

type subscriber struct {
	ch chan entity.Event
}

type Usecase struct {
	repoMessaging repoMessaging
	uid           uid.NumberID
	clock         clock.Clocker
	goroutine     *goroutine.Manager
	ins           instrument.Instrumentation

	streamMu sync.RWMutex
	streams  map[string]map[*subscriber]struct{}

	dropped *atomic.Int64
}

type Dependency struct {
	RepoMessaging repoMessaging
	UID           uid.NumberID
	Clock         clock.Clocker
	Goroutine     *goroutine.Manager
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMessaging: dep.RepoMessaging,
		uid:           dep.UID,
		clock:         dep.Clock,
		goroutine:     dep.Goroutine,
		ins:           dep.Instrument,
		streams:       make(map[string]map[*subscriber]struct{}),
		dropped:       atomic.NewInt64(0),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("alert.usecase").Start(ctx, name)
}

// Dropped counts alerts that reached no subscriber because a buffer was
// full or publishing failed.
func (s *Usecase) Dropped() int64 {
	return s.dropped.Load()
}
