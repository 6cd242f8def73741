package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
)

// Subscribe registers a stream for owner and closes it when ctx is done.
func (s *Usecase) Subscribe(ctx context.Context, owner string) <-chan entity.Event {
	sub := &subscriber{ch: make(chan entity.Event, subscriberBuffer)}

	s.streamMu.Lock()
	if s.streams[owner] == nil {
		s.streams[owner] = make(map[*subscriber]struct{})
	}
	s.streams[owner][sub] = struct{}{}
	s.streamMu.Unlock()

	go func() {
		<-ctx.Done()
		s.streamMu.Lock()
		if subs := s.streams[owner]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(s.streams, owner)
			}
		}
		close(sub.ch)
		s.streamMu.Unlock()
	}()

	return sub.ch
}

// Deliver hands evt to every local subscriber of its owner without
// blocking. Slow subscribers lose the event.
func (s *Usecase) Deliver(ctx context.Context, evt entity.Event) {
	s.streamMu.RLock()
	defer s.streamMu.RUnlock()

	subs := s.streams[evt.Owner]
	if len(subs) == 0 {
		slog.DebugContext(ctx, "alert has no local subscriber", "alert_id", evt.ID)
		return
	}

	for sub := range subs {
		select {
		case sub.ch <- evt:
		default:
			s.dropped.Inc()
			slog.WarnContext(ctx, "alert subscriber is full, event dropped", "alert_id", evt.ID)
		}
	}
}
