package usecase

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
)

type PinInputInput struct {
	Index int    `validate:"gte=0,lte=5"`
	Value string `validate:"max=1"`
}

// PinInput applies a value change to one pin cell.
func (s *Usecase) PinInput(ctx context.Context, in PinInputInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "PinInput")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.withPin(ctx, func(p *entity.PinPad) error {
		if err := p.Input(in.Index, in.Value); err != nil {
			return goerror.NewInvalidInput(nil, "value", err.Error())
		}
		return nil
	})
}

type PinKeyInput struct {
	Index int    `validate:"gte=0,lte=5"`
	Key   string `validate:"required"`
}

// PinKey applies a key event (Backspace, Delete) to one pin cell.
func (s *Usecase) PinKey(ctx context.Context, in PinKeyInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "PinKey")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.withPin(ctx, func(p *entity.PinPad) error {
		if err := p.Key(in.Index, entity.PinKeyFromString(in.Key)); err != nil {
			return goerror.NewInvalidInput(nil, "index", err.Error())
		}
		return nil
	})
}

func (s *Usecase) withPin(ctx context.Context, fn func(p *entity.PinPad) error) (*StateOutput, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.collectingLocked(owner)
	if err != nil {
		return nil, err
	}
	if err := fn(&sess.Pin); err != nil {
		return nil, err
	}
	s.touch(sess)

	return &StateOutput{SessionState: sess.Snapshot()}, nil
}
