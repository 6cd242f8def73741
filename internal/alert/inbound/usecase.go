package inbound

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
)

type uc interface {
	Deliver(ctx context.Context, evt entity.Event)
	Subscribe(ctx context.Context, owner string) <-chan entity.Event
}

type translator interface {
	T(lang, key string) string
}
