package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
)

// ErrReadOnly is returned by every write on the config-backed adapter.
var ErrReadOnly = errors.New("authz: policies are read only, edit the configuration file")

var _ persist.Adapter = (*Adapter)(nil)

type lineSource interface {
	GetArray(key string) []string
}

// Adapter loads casbin rules written as CSV lines ("p, role:admin, governance, *")
// from a configuration key.
type Adapter struct {
	src lineSource
	key string
}

// NewAdapter reads rules from src under key.
func NewAdapter(src lineSource, key string) *Adapter {
	return &Adapter{src: src, key: key}
}

// LoadPolicy loads every configured rule into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	for i, raw := range a.src.GetArray(a.key) {
		line := parseLine(raw)
		if len(line) < 2 {
			return fmt.Errorf("authz: rule %d in %s is malformed: %q", i, a.key, raw)
		}
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return fmt.Errorf("authz: rule %d in %s: %w", i, a.key, err)
		}
	}
	return nil
}

func parseLine(raw string) []string {
	fields := lo.Map(strings.Split(raw, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	})
	return lo.Compact(fields)
}

func (a *Adapter) SavePolicy(model.Model) error { return ErrReadOnly }

func (a *Adapter) AddPolicy(string, string, []string) error { return ErrReadOnly }

func (a *Adapter) RemovePolicy(string, string, []string) error { return ErrReadOnly }

func (a *Adapter) RemoveFilteredPolicy(string, string, int, ...string) error { return ErrReadOnly }
