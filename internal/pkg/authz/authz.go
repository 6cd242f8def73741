// Package authz authorizes console operations with casbin. Rules live in
// the configuration file and are reloaded whenever it changes.
package authz

import (
	"context"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
)

// PolicyKey is the configuration key holding the rule lines.
const PolicyKey = "authz.policies"

// RolePrefix namespaces token roles in casbin subjects.
const RolePrefix = "role:"

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

type source interface {
	lineSource
	OnChange(fn func())
}

// NewEnforcer builds an RBAC enforcer over the rules in src and reloads
// them when src changes.
func NewEnforcer(src source) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m, NewAdapter(src, PolicyKey))
	if err != nil {
		return nil, err
	}

	src.OnChange(func() {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload authorization rules", "error", err)
			return
		}
		slog.Info("authorization rules reloaded")
	})

	return e, nil
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// Authorizer checks the caller's subject and roles against the rules.
type Authorizer struct {
	enforcer enforcer
}

func NewAuthorizer(e enforcer) *Authorizer {
	return &Authorizer{enforcer: e}
}

// Authorize returns the caller's claims when any of its subject or roles
// may perform act on obj.
func (a *Authorizer) Authorize(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.Subject == "" {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	subjects := append([]string{clm.Subject}, lo.Map(clm.Roles, func(r string, _ int) string {
		return RolePrefix + r
	})...)

	for _, sub := range subjects {
		ok, err := a.enforcer.Enforce(sub, obj, act)
		if err != nil {
			slog.ErrorContext(ctx, "failed to check authorization", "subject", sub, "error", err)
			return nil, goerror.NewServer(err)
		}
		if ok {
			return clm, nil
		}
	}

	return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
}
