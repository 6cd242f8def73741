package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/iamportal/internal/pkg/authz"
	"github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/i18n"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine  *goroutine.Manager
	validator  validator.Validator
	clock      clock.Clocker
	uid        uid.NumberID
	uuid       uid.StringID
	jwt        jwt.JWT
	translator *i18n.Translator

	// resources
	cacheConn  *redis.Client
	idemp      *idempotency.StateTracker
	messaging  messaging.Messaging
	authorizer *authz.Authorizer
	backend    *backend.Client

	// server
	router  *router.Router
	servers []namedServer

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initCache()
	app.initMessaging()
	app.initCasbin()
	app.initBackend()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
