package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shandysiswandi/iamportal/internal/app"
	"github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/i18n"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	configPath string
	token      string
	lang       string
	logFile    string

	rt *runtime
)

// runtime holds what every subcommand shares once the config is loaded.
type runtime struct {
	config     *config.Viper
	ins        instrument.Instrumentation
	clock      *clock.TimeClocker
	uuid       *uid.UUID
	uid        *uid.Snowflake
	validator  *validator.V10Validator
	translator *i18n.Translator
	goroutine  *goroutine.Manager
	jwt        *jwt.Symmetric
	logOut     io.WriteCloser
}

func Execute() error {
	root := &cobra.Command{
		Use:          "enroll",
		Short:        "Enroll a TOTP authenticator for the signed-in user",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			rt = r
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", app.ConfigPath(), "path to the portal config file")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token of the signed-in user (default cli.token)")
	root.PersistentFlags().StringVar(&lang, "lang", "", "message language, en or id (default cli.lang)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs here instead of discarding them (default cli.log_file)")
	root.Flags().StringVar(&code, "code", "", "submit this six digit code as soon as the secret is shown")

	root.AddCommand(tokenCmd())
	return execute(context.Background(), root)
}

// execute runs root and releases the runtime even when the command failed,
// since cobra skips post-run hooks after an error.
func execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if rt != nil {
		err = errors.Join(err, rt.close())
		rt = nil
	}
	return err
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.NewViper(configPath)
	if err != nil {
		return nil, err
	}

	r := &runtime{config: cfg}

	// The terminal is owned by the TUI, so logs go to a file or nowhere.
	r.logOut = nopCloser{io.Discard}
	if path := firstNonEmpty(logFile, cfg.GetString("cli.log_file")); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		r.logOut = f
	}

	insCfg := app.InstrumentConfig(cfg)
	insCfg.ServiceName += "-cli"
	insCfg.LogOutput = r.logOut
	if r.ins, err = instrument.New(ctx, insCfg); err != nil {
		return nil, err
	}

	r.clock = clock.New()
	r.uuid = uid.NewUUID()
	r.goroutine = goroutine.NewManager(cfg.GetInt("app.server.max_goroutine"))

	if r.validator, err = validator.NewV10Validator(); err != nil {
		return nil, err
	}
	if r.uid, err = uid.NewSnowflake(); err != nil {
		return nil, err
	}
	if r.translator, err = i18n.New(); err != nil {
		return nil, err
	}

	// A missing or short secret only disables local verification and minting.
	r.jwt, _ = jwt.NewHS512(jwt.Config{
		Secret:    []byte(cfg.GetString("jwt.secret")),
		Issuer:    cfg.GetString("jwt.issuer"),
		Audiences: cfg.GetArray("jwt.audiences"),
		TTL:       cfg.GetMinute("jwt.ttl_minutes"),
		Clock:     r.clock,
		UUID:      r.uuid,
	})

	return r, nil
}

func (r *runtime) backend() (*backend.Client, error) {
	return backend.New(app.BackendConfig(r.config, r.ins.TracerProvider()))
}

func (r *runtime) lang() string {
	return firstNonEmpty(lang, r.config.GetString("cli.lang"), i18n.DefaultLanguage)
}

func (r *runtime) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Consumers stop with context.Canceled once the wizard exits.
	if err := r.goroutine.Wait(); err != nil {
		slog.Debug("background tasks stopped", "error", err)
	}

	return errors.Join(
		r.ins.Shutdown(ctx),
		r.config.Close(),
		r.logOut.Close(),
	)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
