package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shandysiswandi/iamportal/internal/alert"
	"github.com/shandysiswandi/iamportal/internal/enrollment"
	"github.com/shandysiswandi/iamportal/internal/enrollment/tui"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/spf13/cobra"
)

var code string

// runWizard opens the wizard for the token's owner and hands the terminal
// to the TUI until the user verifies or quits. Alerts stay in process.
func runWizard(cmd *cobra.Command) error {
	var v verifier
	if rt.jwt != nil {
		v = rt.jwt
	}

	clm, err := resolveClaims(v, firstNonEmpty(token, rt.config.GetString("cli.token")))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(jwt.SetAuth(cmd.Context(), clm))
	defer cancel()

	client, err := rt.backend()
	if err != nil {
		return err
	}

	bus := messaging.NewMemory()
	defer bus.Close()

	relay, err := alert.New(alert.Dependency{
		Ctx:        ctx,
		Messaging:  bus,
		Config:     rt.config,
		Instrument: rt.ins,
		UID:        rt.uid,
		UUID:       rt.uuid,
		Clock:      rt.clock,
		Goroutine:  rt.goroutine,
		Validator:  rt.validator,
		Translator: rt.translator,
	})
	if err != nil {
		return err
	}

	wizard, err := enrollment.New(enrollment.Dependency{
		Ctx:        ctx,
		Config:     rt.config,
		Backend:    client,
		Notifier:   relay,
		Instrument: rt.ins,
		UUID:       rt.uuid,
		Clock:      rt.clock,
		Goroutine:  rt.goroutine,
		Validator:  rt.validator,
		Translator: rt.translator,
	})
	if err != nil {
		return err
	}

	verified, err := tui.Run(tui.Config{
		Ctx:        ctx,
		Wizard:     wizard,
		Alerts:     relay.Subscribe(ctx, clm.Owner()),
		Translator: rt.translator,
		Lang:       rt.lang(),
		Code:       code,
	}, tea.WithAltScreen(), tea.WithContext(ctx))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if verified {
		fmt.Fprintln(out, rt.translator.T(rt.lang(), "mfa.totp.verifySuccess.body"))
		return nil
	}
	fmt.Fprintln(out, rt.translator.T(rt.lang(), "mfa.totp.notCompleted"))
	return nil
}
