// Package client implements the terminal front end of the dashboard.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/render"
	"github.com/atinyakov/cardash/internal/view"
)

const helpText = "Available commands: help, signup, signin, cars, exit"

// Shell is an interactive loop that drives the same views as the web pages.
type Shell struct {
	Accounts    view.AccountService
	Cars        view.CarService
	Prompt      Prompter
	ResetPolicy view.ResetPolicy
	Logger      *zap.Logger

	In  io.Reader
	Out io.Writer
}

// Run reads commands until "exit", end of input or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.In)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.Out, "cardash> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}

		var err error
		switch args[0] {
		case "help":
			fmt.Fprintln(s.Out, helpText)
		case "signup":
			err = s.submit(ctx, view.SignUp)
		case "signin":
			err = s.submit(ctx, view.SignIn)
		case "cars":
			err = s.cars(ctx)
		case "exit":
			fmt.Fprintln(s.Out, "Bye")
			return nil
		default:
			fmt.Fprintln(s.Out, "Unknown command. Type 'help' for a list of commands.")
		}

		switch {
		case errors.Is(err, ErrAborted):
			fmt.Fprintln(s.Out, "Cancelled")
		case err != nil:
			return err
		}
	}
}

func (s *Shell) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Shell) submit(ctx context.Context, kind view.FormKind) error {
	f := view.NewFormView(kind, s.Accounts,
		view.WithResetPolicy(s.ResetPolicy),
		view.WithFormLogger(s.logger()),
	)
	defer f.Unmount()

	page := render.NewFormPage(f.Snapshot())
	fmt.Fprintln(s.Out, page.Title)

	username, err := s.Prompt.Input(ctx, "Username:")
	if err != nil {
		return err
	}
	password, err := s.Prompt.Password(ctx, "Password:")
	if err != nil {
		return err
	}
	if err := f.Change(view.FieldUsername, username); err != nil {
		return err
	}
	if err := f.Change(view.FieldPassword, password); err != nil {
		return err
	}

	state, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	if state.Phase == view.Failed {
		fmt.Fprintf(s.Out, "Request failed: %v\n", state.Err)
		return nil
	}
	fmt.Fprintln(s.Out, "Request sent.")
	if len(state.Data) > 0 {
		fmt.Fprintf(s.Out, "Response: %s\n", state.Data)
	}
	return nil
}

func (s *Shell) cars(ctx context.Context) error {
	v := view.NewCarListView(s.Cars, view.WithCarListLogger(s.logger()))
	defer v.Unmount()

	fmt.Fprintln(s.Out, "Loading cars…")
	select {
	case <-v.Mount():
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := v.Snapshot()
	if snap.State.Phase == view.Failed {
		fmt.Fprintln(s.Out, "Could not load cars.")
		return nil
	}

	cards := render.Cards(snap.Cars())
	fmt.Fprintf(s.Out, "Available Cars (%d)\n", len(cards))
	for _, c := range cards {
		fmt.Fprintf(s.Out, "\n%s\n  Model: %s\n  Year: %s\n  Price: $%s\n", c.Make, c.ModelName, c.Year, c.Price)
	}
	return nil
}
