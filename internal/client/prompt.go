package client

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user cancelled a prompt (Ctrl+C).
var ErrAborted = errors.New("client: aborted")

// Prompter asks the user for single values.
type Prompter interface {
	Input(ctx context.Context, message string) (string, error)
	Password(ctx context.Context, message string) (string, error)
}

type surveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurveyPrompter returns a terminal Prompter. The password prompt does
// not echo.
func NewSurveyPrompter(opts ...survey.AskOpt) Prompter {
	return &surveyPrompter{opts: opts}
}

func (p *surveyPrompter) Input(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	if err := survey.AskOne(&survey.Input{Message: message}, &out, p.opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (p *surveyPrompter) Password(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	if err := survey.AskOne(&survey.Password{Message: message}, &out, p.opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
