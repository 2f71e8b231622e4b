package ui

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
)

// ErrNonInteractive is returned by prompts that have no default to fall
// back on when prompting is disabled.
var ErrNonInteractive = errors.New("input required but running non-interactively")

// AskFunc asks a single survey question. It matches survey.AskOne so tests
// can answer prompts without a terminal.
type AskFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

func surveyAsk(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

// SetAsk replaces the function prompts are asked through and enables
// prompting.
func (u *UI) SetAsk(ask AskFunc) {
	u.ask = ask
	u.nonInteractive = false
}

// PromptYesNo prompts the user for a yes/no answer. Non-interactively the
// default is returned.
func (u *UI) PromptYesNo(prompt string, defaultYes bool) (bool, error) {
	if u.nonInteractive {
		return defaultYes, nil
	}

	var result bool
	p := &survey.Confirm{
		Message: prompt,
		Default: defaultYes,
	}

	err := u.ask(p, &result)
	return result, err
}

// PromptInput prompts the user for text input. Non-interactively the
// default is returned.
func (u *UI) PromptInput(prompt, defaultValue string) (string, error) {
	if u.nonInteractive {
		return defaultValue, nil
	}

	var result string
	p := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}

	err := u.ask(p, &result)
	return result, err
}

// PromptInputWithValidation prompts with custom validation. Survey
// re-asks until the validator accepts. Non-interactively the default is
// validated and returned; an empty default is ErrNonInteractive.
func (u *UI) PromptInputWithValidation(prompt, defaultValue string, validator func(string) error) (string, error) {
	if u.nonInteractive {
		if defaultValue == "" {
			return "", ErrNonInteractive
		}
		if err := validator(defaultValue); err != nil {
			return "", err
		}
		return defaultValue, nil
	}

	var result string
	p := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}

	err := u.ask(p, &result, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return validator(s)
	}))
	return result, err
}
