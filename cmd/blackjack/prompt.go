package main

import "github.com/pterm/pterm"

// prompter asks the player for a choice or a line of text.
type prompter interface {
	Select(text string, options []string) (string, error)
	Input(text, defaultValue string) (string, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Select(text string, options []string) (string, error) {
	return pterm.DefaultInteractiveSelect.WithDefaultText(text).WithOptions(options).Show()
}

func (ptermPrompter) Input(text, defaultValue string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultText(text).WithDefaultValue(defaultValue).Show()
}
