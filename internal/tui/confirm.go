package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMsg asks the model to show a yes/no question.
type promptMsg struct {
	prompt string
}

// PromptConfirmer bridges the blocking delete confirmation to the Bubble
// Tea event loop: Confirm hands the prompt to the model and waits for the
// key the user answers with.
type PromptConfirmer struct {
	prompts chan string
	answers chan bool
}

// NewPromptConfirmer creates a confirmer with no pending question.
func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{
		prompts: make(chan string),
		answers: make(chan bool, 1),
	}
}

// Confirm blocks until the prompt was answered or ctx is done.
func (c *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	select {
	case c.prompts <- prompt:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case ok := <-c.answers:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Answer resolves the pending prompt. Extra answers are dropped.
func (c *PromptConfirmer) Answer(ok bool) {
	select {
	case c.answers <- ok:
	default:
	}
}

// waitForPrompt delivers the next prompt as a message.
func (c *PromptConfirmer) waitForPrompt() tea.Cmd {
	return func() tea.Msg {
		return promptMsg{prompt: <-c.prompts}
	}
}
