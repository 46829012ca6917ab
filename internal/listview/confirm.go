package listview

import "context"

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

var (
	// Confirmed is for callers that already collected the answer, such as
	// a form posted from a confirmation page.
	Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

	// Declined refuses every prompt.
	Declined Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
)
