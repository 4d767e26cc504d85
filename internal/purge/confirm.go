package purge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks the operator to approve a destructive step.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// Accept approves without asking.
func Accept() Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
}

// Decline refuses without asking.
func Decline() Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
}

// PromptConfirmer writes the question to Out and reads one line from In.
// Only "yes" or "y", in any case, approve. End of input declines.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
	// Echo writes the answer back to Out. Set it when In is not a terminal,
	// so piped answers show up in the transcript.
	Echo bool
}

func (p PromptConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.Out != nil {
		fmt.Fprintf(p.Out, "\n%s (yes/no): ", question)
	}
	if p.In == nil {
		return false, nil
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if p.Echo && p.Out != nil {
		fmt.Fprintln(p.Out, strings.TrimSpace(line))
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether answer is "yes" or "y", ignoring case and
// surrounding whitespace.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
