package codemod

import (
	"context"
	"fmt"
	"sync"

	"github.com/simonhull/firebird-suite/molt/internal/input"
)

// Confirmer decides whether a spec that requires confirmation is applied.
type Confirmer interface {
	Confirm(ctx context.Context, spec Spec) (bool, error)
}

// Announcer is implemented by confirmers that list the selected specs once,
// before the first one runs.
type Announcer interface {
	Announce(specs []Spec)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, spec Spec) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, spec Spec) (bool, error) {
	return f(ctx, spec)
}

var (
	// AcceptAll applies every spec without asking (--yes).
	AcceptAll Confirmer = ConfirmFunc(func(context.Context, Spec) (bool, error) { return true, nil })
	// DeclineAll skips every spec that asks for confirmation.
	DeclineAll Confirmer = ConfirmFunc(func(context.Context, Spec) (bool, error) { return false, nil })
)

// Answer is a user's reply to a codemod prompt.
type Answer int

const (
	Yes Answer = iota
	No
	All
	Cancel
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	case All:
		return "all"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Asker puts one codemod question to the user.
type Asker interface {
	Ask(ctx context.Context, spec Spec) (Answer, error)
}

// Interactive turns Asker answers into confirmations. Answering All accepts
// the current spec and every later one without asking again; Cancel stops
// the run.
type Interactive struct {
	asker Asker

	mu  sync.Mutex
	all bool
}

// NewInteractive creates an Interactive confirmer.
func NewInteractive(asker Asker) *Interactive {
	return &Interactive{asker: asker}
}

func (c *Interactive) Confirm(ctx context.Context, spec Spec) (bool, error) {
	c.mu.Lock()
	all := c.all
	c.mu.Unlock()
	if all {
		return true, nil
	}

	answer, err := c.asker.Ask(ctx, spec)
	if err != nil {
		return false, err
	}

	switch answer {
	case Yes:
		return true, nil
	case All:
		c.mu.Lock()
		c.all = true
		c.mu.Unlock()
		return true, nil
	case Cancel:
		return false, ErrCancelled
	default:
		return false, nil
	}
}

var lineOptions = []input.Option{
	{Key: "y", Label: "yes"},
	{Key: "n", Label: "no"},
	{Key: "a", Label: "all"},
	{Key: "q", Label: "quit"},
}

// LineAsker asks on a line-based reader; it is used when no terminal UI is
// available. End of input counts as Cancel.
type LineAsker struct {
	Reader *input.Reader
}

func (a LineAsker) Ask(ctx context.Context, spec Spec) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Cancel, err
	}
	msg := fmt.Sprintf("Run codemod %s (%s)?", spec.ID, spec.Description)
	i, err := a.Reader.Choose(msg, lineOptions, 0)
	if err != nil {
		return Cancel, nil
	}
	return []Answer{Yes, No, All, Cancel}[i], nil
}
