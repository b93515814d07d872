package codemod

import (
	"context"
	"errors"

	"github.com/simonhull/firebird-suite/molt/internal/logger"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// ErrCancelled is returned by a Confirmer to stop the run. Run then returns
// the results collected so far together with ErrCancelled.
var ErrCancelled = errors.New("codemods cancelled")

// Result records what happened to one selected spec.
type Result struct {
	ID string
	// Ran is true only when the transform was applied successfully.
	Ran bool
	// Declined is set when confirmation was refused.
	Declined bool
	Touched  []string
	Err      error
}

// Run selects the specs crossing (from, to] and applies them in order.
//
// A declined spec is skipped and a failing transform is recorded; neither
// stops the run. Cancellation (ErrCancelled from confirm, or ctx) stops it,
// leaving already-applied codemods in place.
func Run(ctx context.Context, specs []Spec, from, to *version.Version, ws Workspace, confirm Confirmer, log logger.Logger) ([]Result, error) {
	if log == nil {
		log = logger.NewSilent()
	}
	if confirm == nil {
		confirm = AcceptAll
	}

	selected := Select(specs, from, to)
	log.Debug("codemods selected", logger.F("count", len(selected)), logger.F("from", from), logger.F("to", to))
	if a, ok := confirm.(Announcer); ok && len(selected) > 0 {
		a.Announce(selected)
	}

	step := Step{From: from, To: to}
	results := make([]Result, 0, len(selected))

	for _, spec := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if spec.Confirm {
			ok, err := confirm.Confirm(ctx, spec)
			if err != nil {
				if errors.Is(err, ErrCancelled) {
					log.Info("codemods cancelled", logger.F("at", spec.ID))
				}
				return results, err
			}
			if !ok {
				log.Info("codemod declined", logger.F("id", spec.ID))
				results = append(results, Result{ID: spec.ID, Declined: true})
				continue
			}
		}

		touched, err := spec.Transform.Apply(ctx, ws, step)
		if err != nil {
			log.Warn("codemod failed", logger.F("id", spec.ID), logger.Err(err))
			results = append(results, Result{ID: spec.ID, Touched: touched, Err: err})
			continue
		}

		log.Info("codemod applied", logger.F("id", spec.ID), logger.F("touched", len(touched)))
		results = append(results, Result{ID: spec.ID, Ran: true, Touched: touched})
	}

	return results, nil
}

// Touched returns the union of paths touched by results, in first-seen order.
func Touched(results []Result) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, r := range results {
		for _, p := range r.Touched {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}
