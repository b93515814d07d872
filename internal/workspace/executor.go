package workspace

import (
	"context"
	"fmt"
)

// Execute validates every operation, then applies them as one transaction.
// Nothing is written when any validation fails; a failed execution restores
// the paths touched so far.
func Execute(ctx context.Context, d *Dir, ops []Operation) error {
	// Phase 1: Validate all operations
	for _, op := range ops {
		if err := op.Validate(ctx, d); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	// Phase 2: Execute
	tx := NewTransaction(d)
	for _, op := range ops {
		if err := tx.Apply(ctx, op); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("execution failed: %s: %w (rollback: %v)", op.Description(), err, rbErr)
			}
			return fmt.Errorf("execution failed: %s: %w", op.Description(), err)
		}
	}
	tx.Commit()

	return nil
}

// Apply executes ops as one transaction.
func (d *Dir) Apply(ctx context.Context, ops []Operation) error {
	return Execute(ctx, d, ops)
}
