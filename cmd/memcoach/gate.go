package main

import (
	"context"
	"fmt"

	"memcoach/internal/domain"
)

// flagGate grants parent authority when the operator passed --as-parent.
// The terminal session is the trust boundary for a local CLI.
type flagGate struct{}

func (flagGate) Authorize(_ context.Context, action string) error {
	if asParent {
		return nil
	}
	return fmt.Errorf("action %s requires --as-parent: %w", action, domain.ErrUnauthorized)
}
