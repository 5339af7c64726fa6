// Package directory resolves admin authority from a static allowlist. The
// list comes from configuration; organizers are always authorized for their
// own tournaments at the service layer, so the directory only answers for
// platform operators.
package directory

import (
	"context"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: Static implements domain.ParticipantDirectory.
var _ domain.ParticipantDirectory = (*Static)(nil)

// Static is an allowlist-backed directory.
type Static struct {
	admins map[string]struct{}
}

// NewStatic creates a directory that authorizes exactly the given actor IDs.
func NewStatic(adminIDs []string) *Static {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return &Static{admins: admins}
}

// IsAuthorized reports whether the actor is a platform operator. Operators
// hold authority over every tournament.
func (d *Static) IsAuthorized(_ context.Context, actorID, _ string) (bool, error) {
	_, ok := d.admins[actorID]
	return ok, nil
}
