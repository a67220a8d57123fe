// Package audit records every status change an application goes through.
// The trail is append-only: read back in time order it reconstructs the
// exact path the application took through the state machine.
package audit

import (
	"time"

	"github.com/google/uuid"

	"copydesk/internal/application"
	dErrors "copydesk/pkg/domain-errors"
)

// Entry is one status change. Immutable once written. OldStatus is nil only
// for the very first entry of an application (its creation).
type Entry struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	OldStatus     *application.Status
	NewStatus     application.Status
	Remarks       string
	ChangedBy     string
	ChangedAt     time.Time
}

// VerifyChain checks the audit invariant over entries ordered by ChangedAt:
// entry[0].OldStatus is nil and entry[i+1].OldStatus equals
// entry[i].NewStatus. A violation means the trail no longer reconstructs
// the application's path and is an integrity error.
func VerifyChain(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if entries[0].OldStatus != nil {
		return dErrors.Newf(dErrors.CodeInternal,
			"audit chain broken: first entry has old status %q", *entries[0].OldStatus)
	}
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.OldStatus == nil || *cur.OldStatus != prev.NewStatus {
			return dErrors.Newf(dErrors.CodeInternal,
				"audit chain broken at entry %d: new status %q not followed by matching old status", i-1, prev.NewStatus)
		}
	}
	return nil
}
