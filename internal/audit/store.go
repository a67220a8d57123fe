package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store persists the append-only trail. There is no update or delete;
// entries are immutable facts.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Entry, error)
}
