package application

import (
	"context"

	"github.com/google/uuid"

	"copydesk/internal/sequence"
)

// Store persists applications. Implementations refresh UpdatedAt on every
// Update so no write path can forget it; that is the single funnel all
// mutations go through.
type Store interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	FindByGNumber(ctx context.Context, g sequence.GNumber) (*Application, error)
	ListByStatus(ctx context.Context, status Status) ([]*Application, error)
	Update(ctx context.Context, app *Application) error
}
