package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the base interface for all repositories
type Repository[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	Save(ctx context.Context, entity *T) error
}

// SchemeRepository is a repository scoped to a strata scheme
type SchemeRepository[T any] interface {
	Repository[T]
	FindByIDForScheme(ctx context.Context, schemeID, id uuid.UUID) (*T, error)
}

// DateRange is an optional inclusive date window used by balance and report
// queries. A nil From or To leaves that side unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
