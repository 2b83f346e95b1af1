package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SchemeEntity extends BaseEntity with the owning strata scheme. Every core
// record is scoped to a scheme; isolation between schemes is by this foreign
// key, never by locking.
type SchemeEntity struct {
	BaseEntity
	SchemeID uuid.UUID `gorm:"type:uuid;not null;index" json:"scheme_id"`
}

// NewSchemeEntity creates a new scheme-scoped entity
func NewSchemeEntity(schemeID uuid.UUID) SchemeEntity {
	return SchemeEntity{
		BaseEntity: NewBaseEntity(),
		SchemeID:   schemeID,
	}
}
