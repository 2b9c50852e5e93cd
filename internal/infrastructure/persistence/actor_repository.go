package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActorRepository resolves actors and their capabilities from the actors table
type GormActorRepository struct {
	db *gorm.DB
}

// NewGormActorRepository creates a new GormActorRepository
func NewGormActorRepository(db *gorm.DB) *GormActorRepository {
	return &GormActorRepository{db: db}
}

func (r *GormActorRepository) Resolve(ctx context.Context, actorID uuid.UUID) (*identity.Actor, error) {
	var model models.ActorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", actorID).Error; err != nil {
		return nil, translateError(err, "Actor", actorID.String())
	}
	return model.ToDomain(), nil
}

// Save inserts the actor or replaces its name, active flag and capabilities
func (r *GormActorRepository) Save(ctx context.Context, actor *identity.Actor) error {
	var model models.ActorModel
	model.FromDomain(actor)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "active", "capabilities", "updated_at"}),
		}).
		Create(&model).Error
	return classify(err)
}

var _ identity.ActorRepository = (*GormActorRepository)(nil)
