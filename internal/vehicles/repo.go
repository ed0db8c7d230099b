package vehicles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
)

// Repository is the vehicle registry: customer vehicles plus the dealership
// loaner pool.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListLoaners(ctx context.Context, dealershipID uuid.UUID, availableOnly bool) ([]models.Vehicle, error)
	SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vehicles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) ListLoaners(ctx context.Context, dealershipID uuid.UUID, availableOnly bool) ([]models.Vehicle, error) {
	query := r.db.WithContext(ctx).
		Where("dealership_id = ?", dealershipID).
		Where("loaner = ?", true)
	if availableOnly {
		query = query.Where("available = ?", true)
	}
	var loaners []models.Vehicle
	if err := query.Order("created_at ASC").Find(&loaners).Error; err != nil {
		return nil, err
	}
	return loaners, nil
}

// SetAvailability flips the loaner availability flag. Callers hand in the
// open transaction when the flip must land with other writes.
func (r *repository) SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", id).
		Update("available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
