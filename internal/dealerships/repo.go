package dealerships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
)

// Repository is the dealership directory plus its membership ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dealership *models.Dealership) (*models.Dealership, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error)
	FindByName(ctx context.Context, name string) (*models.Dealership, error)
	CreateMembership(ctx context.Context, membership *models.DealershipMembership) (*models.DealershipMembership, error)
	FindMembership(ctx context.Context, id uuid.UUID) (*models.DealershipMembership, error)
	ListMemberships(ctx context.Context, dealershipID uuid.UUID) ([]models.DealershipMembership, error)
	UpdateMembership(ctx context.Context, membership *models.DealershipMembership) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dealerships repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, dealership *models.Dealership) (*models.Dealership, error) {
	if err := r.db.WithContext(ctx).Create(dealership).Error; err != nil {
		return nil, err
	}
	return dealership, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	var dealership models.Dealership
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dealership).Error
	if err != nil {
		return nil, err
	}
	return &dealership, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.Dealership, error) {
	var dealership models.Dealership
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dealership).Error
	if err != nil {
		return nil, err
	}
	return &dealership, nil
}

func (r *repository) CreateMembership(ctx context.Context, membership *models.DealershipMembership) (*models.DealershipMembership, error) {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

func (r *repository) FindMembership(ctx context.Context, id uuid.UUID) (*models.DealershipMembership, error) {
	var membership models.DealershipMembership
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) ListMemberships(ctx context.Context, dealershipID uuid.UUID) ([]models.DealershipMembership, error) {
	var memberships []models.DealershipMembership
	err := r.db.WithContext(ctx).
		Where("dealership_id = ?", dealershipID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repository) UpdateMembership(ctx context.Context, membership *models.DealershipMembership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}
