package valets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a valets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, valet *models.Valet) (*models.Valet, error) {
	if err := r.db.WithContext(ctx).Create(valet).Error; err != nil {
		return nil, err
	}
	return valet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Valet, error) {
	var valet models.Valet
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&valet).Error
	if err != nil {
		return nil, err
	}
	return &valet, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Valet, error) {
	var valet models.Valet
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&valet).Error
	if err != nil {
		return nil, err
	}
	return &valet, nil
}

func (r *repository) ExistsByOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Valet{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByCustomerWithStatus(ctx context.Context, customerID uuid.UUID, statuses []enums.ValetStatus) (*models.Valet, error) {
	var valet models.Valet
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("status IN ?", statusStrings(statuses)).
		Order("created_at DESC").
		First(&valet).Error
	if err != nil {
		return nil, err
	}
	return &valet, nil
}

func (r *repository) ListByDriverWithStatus(ctx context.Context, driverID uuid.UUID, statuses []enums.ValetStatus) ([]models.Valet, error) {
	var valets []models.Valet
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("status IN ?", statusStrings(statuses)).
		Order("created_at DESC").
		Find(&valets).Error
	if err != nil {
		return nil, err
	}
	return valets, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*ValetList, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Valet{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Valet
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &ValetList{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, nil
}

func (r *repository) Update(ctx context.Context, valet *models.Valet) error {
	return r.db.WithContext(ctx).Save(valet).Error
}

func (r *repository) CreateCheck(ctx context.Context, check *models.VehicleCheck) (*models.VehicleCheck, error) {
	if err := r.db.WithContext(ctx).Create(check).Error; err != nil {
		return nil, err
	}
	return check, nil
}

func statusStrings(statuses []enums.ValetStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
