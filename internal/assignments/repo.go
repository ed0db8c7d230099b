package assignments

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

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assign *models.AssignedOrder) (*models.AssignedOrder, error) {
	if err := r.db.WithContext(ctx).Create(assign).Error; err != nil {
		return nil, err
	}
	return assign, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AssignedOrder, error) {
	var assign models.AssignedOrder
	err := r.db.WithContext(ctx).
		Preload("Drivers").
		Where("id = ?", id).
		First(&assign).Error
	if err != nil {
		return nil, err
	}
	return &assign, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error) {
	var assign models.AssignedOrder
	err := r.db.WithContext(ctx).
		Preload("Drivers").
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&assign).Error
	if err != nil {
		return nil, err
	}
	return &assign, nil
}

func (r *repository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error) {
	var assign models.AssignedOrder
	err := r.db.WithContext(ctx).
		Preload("Drivers").
		Where("order_id = ?", orderID).
		Where("status IN ?", statusStrings(enums.ActiveAssignStatuses)).
		First(&assign).Error
	if err != nil {
		return nil, err
	}
	return &assign, nil
}

func (r *repository) ExistsByOrderWithStatus(ctx context.Context, orderID uuid.UUID, statuses []enums.AssignStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssignedOrder{}).
		Where("order_id = ?", orderID).
		Where("status IN ?", statusStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, assign *models.AssignedOrder) error {
	return r.db.WithContext(ctx).Omit("Drivers").Save(assign).Error
}

// ReplaceDrivers swaps the candidate set, used when an accept narrows the
// assignment down to the claiming driver.
func (r *repository) ReplaceDrivers(ctx context.Context, assignID uuid.UUID, driverIDs []uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("assign_id = ?", assignID).Delete(&models.AssignmentDriver{}).Error; err != nil {
		return err
	}
	if len(driverIDs) == 0 {
		return nil
	}
	rows := make([]models.AssignmentDriver, 0, len(driverIDs))
	for _, driverID := range driverIDs {
		rows = append(rows, models.AssignmentDriver{AssignID: assignID, DriverID: driverID})
	}
	return conn.Create(&rows).Error
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*AssignedOrderList, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.AssignedOrder{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.DriverID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&models.AssignmentDriver{}).
				Select("assign_id").
				Where("driver_id = ?", *filters.DriverID),
		)
	}
	if filters.DealershipID != nil {
		query = query.Where("dealership_id = ?", *filters.DealershipID)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(filters.Statuses))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.AssignedOrder
	err := query.
		Preload("Drivers").
		Order("assign_date DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &AssignedOrderList{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, nil
}

func statusStrings(statuses []enums.AssignStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
