package dealerships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// Service exposes the dealership directory and membership confirmation.
type Service interface {
	ConfirmMembership(ctx context.Context, input ConfirmMembershipInput) (*models.DealershipMembership, error)
	ListMemberships(ctx context.Context, actor types.Actor, dealershipID uuid.UUID) ([]models.DealershipMembership, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dealership, error)
}

// ConfirmMembershipInput carries the confirmation request.
type ConfirmMembershipInput struct {
	Actor        types.Actor
	DealershipID uuid.UUID
	MembershipID uuid.UUID
}

type service struct {
	repo Repository
}

// NewService builds a dealership service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dealerships repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ConfirmMembership(ctx context.Context, input ConfirmMembershipInput) (*models.DealershipMembership, error) {
	if !input.Actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	if input.MembershipID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "membership id required")
	}

	membership, err := s.repo.FindMembership(ctx, input.MembershipID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	if membership.DealershipID != input.DealershipID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	if membership.Status == enums.MembershipStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "membership already confirmed")
	}
	if membership.Status == enums.MembershipStatusRevoked {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "membership has been revoked")
	}

	now := time.Now().UTC()
	membership.Status = enums.MembershipStatusConfirmed
	membership.ConfirmedByUserID = &input.Actor.UserID
	membership.ConfirmedAt = &now
	if err := s.repo.UpdateMembership(ctx, membership); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
	}
	return membership, nil
}

func (s *service) ListMemberships(ctx context.Context, actor types.Actor, dealershipID uuid.UUID) ([]models.DealershipMembership, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	memberships, err := s.repo.ListMemberships(ctx, dealershipID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	return memberships, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	dealership, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dealership")
	}
	return dealership, nil
}
