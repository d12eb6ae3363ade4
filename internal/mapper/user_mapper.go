package mapper

import (
	"deckster-be/internal/entity"
	"deckster-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}

	return &entity.User{
		Id:                     u.Id,
		Email:                  u.Email,
		Name:                   u.Name,
		Image:                  u.Image,
		Role:                   entity.UserRole(u.Role),
		Tier:                   entity.UserTier(u.Tier),
		Approved:               u.Approved,
		ApprovedAt:             u.ApprovedAt,
		ApprovedBy:             u.ApprovedBy,
		StripeCustomerId:       u.StripeCustomerId,
		StripeSubscriptionId:   u.StripeSubscriptionId,
		StripePriceId:          u.StripePriceId,
		StripeCurrentPeriodEnd: u.StripeCurrentPeriodEnd,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}

	return &model.User{
		Id:                     u.Id,
		Email:                  u.Email,
		Name:                   u.Name,
		Image:                  u.Image,
		Role:                   string(u.Role),
		Tier:                   string(u.Tier),
		Approved:               u.Approved,
		ApprovedAt:             u.ApprovedAt,
		ApprovedBy:             u.ApprovedBy,
		StripeCustomerId:       u.StripeCustomerId,
		StripeSubscriptionId:   u.StripeSubscriptionId,
		StripePriceId:          u.StripePriceId,
		StripeCurrentPeriodEnd: u.StripeCurrentPeriodEnd,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}
