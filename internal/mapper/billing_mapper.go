package mapper

import (
	"deckster-be/internal/entity"
	"deckster-be/internal/model"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) SubscriptionToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}

	return &entity.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		StripeSubscriptionId: s.StripeSubscriptionId,
		StripePriceId:        s.StripePriceId,
		Status:               entity.SubscriptionStatus(s.Status),
		Tier:                 entity.UserTier(s.Tier),
		BillingCycle:         entity.BillingCycle(s.BillingCycle),
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		CanceledAt:           s.CanceledAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (m *BillingMapper) SubscriptionToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}

	return &model.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		StripeSubscriptionId: s.StripeSubscriptionId,
		StripePriceId:        s.StripePriceId,
		Status:               string(s.Status),
		Tier:                 string(s.Tier),
		BillingCycle:         string(s.BillingCycle),
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		CanceledAt:           s.CanceledAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (m *BillingMapper) PaymentToEntity(p *model.Payment) *entity.Payment {
	if p == nil {
		return nil
	}

	return &entity.Payment{
		Id:              p.Id,
		UserId:          p.UserId,
		StripeInvoiceId: p.StripeInvoiceId,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          entity.PaymentStatus(p.Status),
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
	}
}

func (m *BillingMapper) PaymentToModel(p *entity.Payment) *model.Payment {
	if p == nil {
		return nil
	}

	return &model.Payment{
		Id:              p.Id,
		UserId:          p.UserId,
		StripeInvoiceId: p.StripeInvoiceId,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
		PaidAt:          p.PaidAt,
		CreatedAt:       p.CreatedAt,
	}
}
