package service

import (
	"context"
	"encoding/json"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/logger"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PriceMapping resolves a Stripe price id to the tier and billing cycle it
// grants.
type PriceMapping struct {
	ProMonthlyPriceID string
	ProYearlyPriceID  string
}

type IBillingService interface {
	// HandleWebhook verifies the signature and dispatches the event. A
	// verification failure is the only error it returns; handler failures
	// are logged and swallowed so Stripe sees a 200 and does not retry
	// into the same failure forever.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type billingService struct {
	uowFactory       unitofwork.RepositoryFactory
	webhookSecret    string
	prices           PriceMapping
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewBillingService(
	uowFactory unitofwork.RepositoryFactory,
	stripeSecretKey string,
	webhookSecret string,
	prices PriceMapping,
	publisherService IPublisherService,
	log logger.ILogger,
) IBillingService {
	stripe.Key = stripeSecretKey
	return &billingService{
		uowFactory:       uowFactory,
		webhookSecret:    webhookSecret,
		prices:           prices,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	// Accounts are pinned to their own API version, which rarely matches
	// the one this library was generated against. Only the signature
	// decides whether the event is trusted.
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Error("Billing", "Stripe signature verification failed", map[string]interface{}{"error": err.Error()})
		return serverutils.NewBadRequest("Signature verification failed")
	}

	s.logger.Info("Billing", "Stripe webhook received", map[string]interface{}{"event_type": string(event.Type)})

	// Each handler is isolated: a panic or error in one event type must
	// not turn into a non-2xx after the signature already verified.
	s.dispatch(ctx, event)
	return nil
}

func (s *billingService) dispatch(ctx context.Context, event stripe.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Billing", "Webhook handler panicked", map[string]interface{}{
				"event_type": string(event.Type),
				"panic":      r,
			})
		}
	}()

	var err error
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &cs); err == nil {
			s.logger.Info("Billing", "Checkout completed", map[string]interface{}{
				"checkout_session_id": cs.ID,
				"customer_id":         customerID(cs.Customer),
			})
		}
	case "customer.subscription.created", "customer.subscription.updated":
		err = s.handleSubscriptionChange(ctx, event.Data.Raw)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event.Data.Raw)
	case "invoice.payment_succeeded":
		err = s.handleInvoice(ctx, event.Data.Raw, entity.PaymentStatusPaid)
	case "invoice.payment_failed":
		err = s.handleInvoice(ctx, event.Data.Raw, entity.PaymentStatusFailed)
	default:
		s.logger.Info("Billing", "Unhandled Stripe event", map[string]interface{}{"event_type": string(event.Type)})
	}

	if err != nil {
		s.logger.Error("Billing", "Webhook handler failed", map[string]interface{}{
			"event_type": string(event.Type),
			"error":      err.Error(),
		})
	}
}

func (s *billingService) handleSubscriptionChange(ctx context.Context, raw json.RawMessage) error {
	var ss stripe.Subscription
	if err := json.Unmarshal(raw, &ss); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.resolveUser(ctx, uow, ss.Metadata, customerID(ss.Customer))
	if err != nil {
		return err
	}

	priceId := subscriptionPriceID(&ss)
	tier, cycle := s.resolvePrice(priceId)

	var start, end time.Time
	if len(ss.Items.Data) > 0 {
		start = time.Unix(ss.Items.Data[0].CurrentPeriodStart, 0)
		end = time.Unix(ss.Items.Data[0].CurrentPeriodEnd, 0)
	}

	status := entity.SubscriptionStatus(ss.Status)
	sub := entity.Subscription{
		Id:                   uuid.New(),
		UserId:               user.Id,
		StripeSubscriptionId: ss.ID,
		StripePriceId:        priceId,
		Status:               status,
		Tier:                 tier,
		BillingCycle:         cycle,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		CancelAtPeriodEnd:    ss.CancelAtPeriodEnd,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := uow.SubscriptionRepository().Upsert(ctx, &sub); err != nil {
		return err
	}

	// The user's tier follows the subscription: free unless the status
	// actually grants access.
	previousTier := user.Tier
	if status.Grants() {
		user.Tier = tier
	} else {
		user.Tier = entity.UserTierFree
	}
	user.StripeSubscriptionId = &ss.ID
	if priceId != "" {
		user.StripePriceId = &priceId
	}
	if cid := customerID(ss.Customer); cid != "" {
		user.StripeCustomerId = &cid
	}
	if !end.IsZero() {
		user.StripeCurrentPeriodEnd = &end
	}
	user.UpdatedAt = time.Now()

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return err
	}

	if user.Tier != previousTier {
		s.publishTierChanged(ctx, user.Id, user.Tier)
	}
	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var ss stripe.Subscription
	if err := json.Unmarshal(raw, &ss); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.resolveUser(ctx, uow, ss.Metadata, customerID(ss.Customer))
	if err != nil {
		return err
	}

	now := time.Now()
	existing, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.Filter("stripe_subscription_id", ss.ID),
	)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Status = entity.SubscriptionStatusCanceled
		existing.CanceledAt = &now
		if err := uow.SubscriptionRepository().Upsert(ctx, existing); err != nil {
			return err
		}
	}

	previousTier := user.Tier
	user.Tier = entity.UserTierFree
	user.StripeSubscriptionId = nil
	user.StripePriceId = nil
	user.StripeCurrentPeriodEnd = nil
	user.UpdatedAt = now

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return err
	}

	if user.Tier != previousTier {
		s.publishTierChanged(ctx, user.Id, user.Tier)
	}
	return nil
}

func (s *billingService) handleInvoice(ctx context.Context, raw json.RawMessage, status entity.PaymentStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.resolveUser(ctx, uow, invoice.Metadata, customerID(invoice.Customer))
	if err != nil {
		return err
	}

	payment := entity.Payment{
		Id:              uuid.New(),
		UserId:          user.Id,
		StripeInvoiceId: invoice.ID,
		Amount:          invoice.AmountPaid,
		Currency:        string(invoice.Currency),
		Status:          status,
		CreatedAt:       time.Now(),
	}
	if status == entity.PaymentStatusFailed {
		payment.Amount = invoice.AmountDue
	}
	if status == entity.PaymentStatusPaid {
		paidAt := time.Now()
		if invoice.StatusTransitions != nil && invoice.StatusTransitions.PaidAt > 0 {
			paidAt = time.Unix(invoice.StatusTransitions.PaidAt, 0)
		}
		payment.PaidAt = &paidAt
	}

	// Idempotent on invoice id; replayed events are no-ops.
	return uow.PaymentRepository().CreateIfAbsent(ctx, &payment)
}

// publishTierChanged pushes the new tier onto the session event topic
// so connected clients refresh entitlements without a reload.
func (s *billingService) publishTierChanged(ctx context.Context, userId uuid.UUID, tier entity.UserTier) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(SessionEventEnvelope{
		UserId: userId,
		Type:   events.TypeTierChanged,
		Data:   map[string]interface{}{"tier": string(tier)},
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("Billing", "Failed to publish tier change", map[string]interface{}{"error": err.Error()})
	}
}

// resolveUser finds the user from webhook metadata, falling back to the
// Stripe customer id linkage.
func (s *billingService) resolveUser(ctx context.Context, uow unitofwork.UnitOfWork, metadata map[string]string, custId string) (*entity.User, error) {
	if userIdStr, ok := metadata["user_id"]; ok && userIdStr != "" {
		if user, err := s.findUserById(ctx, uow, userIdStr); err != nil || user != nil {
			return user, err
		}
	}

	if custId == "" {
		return nil, serverutils.NewBadRequest("Cannot determine user: missing metadata and customer id")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.Filter("stripe_customer_id", custId))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewNotFound("No user linked to Stripe customer " + custId)
	}
	return user, nil
}

func (s *billingService) findUserById(ctx context.Context, uow unitofwork.UnitOfWork, idStr string) (*entity.User, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, nil
	}
	return uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
}

// resolvePrice maps a Stripe price id to the tier and cycle it grants.
// Unknown prices grant nothing.
func (s *billingService) resolvePrice(priceId string) (entity.UserTier, entity.BillingCycle) {
	switch priceId {
	case s.prices.ProMonthlyPriceID:
		return entity.UserTierPro, entity.BillingCycleMonthly
	case s.prices.ProYearlyPriceID:
		return entity.UserTierPro, entity.BillingCycleYearly
	default:
		return entity.UserTierFree, entity.BillingCycleMonthly
	}
}

func subscriptionPriceID(ss *stripe.Subscription) string {
	if ss.Items != nil && len(ss.Items.Data) > 0 && ss.Items.Data[0].Price != nil {
		return ss.Items.Data[0].Price.ID
	}
	return ""
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
