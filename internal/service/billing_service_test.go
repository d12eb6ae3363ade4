package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_test_secret"

// signStripePayload computes the v1 signature scheme Stripe uses so the
// service sees a genuinely valid webhook.
func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func stripeEvent(eventType, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object,
	))
}

func newBillingFixture(t *testing.T) (IBillingService, unitofwork.RepositoryFactory, *entity.User) {
	t.Helper()
	factory := newTestFactory(t)
	svc := NewBillingService(factory, "sk_test_key", testWebhookSecret, PriceMapping{
		ProMonthlyPriceID: "price_pro_monthly",
		ProYearlyPriceID:  "price_pro_yearly",
	}, nil, nopLogger{})
	user := seedUser(t, factory)
	return svc, factory, user
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _ := newBillingFixture(t)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=deadbeef")
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)
}

func TestSubscriptionCreatedUpgradesUser(t *testing.T) {
	svc, factory, user := newBillingFixture(t)
	ctx := context.Background()

	periodStart := time.Now().Unix()
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	subscription := fmt.Sprintf(`{
		"id": "sub_123",
		"object": "subscription",
		"status": "active",
		"customer": "cus_123",
		"cancel_at_period_end": false,
		"metadata": {"user_id": %q},
		"items": {"object": "list", "data": [{
			"id": "si_1",
			"price": {"id": "price_pro_monthly"},
			"current_period_start": %d,
			"current_period_end": %d
		}]}
	}`, user.Id.String(), periodStart, periodEnd)

	payload := stripeEvent("customer.subscription.created", subscription)
	err := svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret))
	require.NoError(t, err)

	uow := factory.NewUnitOfWork(ctx)

	updated, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.UserTierPro, updated.Tier)
	require.NotNil(t, updated.StripeSubscriptionId)
	assert.Equal(t, "sub_123", *updated.StripeSubscriptionId)
	require.NotNil(t, updated.StripeCustomerId)
	assert.Equal(t, "cus_123", *updated.StripeCustomerId)

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.Filter("stripe_subscription_id", "sub_123"))
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, entity.BillingCycleMonthly, sub.BillingCycle)
}

func TestSubscriptionDeletedDowngradesUser(t *testing.T) {
	svc, factory, user := newBillingFixture(t)
	ctx := context.Background()

	created := fmt.Sprintf(`{
		"id": "sub_del",
		"object": "subscription",
		"status": "active",
		"customer": "cus_del",
		"metadata": {"user_id": %q},
		"items": {"object": "list", "data": [{
			"id": "si_1",
			"price": {"id": "price_pro_yearly"},
			"current_period_start": %d,
			"current_period_end": %d
		}]}
	}`, user.Id.String(), time.Now().Unix(), time.Now().Add(365*24*time.Hour).Unix())
	payload := stripeEvent("customer.subscription.created", created)
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))

	deleted := fmt.Sprintf(`{
		"id": "sub_del",
		"object": "subscription",
		"status": "canceled",
		"customer": "cus_del",
		"metadata": {"user_id": %q}
	}`, user.Id.String())
	payload = stripeEvent("customer.subscription.deleted", deleted)
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))

	uow := factory.NewUnitOfWork(ctx)

	updated, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.UserTierFree, updated.Tier)
	assert.Nil(t, updated.StripeSubscriptionId)

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.Filter("stripe_subscription_id", "sub_del"))
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, entity.SubscriptionStatusCanceled, sub.Status)
	assert.NotNil(t, sub.CanceledAt)
}

func TestInvoicePaymentRecordedOnce(t *testing.T) {
	svc, factory, user := newBillingFixture(t)
	ctx := context.Background()

	invoice := fmt.Sprintf(`{
		"id": "in_123",
		"object": "invoice",
		"customer": "cus_inv",
		"amount_paid": 2900,
		"currency": "usd",
		"metadata": {"user_id": %q},
		"status_transitions": {"paid_at": %d}
	}`, user.Id.String(), time.Now().Unix())

	payload := stripeEvent("invoice.payment_succeeded", invoice)
	sig := signStripePayload(payload, testWebhookSecret)
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	// Stripe retries deliver the same invoice again.
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	uow := factory.NewUnitOfWork(ctx)
	payments, err := uow.PaymentRepository().FindAll(ctx, specification.Filter("stripe_invoice_id", "in_123"))
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusPaid, payments[0].Status)
	assert.EqualValues(t, 2900, payments[0].Amount)
	assert.NotNil(t, payments[0].PaidAt)
}

func TestUnknownUserDoesNotFailWebhook(t *testing.T) {
	svc, factory, _ := newBillingFixture(t)
	ctx := context.Background()

	// A subscription for a customer we have never seen: the handler logs and
	// the webhook still returns success so Stripe stops retrying.
	subscription := `{
		"id": "sub_orphan",
		"object": "subscription",
		"status": "active",
		"customer": "cus_unknown",
		"items": {"object": "list", "data": []}
	}`
	payload := stripeEvent("customer.subscription.created", subscription)
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))

	uow := factory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.Filter("stripe_subscription_id", "sub_orphan"))
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func stripeEventWithVersion(apiVersion, eventType, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_2","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		apiVersion, eventType, object,
	))
}

func monthlyProSubscription(subId, userId string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"object": "subscription",
		"status": "active",
		"customer": "cus_ver",
		"metadata": {"user_id": %q},
		"items": {"object": "list", "data": [{
			"id": "si_1",
			"price": {"id": "price_pro_monthly"},
			"current_period_start": %d,
			"current_period_end": %d
		}]}
	}`, subId, userId, time.Now().Unix(), time.Now().Add(30*24*time.Hour).Unix())
}

// Stripe delivers events in the account's pinned API version, which
// almost never matches the version this library was generated against.
// A valid signature must be enough.
func TestWebhookAcceptsForeignApiVersion(t *testing.T) {
	svc, factory, user := newBillingFixture(t)
	ctx := context.Background()

	payload := stripeEventWithVersion("2023-10-16", "customer.subscription.created",
		monthlyProSubscription("sub_ver", user.Id.String()))
	err := svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret))
	require.NoError(t, err)

	// Processed, not merely tolerated.
	uow := factory.NewUnitOfWork(ctx)
	updated, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.UserTierPro, updated.Tier)
}

func newBillingFixtureWithBus(t *testing.T) (IBillingService, *entity.User, *capturePublisher) {
	t.Helper()
	factory := newTestFactory(t)
	bus := &capturePublisher{}
	svc := NewBillingService(factory, "sk_test_key", testWebhookSecret, PriceMapping{
		ProMonthlyPriceID: "price_pro_monthly",
		ProYearlyPriceID:  "price_pro_yearly",
	}, bus, nopLogger{})
	user := seedUser(t, factory)
	return svc, user, bus
}

func tierEnvelopes(t *testing.T, bus *capturePublisher) []SessionEventEnvelope {
	t.Helper()
	var out []SessionEventEnvelope
	for _, raw := range bus.published() {
		var env SessionEventEnvelope
		require.NoError(t, json.Unmarshal(raw, &env))
		out = append(out, env)
	}
	return out
}

func TestTierChangePublishedOnEdgesOnly(t *testing.T) {
	svc, user, bus := newBillingFixtureWithBus(t)
	ctx := context.Background()

	payload := stripeEvent("customer.subscription.created",
		monthlyProSubscription("sub_tier", user.Id.String()))
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))

	envs := tierEnvelopes(t, bus)
	require.Len(t, envs, 1)
	assert.Equal(t, "TIER_CHANGED", envs[0].Type)
	assert.Equal(t, user.Id, envs[0].UserId)
	assert.Equal(t, "pro", envs[0].Data["tier"])

	// Replaying the same subscription state changes nothing, so no
	// second event.
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))
	assert.Len(t, tierEnvelopes(t, bus), 1)

	deleted := fmt.Sprintf(`{
		"id": "sub_tier",
		"object": "subscription",
		"status": "canceled",
		"customer": "cus_ver",
		"metadata": {"user_id": %q}
	}`, user.Id.String())
	payload = stripeEvent("customer.subscription.deleted", deleted)
	require.NoError(t, svc.HandleWebhook(ctx, payload, signStripePayload(payload, testWebhookSecret)))

	envs = tierEnvelopes(t, bus)
	require.Len(t, envs, 2)
	assert.Equal(t, "free", envs[1].Data["tier"])
}
