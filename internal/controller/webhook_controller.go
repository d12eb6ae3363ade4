package controller

import (
	"deckster-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	HandleStripe(ctx *fiber.Ctx) error
}

type webhookController struct {
	billingService service.IBillingService
}

func NewWebhookController(billingService service.IBillingService) IWebhookController {
	return &webhookController{
		billingService: billingService,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	// No JWT here; authentication is the Stripe signature.
	h := r.Group("/webhooks")
	h.Post("stripe", c.HandleStripe)
}

func (c *webhookController) HandleStripe(ctx *fiber.Ctx) error {
	payload := ctx.Body()
	signature := ctx.Get("Stripe-Signature")

	if err := c.billingService.HandleWebhook(ctx.Context(), payload, signature); err != nil {
		return err
	}

	// Stripe retries on anything that is not 2xx; once the signature
	// verifies we always acknowledge.
	return ctx.SendStatus(fiber.StatusOK)
}
