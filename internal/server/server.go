package server

import (
	"log"

	"deckster-be/internal/bootstrap"
	"deckster-be/internal/config"
	"deckster-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Leave headroom above the largest accepted file for the multipart
		// envelope.
		BodyLimit: (cfg.Upload.MaxFileSizeMB + 5) * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	jwtMiddleware := serverutils.JwtMiddleware(cfg.Auth.JWTSecret)
	adminMiddleware := serverutils.AdminMiddleware()
	cronMiddleware := serverutils.CronMiddleware(cfg.Cleanup.CronSecret)

	c.OAuthController.RegisterRoutes(api)
	c.WebhookController.RegisterRoutes(api)

	c.SessionController.RegisterRoutes(api, jwtMiddleware)
	c.UploadController.RegisterRoutes(api, jwtMiddleware)
	c.KnowledgeController.RegisterRoutes(api, jwtMiddleware)

	c.AdminController.RegisterRoutes(api, jwtMiddleware, adminMiddleware, cronMiddleware)

	c.EventStreamHandler.RegisterRoutes(api)
}
