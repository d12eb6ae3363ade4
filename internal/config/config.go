package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Gemini   GeminiConfig
	Services ServiceConfig
	Upload   UploadConfig
	Cleanup  CleanupConfig
	SMTP     SMTPConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	FrontendURL        string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	DirectURL  string
}

type AuthConfig struct {
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	DevBypassEmail     string
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	ProMonthlyPriceID string
	ProYearlyPriceID  string
}

type GeminiConfig struct {
	APIKey string
}

type ServiceConfig struct {
	BackendFileServiceURL string
	LayoutServiceURL      string
	DownloadServiceURL    string
}

type UploadConfig struct {
	// The source systems disagreed on the ceiling (20MB in the route, 25MB in
	// the validator); it is one config value here so operators reconcile it
	// in a single place.
	MaxFileSizeMB      int
	MaxFilesPerSession int
}

type CleanupConfig struct {
	CronSecret     string
	ThresholdHours int
	Schedule       string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DATABASE_URL", ""),
			DirectURL:  getEnv("DIRECT_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("NEXTAUTH_SECRET", ""),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			DevBypassEmail:     getEnv("DEV_BYPASS_EMAIL", ""),
		},
		Stripe: StripeConfig{
			SecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
			ProMonthlyPriceID: getEnv("STRIPE_PRO_MONTHLY_PRICE_ID", ""),
			ProYearlyPriceID:  getEnv("STRIPE_PRO_YEARLY_PRICE_ID", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Services: ServiceConfig{
			BackendFileServiceURL: getEnv("BACKEND_FILE_SERVICE_URL", "http://localhost:8000"),
			LayoutServiceURL:      getEnv("LAYOUT_SERVICE_URL", "http://localhost:8100"),
			DownloadServiceURL:    getEnv("DOWNLOAD_SERVICE_URL", "http://localhost:8200"),
		},
		Upload: UploadConfig{
			MaxFileSizeMB:      getEnvAsInt("MAX_UPLOAD_FILE_SIZE_MB", 20),
			MaxFilesPerSession: getEnvAsInt("MAX_UPLOAD_FILES_PER_SESSION", 5),
		},
		Cleanup: CleanupConfig{
			CronSecret:     getEnv("CRON_SECRET", ""),
			ThresholdHours: getEnvAsInt("SESSION_CLEANUP_THRESHOLD_HOURS", 24),
			Schedule:       getEnv("SESSION_CLEANUP_SCHEDULE", "0 0 3 * * *"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Deckster"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
