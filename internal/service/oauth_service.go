package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"deckster-be/internal/config"
	"deckster-be/internal/dto"
	"deckster-be/internal/entity"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory     unitofwork.RepositoryFactory
	googleConf     *oauth2.Config
	jwtSecret      string
	devBypassEmail string
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory, cfg *config.Config) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.Auth.GoogleClientID,
		ClientSecret: cfg.Auth.GoogleClientSecret,
		RedirectURL:  cfg.Auth.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory:     uowFactory,
		googleConf:     conf,
		jwtSecret:      cfg.Auth.JWTSecret,
		devBypassEmail: cfg.Auth.DevBypassEmail,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, errors.New("unsupported provider")
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	// DEV_BYPASS_EMAIL short-circuits the Google round trip for local
	// development: the "code" is ignored and the bypass identity is used.
	if s.devBypassEmail != "" && code == "dev" {
		googleUser.Email = s.devBypassEmail
		googleUser.Name = "Dev User"
		googleUser.VerifiedEmail = true
	} else {
		token, err := s.googleConf.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("code exchange failed: %v", err)
		}

		userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken
		resp, err := http.Get(userInfoURL)
		if err != nil {
			return nil, fmt.Errorf("failed getting user info: %v", err)
		}
		defer resp.Body.Close()

		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed reading response: %v", err)
		}

		if err := json.Unmarshal(content, &googleUser); err != nil {
			return nil, err
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, err
	}

	if user == nil {
		newUser := &entity.User{
			Id:        uuid.New(),
			Email:     googleUser.Email,
			Name:      googleUser.Name,
			Role:      entity.UserRoleUser,
			Tier:      entity.UserTierFree,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if googleUser.Picture != "" {
			newUser.Image = &googleUser.Picture
		}

		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}
		if err := uow.UserRepository().Create(ctx, newUser); err != nil {
			uow.Rollback()
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}

		user = newUser
		log.Printf("[OAuth Service] New user created with ID: %s", user.Id)
	} else if googleUser.Picture != "" && (user.Image == nil || *user.Image != googleUser.Picture) {
		user.Image = &googleUser.Picture
		user.UpdatedAt = time.Now()
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			log.Printf("[OAuth Service] WARN - Failed to sync avatar: %v", err)
		}
	}

	signedToken, err := s.generateToken(ctx, uow, user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			Name:     user.Name,
			Image:    user.Image,
			Role:     string(user.Role),
			Tier:     string(user.Tier),
			Approved: user.Approved,
		},
	}, nil
}

// generateToken enriches the JWT with the claims the frontend keys off:
// tier, approval flag and current subscription status.
func (s *oauthService) generateToken(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User) (string, error) {
	subscriptionStatus := ""
	if user.StripeSubscriptionId != nil {
		sub, err := uow.SubscriptionRepository().FindOne(ctx,
			specification.Filter("stripe_subscription_id", *user.StripeSubscriptionId),
		)
		if err != nil {
			return "", err
		}
		if sub != nil {
			subscriptionStatus = string(sub.Status)
		}
	}

	claims := jwt.MapClaims{
		"user_id":             user.Id.String(),
		"email":               user.Email,
		"role":                string(user.Role),
		"tier":                string(user.Tier),
		"approved":            user.Approved,
		"subscription_status": subscriptionStatus,
		"exp":                 time.Now().Add(time.Hour * 24).Unix(),
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jwtToken.SignedString([]byte(s.jwtSecret))
}
