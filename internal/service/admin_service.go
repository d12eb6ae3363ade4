package service

import (
	"context"
	"fmt"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/pkg/mailer"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/events"
	pkgNats "deckster-be/pkg/nats"

	"github.com/google/uuid"
)

type IAdminService interface {
	ListUsers(ctx context.Context) ([]dto.AdminUserResponse, error)
	ApproveUser(ctx context.Context, adminEmail string, req *dto.ApproveUserRequest) (*dto.ApproveUserResponse, error)
}

type adminService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pkgNats.Publisher
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pkgNats.Publisher,
) IAdminService {
	return &adminService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]dto.AdminUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.AdminUserResponse, 0, len(users))
	for _, user := range users {
		res = append(res, dto.AdminUserResponse{
			Id:                   user.Id,
			Email:                user.Email,
			Name:                 user.Name,
			Role:                 string(user.Role),
			Tier:                 string(user.Tier),
			Approved:             user.Approved,
			ApprovedAt:           user.ApprovedAt,
			ApprovedBy:           user.ApprovedBy,
			StripeCustomerId:     user.StripeCustomerId,
			StripeSubscriptionId: user.StripeSubscriptionId,
			CreatedAt:            user.CreatedAt,
		})
	}

	return res, nil
}

func (s *adminService) ApproveUser(ctx context.Context, adminEmail string, req *dto.ApproveUserRequest) (*dto.ApproveUserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	userId, err := uuid.Parse(req.UserId)
	if err != nil {
		return nil, serverutils.NewBadRequest("Invalid user id")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.NewNotFound("User not found")
	}

	if !user.Approved {
		now := time.Now()
		user.Approved = true
		user.ApprovedAt = &now
		user.ApprovedBy = &adminEmail
		user.UpdatedAt = now

		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, err
		}

		// Email and event are auxiliary; failures are logged, not returned.
		if s.emailService != nil {
			if err := s.emailService.SendApprovalNotification(user.Email, user.Name); err != nil {
				fmt.Printf("[WARN] Failed to send approval email to %s: %v\n", user.Email, err)
			}
		}
		if s.eventPublisher != nil {
			evt := events.NewUserApprovedEvent(user.Id.String(), user.Email)
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				fmt.Printf("[WARN] Failed to publish USER_APPROVED event: %v\n", err)
			}
		}
	}

	return &dto.ApproveUserResponse{
		Id:         user.Id,
		Approved:   user.Approved,
		ApprovedAt: user.ApprovedAt,
		ApprovedBy: user.ApprovedBy,
	}, nil
}
