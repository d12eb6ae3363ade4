package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"deckster-be/internal/dto"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu        sync.Mutex
	approvals []string
}

func (m *captureMailer) SendApprovalNotification(toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approvals = append(m.approvals, toEmail)
	return nil
}

func TestApproveUser(t *testing.T) {
	factory := newTestFactory(t)
	mail := &captureMailer{}
	svc := NewAdminService(factory, mail, nil)
	ctx := context.Background()

	user := seedUser(t, factory)

	res, err := svc.ApproveUser(ctx, "admin@example.com", &dto.ApproveUserRequest{UserId: user.Id.String()})
	require.NoError(t, err)
	assert.True(t, res.Approved)
	require.NotNil(t, res.ApprovedBy)
	assert.Equal(t, "admin@example.com", *res.ApprovedBy)
	assert.Equal(t, []string{user.Email}, mail.approvals)

	uow := factory.NewUnitOfWork(ctx)
	stored, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.True(t, stored.Approved)

	// Approving again is a no-op: no second email, timestamps untouched.
	firstApprovedAt := *res.ApprovedAt
	res, err = svc.ApproveUser(ctx, "other-admin@example.com", &dto.ApproveUserRequest{UserId: user.Id.String()})
	require.NoError(t, err)
	assert.Len(t, mail.approvals, 1)
	assert.WithinDuration(t, firstApprovedAt, *res.ApprovedAt, time.Millisecond)
	assert.Equal(t, "admin@example.com", *res.ApprovedBy)
}

func TestApproveUserErrors(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewAdminService(factory, nil, nil)
	ctx := context.Background()

	var appErr *serverutils.AppError

	_, err := svc.ApproveUser(ctx, "admin@example.com", &dto.ApproveUserRequest{UserId: "not-a-uuid"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)

	_, err = svc.ApproveUser(ctx, "admin@example.com", &dto.ApproveUserRequest{UserId: uuid.New().String()})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusNotFound, appErr.Code)
}

func TestListUsersNewestFirst(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewAdminService(factory, nil, nil)
	ctx := context.Background()

	seedUser(t, factory)
	seedUser(t, factory)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.False(t, users[0].CreatedAt.Before(users[1].CreatedAt))
}
