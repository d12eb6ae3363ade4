package service

import (
	"context"
	"errors"
	"testing"

	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/pkg/backend"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFileClient struct {
	err     error
	uploads int
}

func (f *fakeFileClient) Upload(_ context.Context, _, fileName, mimeType string, data []byte) (*backend.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads++
	return &backend.UploadResult{
		FileId:    "file-" + fileName,
		FileName:  fileName,
		SizeBytes: int64(len(data)),
		MimeType:  mimeType,
	}, nil
}

func pdf(name string, size int) UploadFileInput {
	return UploadFileInput{
		FileName: name,
		MimeType: "application/pdf",
		Data:     make([]byte, size),
	}
}

func TestUploadRelaysAndPersists(t *testing.T) {
	factory := newTestFactory(t)
	client := &fakeFileClient{}
	publisher := &capturePublisher{}
	svc := NewUploadService(factory, client, publisher, 20, 5)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-up", nil)

	res, err := svc.Upload(ctx, user.Id, "sess-up", []UploadFileInput{
		pdf("brief.pdf", 128),
		pdf("notes.pdf", 64),
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, 2, client.uploads)
	assert.Equal(t, "file-brief.pdf", res.Files[0].GeminiFileId)

	uow := factory.NewUnitOfWork(ctx)
	count, err := uow.UploadedFileRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: "sess-up"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	assert.Len(t, publisher.published(), 1)
}

func TestUploadEnforcesSessionFileCap(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewUploadService(factory, &fakeFileClient{}, nil, 20, 3)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-cap", nil)

	_, err := svc.Upload(ctx, user.Id, "sess-cap", []UploadFileInput{
		pdf("a.pdf", 1), pdf("b.pdf", 1),
	})
	require.NoError(t, err)

	// Two already stored, two more would exceed the cap of three.
	_, err = svc.Upload(ctx, user.Id, "sess-cap", []UploadFileInput{
		pdf("c.pdf", 1), pdf("d.pdf", 1),
	})
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)

	// A single file still fits.
	_, err = svc.Upload(ctx, user.Id, "sess-cap", []UploadFileInput{pdf("c.pdf", 1)})
	require.NoError(t, err)
}

func TestUploadValidation(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewUploadService(factory, &fakeFileClient{}, nil, 1, 5)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-val", nil)

	var appErr *serverutils.AppError

	_, err := svc.Upload(ctx, user.Id, "sess-val", nil)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)

	_, err = svc.Upload(ctx, user.Id, "sess-val", []UploadFileInput{pdf("", 1)})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)

	// 2MB against a 1MB ceiling.
	_, err = svc.Upload(ctx, user.Id, "sess-val", []UploadFileInput{pdf("big.pdf", 2*1024*1024)})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusBadRequest, appErr.Code)
}

func TestUploadUpstreamFailures(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	user := seedUser(t, factory)
	seedSession(t, factory, user.Id, "sess-fail", nil)

	unreachable := &fakeFileClient{err: &backend.ErrUnreachable{Err: errors.New("connection refused")}}
	svc := NewUploadService(factory, unreachable, nil, 20, 5)
	_, err := svc.Upload(ctx, user.Id, "sess-fail", []UploadFileInput{pdf("a.pdf", 1)})
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)

	rejected := &fakeFileClient{err: &backend.ErrUpstream{StatusCode: 422, Message: "unsupported file type"}}
	svc = NewUploadService(factory, rejected, nil, 20, 5)
	_, err = svc.Upload(ctx, user.Id, "sess-fail", []UploadFileInput{pdf("a.pdf", 1)})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 502, appErr.Code)

	// Nothing persisted on failure.
	uow := factory.NewUnitOfWork(ctx)
	count, err := uow.UploadedFileRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: "sess-fail"})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUploadOwnership(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewUploadService(factory, &fakeFileClient{}, nil, 20, 5)
	ctx := context.Background()

	owner := seedUser(t, factory)
	intruder := seedUser(t, factory)
	seedSession(t, factory, owner.Id, "sess-up-own", nil)

	var appErr *serverutils.AppError
	_, err := svc.Upload(ctx, intruder.Id, "sess-up-own", []UploadFileInput{pdf("a.pdf", 1)})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, fiber.StatusForbidden, appErr.Code)
}
