package service

import (
	"context"
	"errors"

	"deckster-be/internal/entity"
	"deckster-be/internal/pkg/serverutils"
	"deckster-be/internal/repository/specification"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/pkg/backend"

	"github.com/google/uuid"
)

type IExportService interface {
	// Export streams a rendered artifact for the session's presentation.
	// Format is "pdf" or "pptx"; version optionally pins strawman/refined;
	// the default is the final version.
	Export(ctx context.Context, userId uuid.UUID, sessionId, format, version string) (*backend.ExportArtifact, error)
}

type exportService struct {
	uowFactory   unitofwork.RepositoryFactory
	layoutClient backend.LayoutClient
}

func NewExportService(uowFactory unitofwork.RepositoryFactory, layoutClient backend.LayoutClient) IExportService {
	return &exportService{
		uowFactory:   uowFactory,
		layoutClient: layoutClient,
	}
}

func (s *exportService) Export(ctx context.Context, userId uuid.UUID, sessionId, format, version string) (*backend.ExportArtifact, error) {
	if format != "pdf" && format != "pptx" {
		return nil, serverutils.NewBadRequest("Unsupported format: must be pdf or pptx")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByStringID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFound("Session not found")
	}
	if session.UserId != userId {
		return nil, serverutils.NewForbidden("Session belongs to another user")
	}

	presentationId := presentationIdForVersion(session, version)
	if presentationId == "" {
		return nil, serverutils.NewNotFound("Session has no rendered presentation for that version")
	}

	artifact, err := s.layoutClient.Export(ctx, presentationId, version, format)
	if err != nil {
		var unreachable *backend.ErrUnreachable
		if errors.As(err, &unreachable) {
			return nil, serverutils.NewUpstreamError("Layout service is unreachable")
		}
		var upstream *backend.ErrUpstream
		if errors.As(err, &upstream) {
			return nil, serverutils.NewUpstreamError("Layout service failed: " + upstream.Message)
		}
		return nil, err
	}

	return artifact, nil
}

func presentationIdForVersion(session *entity.ChatSession, version string) string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	switch version {
	case "strawman":
		return deref(session.StrawmanId)
	case "refined":
		return deref(session.RefinedId)
	case "final":
		return deref(session.FinalId)
	default:
		// Latest available wins: final, then refined, then strawman.
		if id := deref(session.FinalId); id != "" {
			return id
		}
		if id := deref(session.RefinedId); id != "" {
			return id
		}
		return deref(session.StrawmanId)
	}
}
