package workorders

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// AttachMediaInput references an already uploaded file.
type AttachMediaInput struct {
	WorkOrderID uuid.UUID
	Stage       *enums.ProductionStage
	Kind        enums.MediaKind
	URL         string
	Caption     string
	UploadedBy  *uuid.UUID
}

func (s *service) AttachMedia(ctx context.Context, input AttachMediaInput) (*models.WorkOrderMedia, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media url is required")
	}
	kind := input.Kind
	if kind == "" {
		kind = enums.MediaKindOther
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	if input.Stage != nil && !input.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid production stage")
	}
	if _, err := s.load(ctx, s.repo, input.WorkOrderID); err != nil {
		return nil, err
	}

	media := &models.WorkOrderMedia{
		WorkOrderID: input.WorkOrderID,
		Stage:       input.Stage,
		Kind:        kind,
		URL:         url,
		Caption:     optionalString(input.Caption),
		UploadedBy:  input.UploadedBy,
	}
	if err := s.repo.CreateMedia(ctx, media); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach media")
	}
	return media, nil
}

func (s *service) ListMedia(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderMedia, error) {
	if _, err := s.load(ctx, s.repo, workOrderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListMedia(ctx, workOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}
	return rows, nil
}
