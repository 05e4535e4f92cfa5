package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/courtside/bracket-engine/storage"
)

// SnapshotService archives a point-in-time JSON copy of a tournament's
// bracket to object storage, so the rendered state of record survives later
// prunes and regenerations.
type SnapshotService interface {
	ExportSnapshot(ctx context.Context, tournamentID int) (*storage.UploadResult, error)
}

type snapshotService struct {
	brackets BracketService
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewSnapshotService(brackets BracketService, uploader storage.FileUploader, logger *slog.Logger) SnapshotService {
	return &snapshotService{
		brackets: brackets,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *snapshotService) ExportSnapshot(ctx context.Context, tournamentID int) (*storage.UploadResult, error) {
	view, err := s.brackets.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bracket snapshot for tournament %d: %w", tournamentID, err)
	}

	key := fmt.Sprintf("brackets/%d/%d.json", tournamentID, s.now().UTC().Unix())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload bracket snapshot for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("bracket snapshot exported",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", result.Key))
	return result, nil
}
