package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peerflow/gamify-api/internal/dto"
	"github.com/peerflow/gamify-api/internal/models"
	"github.com/peerflow/gamify-api/internal/repository"
)

// ErrArtifactTypeNotAllowed indicates the uploaded file is not a PDF.
var ErrArtifactTypeNotAllowed = errors.New("artifact must be a pdf")

// FileStorage abstracts uploading binary data and returning a URL.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ArtifactService handles artifact submission and reviewer assignment.
type ArtifactService interface {
	Upload(ctx context.Context, assignmentID, submitterRegistrationID uint, file *multipart.FileHeader) (dto.ArtifactResponse, error)
	AssignReviewers(ctx context.Context, artifactID uint, reviewerRegistrationIDs []uint) ([]dto.ArtifactReviewResponse, error)
}

type artifactService struct {
	repo    repository.ArtifactReviewRepository
	storage FileStorage
	logger  zerolog.Logger
	now     func() time.Time
}

// NewArtifactService builds the artifact submission service.
func NewArtifactService(repo repository.ArtifactReviewRepository, storage FileStorage, logger zerolog.Logger) ArtifactService {
	return &artifactService{
		repo:    repo,
		storage: storage,
		logger:  logger.With().Str("component", "artifact_service").Logger(),
		now:     time.Now,
	}
}

func (s *artifactService) Upload(ctx context.Context, assignmentID, submitterRegistrationID uint, file *multipart.FileHeader) (dto.ArtifactResponse, error) {
	if file == nil {
		return dto.ArtifactResponse{}, errors.New("file is required")
	}

	src, err := file.Open()
	if err != nil {
		return dto.ArtifactResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return dto.ArtifactResponse{}, fmt.Errorf("failed to detect file type: %w", err)
	}
	if !detected.Is("application/pdf") {
		return dto.ArtifactResponse{}, ErrArtifactTypeNotAllowed
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return dto.ArtifactResponse{}, fmt.Errorf("failed to rewind file: %w", err)
	}

	url, err := s.storage.Upload(ctx, file.Filename, src)
	if err != nil {
		return dto.ArtifactResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	artifact := models.Artifact{
		AssignmentID:            assignmentID,
		SubmitterRegistrationID: submitterRegistrationID,
		FileURL:                 url,
		UploadTime:              s.now(),
	}

	if err := s.repo.CreateArtifact(ctx, &artifact); err != nil {
		return dto.ArtifactResponse{}, err
	}

	s.logger.Info().
		Uint("artifact_id", artifact.ID).
		Uint("assignment_id", assignmentID).
		Msg("artifact uploaded")

	return dto.NewArtifactResponse(artifact), nil
}

// AssignReviewers creates INCOMPLETE review tasks for the given reviewers.
func (s *artifactService) AssignReviewers(ctx context.Context, artifactID uint, reviewerRegistrationIDs []uint) ([]dto.ArtifactReviewResponse, error) {
	if _, err := s.repo.GetArtifact(ctx, artifactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}

	responses := make([]dto.ArtifactReviewResponse, 0, len(reviewerRegistrationIDs))
	for _, reviewerID := range reviewerRegistrationIDs {
		review := models.ArtifactReview{
			ArtifactID:             artifactID,
			ReviewerRegistrationID: reviewerID,
			Status:                 models.ReviewStatusIncomplete,
		}
		if err := s.repo.CreateReview(ctx, &review); err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewArtifactReviewResponse(review, nil))
	}

	return responses, nil
}
