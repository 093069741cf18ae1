package cameras

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/frames"
)

type CreateCameraRequest struct {
	Name        string
	SourcePath  string
	FrameRanges string
	ShowPreview bool
}

type UpdateCameraRequest struct {
	ID          string
	Name        string
	SourcePath  string
	FrameRanges string
	ShowPreview bool
}

var supportedSourceExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".m4v", ".wmv", ".mpg", ".mpeg"}

type CameraService interface {
	// CreateCamera creates a new camera setting with the given details
	CreateCamera(req CreateCameraRequest) (*CameraSetting, error)
	// GetCamera retrieves a camera setting by its ID
	GetCamera(id string) (*CameraSetting, error)
	// GetCameraByName retrieves a camera setting by its camera name
	GetCameraByName(name string) (*CameraSetting, error)
	// GetCameras retrieves all camera settings in configured order
	GetCameras() ([]*CameraSetting, error)
	// UpdateCamera updates an existing camera setting
	UpdateCamera(req UpdateCameraRequest) (*CameraSetting, error)
	// DeleteCamera deletes a camera setting by its ID
	DeleteCamera(id string) error
}

type cameraService struct {
	logger logging.Logger
	repo   CameraRepository
	parser *frames.Parser
}

func NewCameraService(logger logging.Logger, repo CameraRepository, parser *frames.Parser) *cameraService {

	if logger == nil {
		logger = logging.NopLogger
	}
	if parser == nil {
		parser = frames.NewParser(logger)
	}

	return &cameraService{
		logger: logger,
		repo:   repo,
		parser: parser,
	}
}

// validateName checks that the camera name is usable inside output file names
func (s *cameraService) validateName(name string) error {
	if name == "" {
		return NewCameraValidationError("camera name cannot be empty")
	}
	if len(name) > 64 {
		return NewCameraValidationError("camera name must be 64 characters or fewer")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>| \t") {
		return NewCameraValidationError("camera name must not contain path separators or whitespace")
	}
	return nil
}

func (s *cameraService) validateSourcePath(sourcePath string) error {
	if sourcePath == "" {
		// No footage assigned yet; jobs for this camera are skipped
		return nil
	}
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if !slices.Contains(supportedSourceExtensions, ext) {
		return NewCameraValidationError("unsupported source footage extension: " + ext)
	}
	return nil
}

// validateFrameRanges rejects a non-empty range string that yields no frames
// at all. Individual invalid tokens are tolerated, matching the parser.
func (s *cameraService) validateFrameRanges(ranges string) error {
	if strings.TrimSpace(ranges) == "" {
		return nil
	}
	parsed, invalid := s.parser.Parse(ranges)
	if len(parsed) == 0 {
		return NewCameraValidationError("frame ranges yield no frames")
	}
	if len(invalid) > 0 {
		s.logger.Warn("Camera frame ranges contain invalid tokens", "tokens", strings.Join(invalid, ","))
	}
	return nil
}

func (s *cameraService) validate(name, sourcePath, ranges string) error {
	if err := s.validateName(name); err != nil {
		return err
	}
	if err := s.validateSourcePath(sourcePath); err != nil {
		return err
	}
	return s.validateFrameRanges(ranges)
}

func (s *cameraService) CreateCamera(req CreateCameraRequest) (*CameraSetting, error) {
	name := strings.TrimSpace(req.Name)

	if err := s.validate(name, req.SourcePath, req.FrameRanges); err != nil {
		return nil, err
	}

	s.logger.Info("Creating camera setting", "name", name)

	ctx := context.Background()

	// Check if a camera with the same name already exists
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("Failed to check for existing camera", "error", err)
		return nil, err
	}
	if existing != nil {
		s.logger.Error("Camera setting already exists", "name", name)
		return nil, NewCameraAlreadyExistsError(name)
	}

	now := time.Now().UTC()
	camera := &CameraSetting{
		ID:          uuid.New().String(),
		Name:        name,
		SourcePath:  req.SourcePath,
		FrameRanges: req.FrameRanges,
		ShowPreview: req.ShowPreview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, camera); err != nil {
		s.logger.Error("Failed to create camera setting", "error", err)
		return nil, err
	}

	s.logger.Info("Created camera setting", "id", camera.ID, "name", camera.Name, "position", camera.Position)
	return camera, nil
}

func (s *cameraService) GetCamera(id string) (*CameraSetting, error) {
	camera, err := s.repo.GetByID(context.Background(), id)
	if err != nil {
		s.logger.Error("Failed to get camera setting", "error", err)
		return nil, err
	}
	return camera, nil
}

func (s *cameraService) GetCameraByName(name string) (*CameraSetting, error) {
	camera, err := s.repo.GetByName(context.Background(), name)
	if err != nil {
		s.logger.Error("Failed to get camera setting by name", "error", err)
		return nil, err
	}
	return camera, nil
}

func (s *cameraService) GetCameras() ([]*CameraSetting, error) {
	cameras, err := s.repo.GetAll(context.Background())
	if err != nil {
		s.logger.Error("Failed to get camera settings", "error", err)
		return nil, err
	}
	return cameras, nil
}

func (s *cameraService) UpdateCamera(req UpdateCameraRequest) (*CameraSetting, error) {
	name := strings.TrimSpace(req.Name)

	if err := s.validate(name, req.SourcePath, req.FrameRanges); err != nil {
		return nil, err
	}

	ctx := context.Background()

	camera, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		s.logger.Error("Failed to get camera setting for update", "error", err)
		return nil, err
	}
	if camera == nil {
		return nil, NewCameraNotFoundError(req.ID)
	}

	// A rename must not collide with another camera
	if name != camera.Name {
		existing, err := s.repo.GetByName(ctx, name)
		if err != nil {
			s.logger.Error("Failed to check for existing camera", "error", err)
			return nil, err
		}
		if existing != nil {
			return nil, NewCameraAlreadyExistsError(name)
		}
	}

	camera.Name = name
	camera.SourcePath = req.SourcePath
	camera.FrameRanges = req.FrameRanges
	camera.ShowPreview = req.ShowPreview
	camera.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, camera); err != nil {
		s.logger.Error("Failed to update camera setting", "error", err)
		return nil, err
	}

	s.logger.Info("Updated camera setting", "id", camera.ID, "name", camera.Name)
	return camera, nil
}

func (s *cameraService) DeleteCamera(id string) error {
	ctx := context.Background()

	camera, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get camera setting for deletion", "error", err)
		return err
	}
	if camera == nil {
		return NewCameraNotFoundError(id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete camera setting", "error", err)
		return err
	}

	s.logger.Info("Deleted camera setting", "id", id, "name", camera.Name)
	return nil
}
