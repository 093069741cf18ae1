package cameras

import (
	"testing"

	"stillbatch/core/ccc/db"
	"stillbatch/core/frames"
)

func setupTestService(t *testing.T) (*cameraService, func()) {
	testDB, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	repo, err := NewSQLiteCameraRepository(testDB)
	if err != nil {
		testDB.Close()
		t.Fatalf("Failed to create repository: %v", err)
	}

	service := NewCameraService(nil, repo, frames.NewParser(nil))

	cleanup := func() {
		testDB.Close()
	}

	return service, cleanup
}

func TestCameraService_CreateCamera(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	camera, err := service.CreateCamera(CreateCameraRequest{
		Name:        "FrontCam",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "11,25,250-260",
		ShowPreview: true,
	})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	if camera.ID == "" {
		t.Error("Expected camera to get an ID")
	}
	if camera.Position != 1 {
		t.Errorf("Expected position 1, got %d", camera.Position)
	}
	if camera.CreatedAt.IsZero() || camera.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestCameraService_CreateCamera_TrimsName(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	camera, err := service.CreateCamera(CreateCameraRequest{
		Name:        "  FrontCam  ",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "1-3",
	})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	if camera.Name != "FrontCam" {
		t.Errorf("Expected trimmed name FrontCam, got %q", camera.Name)
	}
}

func TestCameraService_CreateCamera_DuplicateName(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	req := CreateCameraRequest{
		Name:        "FrontCam",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "1-3",
	}

	if _, err := service.CreateCamera(req); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	_, err := service.CreateCamera(req)
	if err == nil {
		t.Fatal("Expected error for duplicate camera name")
	}
	if !IsCameraAlreadyExistsError(err) {
		t.Errorf("Expected CameraAlreadyExistsError, got %v", err)
	}
}

func TestCameraService_CreateCamera_Validation(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	tests := []struct {
		name string
		req  CreateCameraRequest
	}{
		{"empty name", CreateCameraRequest{Name: "", SourcePath: "/footage/a.mp4", FrameRanges: "1"}},
		{"name with path separator", CreateCameraRequest{Name: "Front/Cam", SourcePath: "/footage/a.mp4", FrameRanges: "1"}},
		{"name with whitespace", CreateCameraRequest{Name: "Front Cam", SourcePath: "/footage/a.mp4", FrameRanges: "1"}},
		{"unsupported source extension", CreateCameraRequest{Name: "FrontCam", SourcePath: "/footage/a.txt", FrameRanges: "1"}},
		{"ranges yield no frames", CreateCameraRequest{Name: "FrontCam", SourcePath: "/footage/a.mp4", FrameRanges: "abc,x-y"}},
	}

	for _, tt := range tests {
		_, err := service.CreateCamera(tt.req)
		if err == nil {
			t.Errorf("%s: expected validation error", tt.name)
			continue
		}
		if !IsCameraValidationError(err) {
			t.Errorf("%s: expected CameraValidationError, got %v", tt.name, err)
		}
	}
}

func TestCameraService_CreateCamera_AllowsEmptySourceAndRanges(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	// A camera can be configured before its footage and frames are known
	camera, err := service.CreateCamera(CreateCameraRequest{Name: "LaterCam"})
	if err != nil {
		t.Fatalf("Expected camera without source and ranges to be allowed, got %v", err)
	}
	if camera.HasSource() {
		t.Error("Expected camera to report no source")
	}
}

func TestCameraService_CreateCamera_ToleratesPartlyInvalidRanges(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	// Invalid tokens are skipped as long as some frames remain
	_, err := service.CreateCamera(CreateCameraRequest{
		Name:        "FrontCam",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "11,abc,25",
	})
	if err != nil {
		t.Fatalf("Expected partly invalid ranges to be tolerated, got %v", err)
	}
}

func TestCameraService_UpdateCamera(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	camera, err := service.CreateCamera(CreateCameraRequest{
		Name:        "FrontCam",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "1-3",
	})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	updated, err := service.UpdateCamera(UpdateCameraRequest{
		ID:          camera.ID,
		Name:        "BackCam",
		SourcePath:  "/footage/back.mkv",
		FrameRanges: "5,7",
		ShowPreview: true,
	})
	if err != nil {
		t.Fatalf("Failed to update camera: %v", err)
	}

	if updated.Name != "BackCam" {
		t.Errorf("Expected name BackCam, got %s", updated.Name)
	}
	if updated.SourcePath != "/footage/back.mkv" {
		t.Errorf("Expected updated source path, got %s", updated.SourcePath)
	}
	if !updated.ShowPreview {
		t.Error("Expected show preview to be enabled")
	}
}

func TestCameraService_UpdateCamera_NotFound(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.UpdateCamera(UpdateCameraRequest{
		ID:   "missing",
		Name: "Cam",
	})
	if err == nil {
		t.Fatal("Expected error for missing camera")
	}
	if !IsCameraNotFoundError(err) {
		t.Errorf("Expected CameraNotFoundError, got %v", err)
	}
}

func TestCameraService_UpdateCamera_RenameCollision(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if _, err := service.CreateCamera(CreateCameraRequest{Name: "CamA"}); err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}
	camB, err := service.CreateCamera(CreateCameraRequest{Name: "CamB"})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	_, err = service.UpdateCamera(UpdateCameraRequest{ID: camB.ID, Name: "CamA"})
	if err == nil {
		t.Fatal("Expected error renaming to an existing name")
	}
	if !IsCameraAlreadyExistsError(err) {
		t.Errorf("Expected CameraAlreadyExistsError, got %v", err)
	}
}

func TestCameraService_DeleteCamera(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	camera, err := service.CreateCamera(CreateCameraRequest{Name: "FrontCam"})
	if err != nil {
		t.Fatalf("Failed to create camera: %v", err)
	}

	if err := service.DeleteCamera(camera.ID); err != nil {
		t.Fatalf("Failed to delete camera: %v", err)
	}

	retrieved, err := service.GetCamera(camera.ID)
	if err != nil {
		t.Fatalf("Failed to check deleted camera: %v", err)
	}
	if retrieved != nil {
		t.Error("Expected camera to be gone after deletion")
	}

	err = service.DeleteCamera(camera.ID)
	if !IsCameraNotFoundError(err) {
		t.Errorf("Expected CameraNotFoundError, got %v", err)
	}
}
