package client

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// MockRenderServerClient is an in-memory implementation of RenderServerClient
// for tests and offline development.
type MockRenderServerClient struct {
	Cameras   []CameraResponse
	Batches   []BatchResponse
	Jobs      map[string][]JobResponse
	Stills    []StillResponse
	Files     map[string][]byte
	Settings  SceneSettingsResponse
	Status    *BatchStatusResponse
	Err       error // when set, every call fails with this error
	nextIndex int
}

// NewMockRenderServerClient creates an empty mock client
func NewMockRenderServerClient() *MockRenderServerClient {
	return &MockRenderServerClient{
		Jobs:  make(map[string][]JobResponse),
		Files: make(map[string][]byte),
		Settings: SceneSettingsResponse{
			OutputDir: "/tmp/output",
			Format:    "PNG",
			FrameRate: 24,
		},
	}
}

func (m *MockRenderServerClient) ListCameras(ctx context.Context) ([]CameraResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	cameras := make([]CameraResponse, len(m.Cameras))
	copy(cameras, m.Cameras)
	sort.Slice(cameras, func(i, j int) bool { return cameras[i].Position < cameras[j].Position })
	return cameras, nil
}

func (m *MockRenderServerClient) GetCamera(ctx context.Context, id string) (*CameraResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, camera := range m.Cameras {
		if camera.ID == id {
			return &camera, nil
		}
	}
	return nil, NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("Camera not found"))
}

func (m *MockRenderServerClient) CreateCamera(ctx context.Context, request CameraRequest) (*CameraResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, camera := range m.Cameras {
		if camera.Name == request.Name {
			return nil, NewNonRecoverableServerError(http.StatusConflict, fmt.Errorf("a camera named %s already exists", request.Name))
		}
	}

	m.nextIndex++
	camera := CameraResponse{
		ID:          fmt.Sprintf("camera-%d", m.nextIndex),
		Name:        request.Name,
		SourcePath:  request.SourcePath,
		FrameRanges: request.FrameRanges,
		ShowPreview: request.ShowPreview,
		Position:    len(m.Cameras) + 1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.Cameras = append(m.Cameras, camera)
	return &camera, nil
}

func (m *MockRenderServerClient) UpdateCamera(ctx context.Context, id string, request CameraRequest) (*CameraResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i, camera := range m.Cameras {
		if camera.ID == id {
			camera.Name = request.Name
			camera.SourcePath = request.SourcePath
			camera.FrameRanges = request.FrameRanges
			camera.ShowPreview = request.ShowPreview
			camera.UpdatedAt = time.Now()
			m.Cameras[i] = camera
			return &camera, nil
		}
	}
	return nil, NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("Camera not found"))
}

func (m *MockRenderServerClient) DeleteCamera(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	for i, camera := range m.Cameras {
		if camera.ID == id {
			m.Cameras = append(m.Cameras[:i], m.Cameras[i+1:]...)
			return nil
		}
	}
	return NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("Camera not found"))
}

func (m *MockRenderServerClient) StartBatch(ctx context.Context) (*BatchResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Status != nil && m.Status.Running {
		return nil, NewNonRecoverableServerError(http.StatusConflict, fmt.Errorf("a batch is already in progress"))
	}

	m.nextIndex++
	now := time.Now()
	batch := BatchResponse{
		ID:        fmt.Sprintf("batch-%d", m.nextIndex),
		State:     "running",
		CreatedAt: now,
		StartedAt: &now,
	}
	m.Batches = append([]BatchResponse{batch}, m.Batches...)
	m.Status = &BatchStatusResponse{Running: true, Batch: &batch}
	return &batch, nil
}

func (m *MockRenderServerClient) CancelBatch(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Status == nil || !m.Status.Running {
		return NewNonRecoverableServerError(http.StatusConflict, fmt.Errorf("no batch is running"))
	}
	for i, batch := range m.Batches {
		if batch.ID == id {
			m.Batches[i].State = "cancelled"
			m.Status = nil
			return nil
		}
	}
	return NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("batch not found"))
}

func (m *MockRenderServerClient) ListBatches(ctx context.Context) ([]BatchResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	batches := make([]BatchResponse, len(m.Batches))
	copy(batches, m.Batches)
	return batches, nil
}

func (m *MockRenderServerClient) GetBatch(ctx context.Context, id string) (*BatchDetailResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, batch := range m.Batches {
		if batch.ID == id {
			return &BatchDetailResponse{Batch: batch, Jobs: m.Jobs[id]}, nil
		}
	}
	return nil, NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("batch not found"))
}

func (m *MockRenderServerClient) GetBatchStatus(ctx context.Context) (*BatchStatusResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Status == nil {
		return &BatchStatusResponse{Running: false}, nil
	}
	return m.Status, nil
}

func (m *MockRenderServerClient) ListStills(ctx context.Context, options StillListOptions) (*StillListResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	matching := make([]StillResponse, 0, len(m.Stills))
	for _, still := range m.Stills {
		if options.BatchID != "" && still.BatchID != options.BatchID {
			continue
		}
		if options.CameraName != "" && still.CameraName != options.CameraName {
			continue
		}
		matching = append(matching, still)
	}
	total := len(matching)

	if options.Offset > 0 {
		if options.Offset >= len(matching) {
			matching = nil
		} else {
			matching = matching[options.Offset:]
		}
	}
	if options.Limit > 0 && options.Limit < len(matching) {
		matching = matching[:options.Limit]
	}

	return &StillListResponse{Stills: matching, Total: total}, nil
}

func (m *MockRenderServerClient) FetchStillFile(ctx context.Context, id string) ([]byte, string, error) {
	if m.Err != nil {
		return nil, "", m.Err
	}
	data, ok := m.Files[id]
	if !ok {
		return nil, "", NewNonRecoverableServerError(http.StatusNotFound, fmt.Errorf("Still not found"))
	}
	return data, "image/png", nil
}

func (m *MockRenderServerClient) GetSceneSettings(ctx context.Context) (*SceneSettingsResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	settings := m.Settings
	return &settings, nil
}

func (m *MockRenderServerClient) UpdateSceneSettings(ctx context.Context, request UpdateSceneSettingsRequest) error {
	if m.Err != nil {
		return m.Err
	}
	m.Settings = SceneSettingsResponse{
		OutputDir: request.OutputDir,
		Format:    request.Format,
		Overwrite: request.Overwrite,
		FrameRate: request.FrameRate,
	}
	return nil
}
