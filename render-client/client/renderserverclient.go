package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RenderServerClient handles communication with the render server
type RenderServerClient interface {
	ListCameras(ctx context.Context) ([]CameraResponse, error)
	GetCamera(ctx context.Context, id string) (*CameraResponse, error)
	CreateCamera(ctx context.Context, request CameraRequest) (*CameraResponse, error)
	UpdateCamera(ctx context.Context, id string, request CameraRequest) (*CameraResponse, error)
	DeleteCamera(ctx context.Context, id string) error

	StartBatch(ctx context.Context) (*BatchResponse, error)
	CancelBatch(ctx context.Context, id string) error
	ListBatches(ctx context.Context) ([]BatchResponse, error)
	GetBatch(ctx context.Context, id string) (*BatchDetailResponse, error)
	GetBatchStatus(ctx context.Context) (*BatchStatusResponse, error)

	ListStills(ctx context.Context, options StillListOptions) (*StillListResponse, error)
	FetchStillFile(ctx context.Context, id string) ([]byte, string, error)

	GetSceneSettings(ctx context.Context) (*SceneSettingsResponse, error)
	UpdateSceneSettings(ctx context.Context, request UpdateSceneSettingsRequest) error
}

// renderServerClient implements RenderServerClient using HTTP
type renderServerClient struct {
	serverURL      string
	operatorID     string
	operatorSecret string
	httpClient     *http.Client
}

// NewRenderServerClient creates a new HTTP render server client
func NewRenderServerClient(serverURL, operatorID, operatorSecret string, timeout time.Duration) RenderServerClient {
	return &renderServerClient{
		serverURL:      serverURL,
		operatorID:     operatorID,
		operatorSecret: operatorSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doJSON performs an authenticated request and decodes the JSON response into
// out (which may be nil when the body is not needed)
func (c *renderServerClient) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuth(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewRecoverableServerError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *renderServerClient) setAuth(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.operatorID + ":" + c.operatorSecret))
	req.Header.Set("Authorization", "Basic "+auth)
}

// statusError turns an error response into a typed ServerError, preserving
// the server's error message when the body carries one
func (c *renderServerClient) statusError(resp *http.Response) error {
	var message string
	var envelope errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	} else {
		message = fmt.Sprintf("server returned status %d", resp.StatusCode)
	}

	inner := fmt.Errorf("%s", message)
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return NewRecoverableServerError(resp.StatusCode, inner)
	}
	return NewNonRecoverableServerError(resp.StatusCode, inner)
}

func (c *renderServerClient) ListCameras(ctx context.Context) ([]CameraResponse, error) {
	var result struct {
		Cameras []CameraResponse `json:"cameras"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/cameras", nil, &result); err != nil {
		return nil, err
	}
	return result.Cameras, nil
}

func (c *renderServerClient) GetCamera(ctx context.Context, id string) (*CameraResponse, error) {
	var camera CameraResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/cameras/"+url.PathEscape(id), nil, &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

func (c *renderServerClient) CreateCamera(ctx context.Context, request CameraRequest) (*CameraResponse, error) {
	var camera CameraResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/cameras", request, &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

func (c *renderServerClient) UpdateCamera(ctx context.Context, id string, request CameraRequest) (*CameraResponse, error) {
	var camera CameraResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/cameras/"+url.PathEscape(id), request, &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

func (c *renderServerClient) DeleteCamera(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/cameras/"+url.PathEscape(id), nil, nil)
}

func (c *renderServerClient) StartBatch(ctx context.Context) (*BatchResponse, error) {
	var batch BatchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/batches", nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (c *renderServerClient) CancelBatch(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/batches/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *renderServerClient) ListBatches(ctx context.Context) ([]BatchResponse, error) {
	var result struct {
		Batches []BatchResponse `json:"batches"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/batches", nil, &result); err != nil {
		return nil, err
	}
	return result.Batches, nil
}

func (c *renderServerClient) GetBatch(ctx context.Context, id string) (*BatchDetailResponse, error) {
	var detail BatchDetailResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/batches/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *renderServerClient) GetBatchStatus(ctx context.Context) (*BatchStatusResponse, error) {
	var status BatchStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/batches/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *renderServerClient) ListStills(ctx context.Context, options StillListOptions) (*StillListResponse, error) {
	params := url.Values{}
	if options.BatchID != "" {
		params.Set("batch_id", options.BatchID)
	}
	if options.CameraName != "" {
		params.Set("camera", options.CameraName)
	}
	if options.Limit > 0 {
		params.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.Offset > 0 {
		params.Set("offset", strconv.Itoa(options.Offset))
	}

	path := "/api/stills"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result StillListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchStillFile downloads the full image file of a still. It returns the
// raw bytes and the content type the server reported.
func (c *renderServerClient) FetchStillFile(ctx context.Context, id string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/stills/"+url.PathEscape(id)+"/file", nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", NewRecoverableServerError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", c.statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *renderServerClient) GetSceneSettings(ctx context.Context) (*SceneSettingsResponse, error) {
	var settings SceneSettingsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/scene/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *renderServerClient) UpdateSceneSettings(ctx context.Context, request UpdateSceneSettingsRequest) error {
	return c.doJSON(ctx, http.MethodPut, "/api/scene/settings", request, nil)
}
