package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skilldeck/pkg/registry"
)

// mockSkillService implements registry.ServiceInterface for testing
type mockSkillService struct {
	listFunc    func(ctx context.Context, req *registry.ListRequest) (*registry.ListResponse, error)
	getFunc     func(ctx context.Context, id string) (*registry.SkillDetail, error)
	deleteFunc  func(ctx context.Context, id string) error
	revealFunc  func(ctx context.Context, id string) error
	refreshFunc func(ctx context.Context) (*registry.RefreshResult, error)
	statsFunc   func(ctx context.Context) (*registry.StatsResult, error)
}

func (m *mockSkillService) List(ctx context.Context, req *registry.ListRequest) (*registry.ListResponse, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, req)
	}
	return &registry.ListResponse{Skills: []registry.SkillSummary{}}, nil
}

func (m *mockSkillService) Get(ctx context.Context, id string) (*registry.SkillDetail, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &registry.SkillDetail{}, nil
}

func (m *mockSkillService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSkillService) Reveal(ctx context.Context, id string) error {
	if m.revealFunc != nil {
		return m.revealFunc(ctx, id)
	}
	return nil
}

func (m *mockSkillService) Refresh(ctx context.Context) (*registry.RefreshResult, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return &registry.RefreshResult{}, nil
}

func (m *mockSkillService) Stats(ctx context.Context) (*registry.StatsResult, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &registry.StatsResult{Categories: map[string]int{}}, nil
}

func newTestServer(t *testing.T, service registry.ServiceInterface) *Server {
	t.Helper()
	server, err := NewServer(&ServerConfig{
		Host:     "localhost",
		Port:     8765,
		Language: LanguageEnglish,
	}, service)
	require.NoError(t, err)
	return server
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		config        *ServerConfig
		expectedError string
	}{
		{
			name: "valid config",
			config: &ServerConfig{
				Host: "localhost",
				Port: 8765,
			},
		},
		{
			name: "empty host",
			config: &ServerConfig{
				Host: "",
				Port: 8765,
			},
			expectedError: "host cannot be empty",
		},
		{
			name: "invalid port - too low",
			config: &ServerConfig{
				Host: "localhost",
				Port: 0,
			},
			expectedError: "port must be between 1 and 65535",
		},
		{
			name: "invalid port - too high",
			config: &ServerConfig{
				Host: "localhost",
				Port: 65536,
			},
			expectedError: "port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServer_handleListSkills(t *testing.T) {
	var gotReq *registry.ListRequest
	mockService := &mockSkillService{
		listFunc: func(ctx context.Context, req *registry.ListRequest) (*registry.ListResponse, error) {
			gotReq = req
			return &registry.ListResponse{
				Skills: []registry.SkillSummary{
					{ID: "code-review", Name: "Code Review"},
					{ID: "planner", Name: "Planner"},
				},
				Total: 2,
			}, nil
		},
	}

	server := &Server{skills: mockService, router: mux.NewRouter()}

	req := httptest.NewRequest("GET", "/api/skills?query=review&category=dev", nil)
	w := httptest.NewRecorder()

	server.handleListSkills(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NotNil(t, gotReq)
	assert.Equal(t, "review", gotReq.Query)
	assert.Equal(t, "dev", gotReq.Category)

	var response registry.ListResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Len(t, response.Skills, 2)
	assert.Equal(t, 2, response.Total)
}

func TestServer_handleListSkills_UnknownCategory(t *testing.T) {
	mockService := &mockSkillService{
		listFunc: func(ctx context.Context, req *registry.ListRequest) (*registry.ListResponse, error) {
			return nil, pkgerrors.Wrapf(registry.ErrInvalidCategory, "%q", req.Category)
		},
	}

	server := &Server{skills: mockService, router: mux.NewRouter()}

	req := httptest.NewRequest("GET", "/api/skills?category=bogus", nil)
	w := httptest.NewRecorder()

	server.handleListSkills(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Unknown category"}`, w.Body.String())
}

func TestServer_handleGetSkill(t *testing.T) {
	mockService := &mockSkillService{
		getFunc: func(ctx context.Context, id string) (*registry.SkillDetail, error) {
			if id != "code-review" {
				return nil, pkgerrors.Wrapf(registry.ErrNotFound, "skill %q", id)
			}
			return &registry.SkillDetail{
				SkillSummary: registry.SkillSummary{
					ID:       "code-review",
					Name:     "Code Review",
					Category: "dev",
				},
				Content:     "# Code Review",
				ContentHTML: "<h1>Code Review</h1>",
			}, nil
		},
	}

	server := &Server{skills: mockService, router: mux.NewRouter()}

	req := httptest.NewRequest("GET", "/api/skills/code-review", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "code-review"})
	w := httptest.NewRecorder()

	server.handleGetSkill(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response registry.SkillDetail
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "code-review", response.ID)
	assert.Equal(t, "<h1>Code Review</h1>", response.ContentHTML)
}

func TestServer_handleGetSkill_NotFound(t *testing.T) {
	mockService := &mockSkillService{
		getFunc: func(ctx context.Context, id string) (*registry.SkillDetail, error) {
			return nil, pkgerrors.Wrapf(registry.ErrNotFound, "skill %q", id)
		},
	}

	server := &Server{skills: mockService, router: mux.NewRouter()}

	req := httptest.NewRequest("GET", "/api/skills/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	w := httptest.NewRecorder()

	server.handleGetSkill(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Skill not found"}`, w.Body.String())
}

func TestServer_handleDeleteSkill(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		deleteErr      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful delete",
			id:             "code-review",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			id:             "missing",
			deleteErr:      pkgerrors.Wrapf(registry.ErrNotFound, "skill %q", "missing"),
			expectedStatus: http.StatusNotFound,
			expectedError:  "Skill not found",
		},
		{
			name:           "traversal id",
			id:             "..",
			deleteErr:      pkgerrors.Wrapf(registry.ErrPathTraversal, "invalid skill id %q", ".."),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid skill path",
		},
		{
			name:           "filesystem failure",
			id:             "code-review",
			deleteErr:      pkgerrors.New("remove: permission denied"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to delete skill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleteCalled := false
			mockService := &mockSkillService{
				deleteFunc: func(ctx context.Context, id string) error {
					deleteCalled = true
					assert.Equal(t, tt.id, id)
					return tt.deleteErr
				},
			}

			server := &Server{skills: mockService, router: mux.NewRouter()}

			req := httptest.NewRequest("DELETE", "/api/skills/"+tt.id, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			server.handleDeleteSkill(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, deleteCalled)

			if tt.expectedError != "" {
				assert.JSONEq(t, `{"error":"`+tt.expectedError+`"}`, w.Body.String())
				return
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)
			assert.Equal(t, true, response["success"])
			assert.Equal(t, tt.id, response["id"])
		})
	}
}

func TestServer_handleRevealSkill(t *testing.T) {
	tests := []struct {
		name           string
		revealErr      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful reveal",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			revealErr:      pkgerrors.Wrapf(registry.ErrNotFound, "skill %q", "missing"),
			expectedStatus: http.StatusNotFound,
			expectedError:  "Skill not found",
		},
		{
			name:           "opener failure",
			revealErr:      pkgerrors.New("exec: xdg-open: not found"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to open skill folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockSkillService{
				revealFunc: func(ctx context.Context, id string) error {
					return tt.revealErr
				},
			}

			server := &Server{skills: mockService, router: mux.NewRouter()}

			req := httptest.NewRequest("POST", "/api/skills/code-review/reveal", nil)
			req = mux.SetURLVars(req, map[string]string{"id": "code-review"})
			w := httptest.NewRecorder()

			server.handleRevealSkill(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.JSONEq(t, `{"error":"`+tt.expectedError+`"}`, w.Body.String())
			} else {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
		})
	}
}

func TestServer_handleRefresh(t *testing.T) {
	mockService := &mockSkillService{
		refreshFunc: func(ctx context.Context) (*registry.RefreshResult, error) {
			return &registry.RefreshResult{Count: 4, Skipped: 1}, nil
		},
	}

	server := &Server{skills: mockService, router: mux.NewRouter()}

	req := httptest.NewRequest("GET", "/api/refresh", nil)
	w := httptest.NewRecorder()

	server.handleRefresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":4,"skipped":1}`, w.Body.String())
}

func TestServer_handleStatus(t *testing.T) {
	mockService := &mockSkillService{
		statsFunc: func(ctx context.Context) (*registry.StatsResult, error) {
			return &registry.StatsResult{
				Total:      3,
				Categories: map[string]int{"dev": 2, "other": 1},
			}, nil
		},
	}

	server := newTestServer(t, mockService)

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()

	server.handleStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(3), response["total"])
	assert.Equal(t, "en", response["language"])
	assert.NotEmpty(t, response["version"])
}

func TestServer_Routes(t *testing.T) {
	mockService := &mockSkillService{
		getFunc: func(ctx context.Context, id string) (*registry.SkillDetail, error) {
			return &registry.SkillDetail{SkillSummary: registry.SkillSummary{ID: id}}, nil
		},
	}
	server := newTestServer(t, mockService)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{"GET", "/api/skills", http.StatusOK},
		{"GET", "/api/skills/code-review", http.StatusOK},
		{"DELETE", "/api/skills/code-review", http.StatusOK},
		{"POST", "/api/skills/code-review/reveal", http.StatusOK},
		{"GET", "/api/refresh", http.StatusOK},
		{"GET", "/api/status", http.StatusOK},
		{"GET", "/", http.StatusOK},
		{"GET", "/no-such-page", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			server.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	server := newTestServer(t, &mockSkillService{})

	req := httptest.NewRequest("OPTIONS", "/api/skills", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8765", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestServer_handleDashboard(t *testing.T) {
	server := newTestServer(t, &mockSkillService{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.NotContains(t, body, langPlaceholder)
	assert.Contains(t, body, `"lang":"en"`)
	assert.Contains(t, body, "Skill Manager")
}

func TestServer_handleDashboard_Chinese(t *testing.T) {
	server, err := NewServer(&ServerConfig{
		Host:     "localhost",
		Port:     8765,
		Language: LanguageChinese,
	}, &mockSkillService{})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"lang":"zh"`))
}
