package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/mocks"
	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/presentation"
	"github.com/zjrosen/modelreg/internal/registry"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

var created = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func testModel(t *testing.T) predictor.Model {
	t.Helper()
	m, err := predictor.NewLinear([]string{"home_form", "away_form"}, []float64{1, -1}, 0, [2]float64{-0.5, 0.5})
	require.NoError(t, err)
	return m
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// === Tests ===

func TestHandler_ListModelTypes(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().ModelTypes(mock.Anything).Return([]string{"linear", "rf"}).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/model-types", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"model_types":["linear","rf"]}`, w.Body.String())
}

func TestHandler_Latest(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().LatestVersion(mock.Anything, "rf").Return("rf_20250303_100000", true).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/model-types/rf/latest", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp LatestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, LatestResponse{ModelType: "rf", VersionName: "rf_20250303_100000"}, resp)
}

func TestHandler_Latest_NotFound(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().LatestVersion(mock.Anything, "svm").Return("", false).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/model-types/svm/latest", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "not_found", resp.Code)
	assert.Equal(t, "svm", resp.Details)
}

func TestHandler_ListVersions(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().ListVersions(mock.Anything, "rf").Return([]registry.Summary{
		{ID: 2, VersionName: "rf_b", ModelType: "rf", CreationDate: created.Add(time.Hour)},
		{ID: 1, VersionName: "rf_a", ModelType: "rf", CreationDate: created},
	}).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/versions?model_type=rf", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp presentation.VersionListDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "rf_b", resp.Versions[0].VersionName)
	assert.Equal(t, "2025-03-03T11:00:00Z", resp.Versions[0].CreationDate)
}

func TestHandler_ListVersions_Empty(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().ListVersions(mock.Anything, "").Return([]registry.Summary{}).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/versions", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"versions":[],"total":0}`, w.Body.String())
}

func TestHandler_GetVersion(t *testing.T) {
	v := domain.ReconstituteModelVersion(
		7, "rf_20250303_100000", "rf", "weekly retrain",
		map[string]any{"n_estimators": float64(200)},
		[]domain.FeatureScore{{Feature: "home_form", Importance: 0.7}},
		map[string]float64{"accuracy": 0.61},
		"rf_20250303_100000.gob", "gob", created,
	)
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().VersionDetails(mock.Anything, "rf_20250303_100000").Return(v, true).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/versions/rf_20250303_100000", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp presentation.DetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, presentation.FromVersion(v), resp)
}

func TestHandler_GetVersion_NotFound(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().VersionDetails(mock.Anything, "missing").Return(nil, false).Once()

	w := serve(NewHandler(reg), http.MethodGet, "/versions/missing", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)
}

func TestHandler_Predict_ByName(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().Load(mock.Anything, registry.LoadRef{VersionName: "linear_1"}).Return(testModel(t), true).Once()

	body := `{"version_name": "linear_1", "model_type": "ignored", "features": [[1, 0], [0, 0], [0, 1]]}`
	w := serve(NewHandler(reg), http.MethodPost, "/predict", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"version_name":"linear_1","predictions":["win","draw","loss"]}`, w.Body.String())
}

func TestHandler_Predict_ByTypeUsesLatest(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().LatestVersion(mock.Anything, "linear").Return("linear_2", true).Once()
	reg.EXPECT().Load(mock.Anything, registry.LoadRef{VersionName: "linear_2"}).Return(testModel(t), true).Once()

	w := serve(NewHandler(reg), http.MethodPost, "/predict", `{"model_type": "linear", "features": [[2, 0]]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "linear_2", resp.VersionName)
	assert.Equal(t, []predictor.Outcome{predictor.Win}, resp.Predictions)
}

func TestHandler_Predict_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", "not json", "invalid_json"},
		{"no reference", `{"features": [[1, 0]]}`, "insufficient_arguments"},
		{"no features", `{"version_name": "linear_1"}`, "validation_error"},
		{"empty features", `{"version_name": "linear_1", "features": []}`, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := mocks.NewMockRegistry(t)

			w := serve(NewHandler(reg), http.MethodPost, "/predict", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestHandler_Predict_BodyTooLarge(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	row := "[" + strings.Repeat("0,", MaxPredictBodyBytes/2) + "0]"

	w := serve(NewHandler(reg), http.MethodPost, "/predict", `{"version_name": "linear_1", "features": [`+row+`]}`)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "request_too_large", decodeError(t, w).Code)
}

func TestHandler_Predict_FeatureMismatch(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().Load(mock.Anything, registry.LoadRef{VersionName: "linear_1"}).Return(testModel(t), true).Once()

	w := serve(NewHandler(reg), http.MethodPost, "/predict", `{"version_name": "linear_1", "features": [[1, 0, 3]]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "validation_error", resp.Code)
	assert.Contains(t, resp.Details, "feature count mismatch")
}

func TestHandler_Predict_Unavailable(t *testing.T) {
	t.Run("no latest", func(t *testing.T) {
		reg := mocks.NewMockRegistry(t)
		reg.EXPECT().LatestVersion(mock.Anything, "svm").Return("", false).Once()

		w := serve(NewHandler(reg), http.MethodPost, "/predict", `{"model_type": "svm", "features": [[1]]}`)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "model_unavailable", decodeError(t, w).Code)
	})

	t.Run("load fails", func(t *testing.T) {
		reg := mocks.NewMockRegistry(t)
		reg.EXPECT().Load(mock.Anything, registry.LoadRef{VersionName: "broken"}).Return(nil, false).Once()

		w := serve(NewHandler(reg), http.MethodPost, "/predict", `{"version_name": "broken", "features": [[1]]}`)

		require.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "model_unavailable", resp.Code)
		assert.Equal(t, "broken", resp.Details)
	})
}

func TestHandler_Health(t *testing.T) {
	w := serve(NewHandler(mocks.NewMockRegistry(t)), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	w := serve(NewHandler(mocks.NewMockRegistry(t)), http.MethodDelete, "/versions/linear_1", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandler_RequestID(t *testing.T) {
	h := NewHandler(mocks.NewMockRegistry(t))

	t.Run("echoes incoming", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, req)
		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates when missing", func(t *testing.T) {
		w := serve(h, http.MethodGet, "/health", "")
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("replaces oversized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, req)
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestRequestIDFrom_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestServer_StartStop(t *testing.T) {
	reg := mocks.NewMockRegistry(t)
	reg.EXPECT().ModelTypes(mock.Anything).Return([]string{"linear"}).Once()

	srv, err := NewServer(ServerConfig{Addr: "localhost:0", Registry: reg})
	require.NoError(t, err)
	require.NotZero(t, srv.Port())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/model-types", srv.Port()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, <-done)
}
