package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatihtunali/whisper2-sub009/pkg/storage/memory"
)

func TestChecker_CheckAll_HealthyWhenStorageReachable(t *testing.T) {
	checker := NewChecker(memory.NewStore(), "memory")
	report := checker.CheckAll(t.Context())
	require.Equal(t, StatusHealthy, report.Status)
	assert.True(t, report.Storage.Connected)
	assert.Equal(t, "memory", report.Storage.Backend)
}

func TestHandler_Live_AlwaysOK(t *testing.T) {
	h := NewHandler(NewChecker(memory.NewStore(), "memory"))
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Ready_OKWhenStorageReachable(t *testing.T) {
	h := NewHandler(NewChecker(memory.NewStore(), "memory"))
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
