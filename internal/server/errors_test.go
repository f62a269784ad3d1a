package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jegx07/namma-madurai-engine/internal/gazetteer"
	ingestdomain "github.com/Jegx07/namma-madurai-engine/internal/ingest/domain"
	reportdomain "github.com/Jegx07/namma-madurai-engine/internal/report/domain"
	"github.com/gin-gonic/gin"
)

var errTestInternal = errors.New("sql: connection reset")

func performWithError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, err)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error
}

func TestAbortWithErrorValidation(t *testing.T) {
	rec := performWithError(t, ingestdomain.NewValidationError("severity", "invalid_enum", "unknown severity"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != "invalid_enum" || apiErr.Field != "severity" {
		t.Fatalf("unexpected error body: %+v", apiErr)
	}
}

func TestAbortWithErrorUnknownArea(t *testing.T) {
	rec := performWithError(t, gazetteer.ErrUnknownArea)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != "unknown_area" {
		t.Fatalf("unexpected code: %s", apiErr.Code)
	}
}

func TestAbortWithErrorInvalidTransition(t *testing.T) {
	rec := performWithError(t, reportdomain.ErrInvalidTransition)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Retryable {
		t.Fatal("invalid transitions are not retryable")
	}
}

func TestAbortWithErrorConcurrentModificationIsRetryable(t *testing.T) {
	rec := performWithError(t, reportdomain.ErrConcurrentModification)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != "concurrent_modification" || !apiErr.Retryable {
		t.Fatalf("unexpected error body: %+v", apiErr)
	}
}

func TestAbortWithErrorNotFound(t *testing.T) {
	rec := performWithError(t, reportdomain.ErrTicketNotFound)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAbortWithErrorOpaqueInternal(t *testing.T) {
	rec := performWithError(t, errTestInternal)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Message != "internal error" {
		t.Fatalf("internals leaked: %+v", apiErr)
	}
}
