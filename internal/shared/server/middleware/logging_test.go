package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.PUT("/applications/:id/status", func(c *gin.Context) {
		c.Set(EntityKindKey, "application")
		c.Set(EntityIDKey, c.Param("id"))
		c.Set(StatusTransitionKey, "PENDING->COMPLETED")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	req := httptest.NewRequest(http.MethodPut, "/applications/7/status", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "entity_kind", "entity_id", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["entity_kind"] != "application" {
		t.Fatalf("unexpected entity_kind: %v", payload["entity_kind"])
	}
	if payload["entity_id"] != "7" {
		t.Fatalf("unexpected entity_id: %v", payload["entity_id"])
	}
	if payload["status_transition"] != "PENDING->COMPLETED" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
}
