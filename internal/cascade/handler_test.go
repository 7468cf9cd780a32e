package cascade

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"hrms-backend/internal/hr"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _, _ := newTestService(t)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestTransitionEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := doJSON(r, http.MethodPost, "/api/v1/transitions", `{"kind":"applications","id":1,"status":"COMPLETED"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var res struct {
		Kind     string   `json:"kind"`
		Previous string   `json:"previousStatus"`
		Changed  bool     `json:"changed"`
		Affected []string `json:"affected"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Kind != "application" || res.Previous != hr.AppPending || !res.Changed || len(res.Affected) < 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStatusEndpointErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown id", http.MethodPut, "/api/v1/positions/404/status", `{"status":"FILLED"}`, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodPut, "/api/v1/positions/abc/status", `{"status":"FILLED"}`, http.StatusBadRequest, "validation_error"},
		{"empty status", http.MethodPut, "/api/v1/candidates/1/status", `{"status":""}`, http.StatusBadRequest, "validation_error"},
		{"bad json", http.MethodPut, "/api/v1/recruiters/1/status", `{`, http.StatusBadRequest, "validation_error"},
		{"unknown kind", http.MethodPost, "/api/v1/transitions", `{"kind":"teams","id":1,"status":"X"}`, http.StatusBadRequest, "validation_error"},
		{"hire unknown", http.MethodPost, "/api/v1/applications/99/hire", ``, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(r, tc.method, tc.path, tc.body)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if code := errorCode(t, resp); code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, code)
			}
		})
	}
}

func TestHireConflictEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	if resp := doJSON(r, http.MethodPut, "/api/v1/applications/2/status", `{"status":"REJECTED"}`); resp.Code != http.StatusOK {
		t.Fatalf("reject: %d", resp.Code)
	}
	resp := doJSON(r, http.MethodPost, "/api/v1/applications/2/hire", ``)
	if resp.Code != http.StatusConflict || errorCode(t, resp) != "conflict" {
		t.Fatalf("expected 409 conflict, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetEntityEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := doJSON(r, http.MethodGet, "/api/v1/entities/candidate/2", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var cand hr.Candidate
	if err := json.Unmarshal(resp.Body.Bytes(), &cand); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cand.Name != "Jordan Patel" {
		t.Fatalf("unexpected candidate %+v", cand)
	}
}

func TestSubmitAndHireEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := doJSON(r, http.MethodPost, "/api/v1/applications", `{"name":"Casey Morgan","positionId":1}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var sub Submission
	if err := json.Unmarshal(resp.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := "/api/v1/applications/" + strconv.FormatInt(sub.Application.ID, 10) + "/hire"
	if resp := doJSON(r, http.MethodPost, path, ""); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first hire, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodPost, path, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeated hire, got %d", resp.Code)
	}
}

func TestOnboardingTaskEndpointRequiresCompleted(t *testing.T) {
	r, svc := newTestRouter(t)
	hire, err := svc.ProcessNewHire(t.Context(), 1)
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	path := "/api/v1/onboarding/" + strconv.FormatInt(hire.Onboarding.ID, 10) + "/tasks/1"
	if resp := doJSON(r, http.MethodPatch, path, `{}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodPatch, path, `{"completed":true}`); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDepartmentAndRecruiterEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	if resp := doJSON(r, http.MethodPut, "/api/v1/departments/Sales/head", `{"head":"Ana Ruiz"}`); resp.Code != http.StatusOK {
		t.Fatalf("head: %d %s", resp.Code, resp.Body.String())
	}
	if resp := doJSON(r, http.MethodPost, "/api/v1/recruiters/1/performance", `{"delta":0}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("zero delta: expected 400, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodPut, "/api/v1/applications/1/recruiter", `{"recruiterId":3}`); resp.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.Code, resp.Body.String())
	}
}
