package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPServer(fs *fakeStore) *HTTPServer {
	return NewHTTPServer(newTestService(fs), "*")
}

func doJSON(t *testing.T, server *HTTPServer, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodePayload(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
	}
	return payload
}

func signUpOverHTTP(t *testing.T, server *HTTPServer) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "correct-horse",
		"displayName": "Avery",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	token, _ := decodePayload(t, rr)["token"].(string)
	if token == "" {
		t.Fatal("signup: expected token")
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())
	rr := doJSON(t, server, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodePayload(t, rr)["ok"] != true {
		t.Fatalf("expected ok true, got %s", rr.Body.String())
	}
}

func TestReadyEndpointReportsDatabase(t *testing.T) {
	fs := newFakeStore()
	server := newTestHTTPServer(fs)

	rr := doJSON(t, server, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	fs.pingErr = errors.New("connection refused")
	rr = doJSON(t, server, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["status"] != "not_ready" {
		t.Fatalf("expected not_ready, got %v", payload["status"])
	}
}

func TestProjectRoutesRequireSession(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())
	for _, path := range []string{"/api/projects", "/api/search?q=x"} {
		rr := doJSON(t, server, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
		if decodePayload(t, rr)["code"] != "UNAUTHORIZED" {
			t.Fatalf("%s: expected UNAUTHORIZED code, got %s", path, rr.Body.String())
		}
	}

	rr := doJSON(t, server, http.MethodGet, "/api/projects", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", rr.Code)
	}
}

func TestSessionEndpointToleratesAnonymous(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())

	rr := doJSON(t, server, http.MethodGet, "/api/session", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodePayload(t, rr)["authenticated"] != false {
		t.Fatalf("expected authenticated false, got %s", rr.Body.String())
	}

	token := signUpOverHTTP(t, server)
	rr = doJSON(t, server, http.MethodGet, "/api/session", token, nil)
	payload := decodePayload(t, rr)
	if payload["authenticated"] != true || payload["userName"] != "Avery" {
		t.Fatalf("expected authenticated session for Avery, got %s", rr.Body.String())
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())
	signUpOverHTTP(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "another-pass",
		"displayName": "Avery Again",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if decodePayload(t, rr)["code"] != "EMAIL_EXISTS" {
		t.Fatalf("expected EMAIL_EXISTS, got %s", rr.Body.String())
	}
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	fs := newFakeStore()
	server := newTestHTTPServer(fs)
	token := signUpOverHTTP(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/projects", token, validCreateInput())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodePayload(t, rr)
	projectID, _ := created["id"].(string)
	if projectID == "" {
		t.Fatal("create: expected project id")
	}
	if created["created_by"] != "Avery" {
		t.Fatalf("create: expected actor from session, got %v", created["created_by"])
	}

	rr = doJSON(t, server, http.MethodGet, "/api/projects", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	projects := decodePayload(t, rr)["projects"].([]any)
	if len(projects) != 1 {
		t.Fatalf("list: expected 1 project, got %d", len(projects))
	}

	rr = doJSON(t, server, http.MethodGet, "/api/projects/"+projectID+"/checklist", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("checklist: expected 200, got %d", rr.Code)
	}
	items := decodePayload(t, rr)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("checklist: expected 2 items, got %d", len(items))
	}
	itemID := items[0].(map[string]any)["id"].(string)

	rr = doJSON(t, server, http.MethodPatch, "/api/projects/"+projectID+"/checklist/items/"+itemID, token, map[string]any{
		"status": "in_progress",
		"owner":  "Dana",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch item: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["status"] != "in_progress" {
		t.Fatalf("patch item: unexpected payload %s", rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPatch, "/api/projects/"+projectID, token, map[string]any{
		"description": "Updated over HTTP",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch project: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodDelete, "/api/projects/"+projectID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/projects/"+projectID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rr.Code)
	}

	// Audit log still serves the deleted project's trail.
	rr = doJSON(t, server, http.MethodGet, "/api/projects/"+projectID+"/audit-log", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("audit-log: expected 200, got %d", rr.Code)
	}
	events := decodePayload(t, rr)["events"].([]any)
	if len(events) == 0 {
		t.Fatal("audit-log: expected events for a deleted project")
	}
	if events[0].(map[string]any)["action"] != "project.deleted" {
		t.Fatalf("audit-log: expected newest event project.deleted, got %v", events[0])
	}
}

func TestProjectCreateValidationOverHTTP(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())
	token := signUpOverHTTP(t, server)

	input := validCreateInput()
	input.DeploymentEnvironment = "Bare Metal"
	rr := doJSON(t, server, http.MethodPost, "/api/projects", token, input)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	if decodePayload(t, rr)["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", rr.Body.String())
	}
}

func TestEvidenceUploadOverHTTP(t *testing.T) {
	fs := newFakeStore()
	server := newTestHTTPServer(fs)
	token := signUpOverHTTP(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/projects", token, validCreateInput())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	projectID := decodePayload(t, rr)["id"].(string)
	itemID := fs.items[projectID][0].ID

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "scan.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("evidence bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	path := fmt.Sprintf("/api/projects/%s/checklist/items/%s/evidence", projectID, itemID)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d body=%s", recorder.Code, recorder.Body.String())
	}
	payload := decodePayload(t, recorder)
	if payload["file_name"] != "scan.pdf" {
		t.Fatalf("upload: unexpected payload %s", recorder.Body.String())
	}
}

func TestExportFormatValidation(t *testing.T) {
	fs := newFakeStore()
	server := newTestHTTPServer(fs)
	token := signUpOverHTTP(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/projects", token, validCreateInput())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	projectID := decodePayload(t, rr)["id"].(string)

	rr = doJSON(t, server, http.MethodPost, "/api/projects/"+projectID+"/export", token, map[string]any{"format": "xlsx"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unsupported format, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/projects/"+projectID+"/export", token, map[string]any{"format": "pdf"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for pdf export, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="checklist.pdf"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
}

func TestSearchQueryValidation(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())
	token := signUpOverHTTP(t, server)

	rr := doJSON(t, server, http.MethodGet, "/api/search?q=encryption&limit=abc", token, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad limit, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/search?q=encryption", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	if payload["query"] != "encryption" {
		t.Fatalf("expected query echo, got %s", rr.Body.String())
	}
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	server := newTestHTTPServer(newFakeStore())

	rr := doJSON(t, server, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "correct-horse",
		"displayName": "Avery",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", rr.Code)
	}
	refreshToken := decodePayload(t, rr)["refreshToken"].(string)

	rr = doJSON(t, server, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/session/refresh", "", map[string]any{"refreshToken": refreshToken})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh replay: expected 401, got %d", rr.Code)
	}
}
