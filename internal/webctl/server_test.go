package webctl

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"motionplus/internal/camthread"
)

type fakeActionSetter struct {
	mu     sync.Mutex
	camera string
	flags  camthread.ActionFlags
	calls  int
}

func (f *fakeActionSetter) SetCameraAction(camera string, a camthread.ActionFlags) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.camera = camera
	f.flags = a
	f.calls++
}

type fakeFrameSource struct {
	jpeg map[string][]byte
}

func (f *fakeFrameSource) LatestJPEG(camera string) ([]byte, bool) {
	img, ok := f.jpeg[camera]
	return img, ok
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	auth := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)
	actions := &fakeActionSetter{}
	frames := &fakeFrameSource{jpeg: map[string][]byte{"cam0": []byte("jpegbytes")}}
	srv := NewServer(auth, actions, frames)

	tok, err := auth.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return srv, tok
}

func TestHandleLoginReturnsToken(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "s3cret"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.Mux().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected a non-empty token in the login response")
	}
}

func TestHandleSnapshotRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/snapshot/cam0", nil)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("status = %d, want 401 without a bearer token", w.Code)
	}
}

func TestHandleSnapshotReturnsJPEGWithToken(t *testing.T) {
	srv, tok := newTestServer(t)

	req := httptest.NewRequest("GET", "/snapshot/cam0", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "jpegbytes" {
		t.Fatalf("body = %q, want jpegbytes", w.Body.String())
	}
}

func TestHandleSnapshotNotFoundForUnknownCamera(t *testing.T) {
	srv, tok := newTestServer(t)

	req := httptest.NewRequest("GET", "/snapshot/unknown", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 404 {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleActionAppliesFlagsToNamedCamera(t *testing.T) {
	srv, tok := newTestServer(t)
	actions := srv.actions.(*fakeActionSetter)

	req := httptest.NewRequest("POST", "/action/cam0/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 204 {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	actions.mu.Lock()
	defer actions.mu.Unlock()
	if actions.camera != "cam0" || !actions.flags.Snapshot {
		t.Fatalf("action not applied correctly: camera=%q flags=%+v", actions.camera, actions.flags)
	}
}

func TestHandleActionRejectsUnknownAction(t *testing.T) {
	srv, tok := newTestServer(t)

	req := httptest.NewRequest("POST", "/action/cam0/bogus", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 400 {
		t.Fatalf("status = %d, want 400 for an unrecognised action", w.Code)
	}
}

func TestRequireAuthAcceptsTokenFromQueryParam(t *testing.T) {
	srv, tok := newTestServer(t)

	req := httptest.NewRequest("GET", "/snapshot/cam0?token="+tok, nil)
	w := httptest.NewRecorder()
	srv.Mux().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200 when the token is passed as a query param", w.Code)
	}
}
