package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"live-dictation-service/internal/capture"
	"live-dictation-service/internal/engine/mock"
	"live-dictation-service/internal/session"
)

type silentDevice struct{}

func (silentDevice) Start(ctx context.Context) (<-chan capture.Frame, error) {
	out := make(chan capture.Frame)
	close(out)
	return out, nil
}

func (silentDevice) Stop() error { return nil }

func newTestRouter(t *testing.T) (*session.Session, *httptest.Server) {
	t.Helper()
	sess := session.New(session.Options{
		Engine:  mock.New(mock.Options{}),
		Device:  silentDevice{},
		Locale:  "en-US",
		Capture: capture.DefaultConfig(),
	})
	srv := httptest.NewServer(NewRouter(sess))
	t.Cleanup(func() {
		srv.Close()
		sess.Close()
	})
	return sess, srv
}

func TestRouter_Liveness(t *testing.T) {
	_, srv := newTestRouter(t)

	resp, err := srv.Client().Get(srv.URL + "/v1/liveness")
	if err != nil {
		t.Fatalf("liveness request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_ReadinessFollowsModelState(t *testing.T) {
	sess, srv := newTestRouter(t)

	resp, err := srv.Client().Get(srv.URL + "/v1/readiness")
	if err != nil {
		t.Fatalf("readiness request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Errorf("expected 503 before load, got %d", resp.StatusCode)
	}

	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && sess.Status().ModelState != "READY" {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err = srv.Client().Get(srv.URL + "/v1/readiness")
	if err != nil {
		t.Fatalf("readiness request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 once ready, got %d", resp.StatusCode)
	}
}

func TestRouter_Status(t *testing.T) {
	sess, srv := newTestRouter(t)

	resp, err := srv.Client().Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	var st session.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.SessionID != sess.ID {
		t.Errorf("expected session ID %s, got %s", sess.ID, st.SessionID)
	}
	if st.CaptureState != "IDLE" {
		t.Errorf("expected capture state IDLE, got %s", st.CaptureState)
	}
}

func TestRouter_Transcript(t *testing.T) {
	_, srv := newTestRouter(t)

	resp, err := srv.Client().Get(srv.URL + "/v1/transcript")
	if err != nil {
		t.Fatalf("transcript request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if _, ok := body["transcript"]; !ok {
		t.Error("expected transcript field in response")
	}
}
