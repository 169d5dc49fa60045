package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/danmuck/slipmux/internal/link"
	"github.com/danmuck/slipmux/internal/testutil/testlog"
)

type recordingTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
}

func (r *recordingTransport) RegisterReceiver(func([]byte)) {}

func (r *recordingTransport) Send(b []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, b)
	return nil
}

func newTestServer(t *testing.T) (*Server, *recordingTransport, *recordingTransport) {
	t.Helper()
	up := &recordingTransport{}
	down := &recordingTransport{sendErr: errors.New("line down")}
	mux := link.NewMultiplexer(map[string]link.Transport{
		"10.0.0.2": up,
		"10.0.0.3": down,
	}, link.WithIgnoreChecksum(true))
	return New("slipctl-test", mux, Options{CorsOrigins: []string{"http://localhost:3000"}}), up, down
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthAndLinks(t *testing.T) {
	testlog.Start(t)

	s, _, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status=%d body=%s", rr.Code, rr.Body.String())
	}
	var health map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["ignore_checksum"] != true {
		t.Fatalf("expected ignore_checksum in health: %v", health)
	}

	rr = do(t, s, http.MethodGet, "/links", "")
	var links struct {
		Links []link.LinkStats `json:"links"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &links); err != nil {
		t.Fatalf("decode links: %v", err)
	}
	if len(links.Links) != 2 || links.Links[0].Peer != "10.0.0.2" {
		t.Fatalf("unexpected links: %+v", links.Links)
	}

	if rr := do(t, s, http.MethodGet, "/links/10.9.9.9", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown peer, got %d", rr.Code)
	}
}

func TestSendRoute(t *testing.T) {
	testlog.Start(t)

	s, up, _ := newTestServer(t)
	rr := do(t, s, http.MethodPost, "/links/10.0.0.2/send", `{"datagram_hex":"01 c0 02"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("send status=%d body=%s", rr.Code, rr.Body.String())
	}
	if len(up.sent) != 1 || string(up.sent[0]) != "\xc0\x01\xdb\xdc\x02\xc0" {
		t.Fatalf("unexpected frames: % X", up.sent)
	}

	if rr := do(t, s, http.MethodPost, "/links/10.9.9.9/send", `{"datagram_hex":"00"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown next hop, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/links/10.0.0.3/send", `{"datagram_hex":"00"}`); rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transport failure, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/links/10.0.0.2/send", `{"datagram_hex":"zz"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hex, got %d", rr.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	testlog.Start(t)

	s, _, _ := newTestServer(t)
	_ = do(t, s, http.MethodGet, "/health", "")
	rr := do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "slipmux_http_requests_total") {
		t.Fatalf("expected admin request counter in metrics output")
	}
}

func TestSendRouteRequiresToken(t *testing.T) {
	testlog.Start(t)

	up := &recordingTransport{}
	mux := link.NewMultiplexer(map[string]link.Transport{"10.0.0.2": up})
	s := New("slipctl-test", mux, Options{Token: "s3cret"})

	if rr := do(t, s, http.MethodPost, "/links/10.0.0.2/send", `{"datagram_hex":"41"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/links/10.0.0.2/send", strings.NewReader(`{"datagram_hex":"41"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with token, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(up.sent) != 1 {
		t.Fatalf("expected one frame sent, got %d", len(up.sent))
	}
	// Read-only routes stay open.
	if rr := do(t, s, http.MethodGet, "/links", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected open /links, got %d", rr.Code)
	}
}
