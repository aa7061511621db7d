package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"provisiond/internal/model"
)

type fakeProvider struct{}

func (fakeProvider) GetAsset(path string) ([]byte, string, error) {
	if path == "/" || path == "/index.html" {
		return []byte("<html></html>"), "text/html", nil
	}
	return nil, "", errNotFound
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

func newTestServer(onConnect func(model.ConnectionRequest)) *Server {
	log := zap.NewNop().Sugar()
	cache := []model.Network{{SSID: "Home", Signal: 90, Security: model.SecurityWPA2}}
	return New("127.0.0.1:0", cache, onConnect, fakeProvider{}, log)
}

func TestBackendKindHandler(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/backend_kind", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "tdm", body["kind"])
}

func TestScanHandlerReturnsCachedSnapshot(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/scan", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var networks []model.Network
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &networks))
	require.Equal(t, []model.Network{{SSID: "Home", Signal: 90, Security: model.SecurityWPA2}}, networks)
}

func TestGenerate204Handler(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/generate_204", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())
}

func TestConnectHandlerAcknowledgesBeforeCommitCompletes(t *testing.T) {
	var mu sync.Mutex
	var called model.ConnectionRequest
	release := make(chan struct{})

	onConnect := func(req model.ConnectionRequest) {
		<-release // simulate a slow commit; the handler must not wait on us
		mu.Lock()
		called = req
		mu.Unlock()
	}

	s := newTestServer(onConnect)

	body, _ := json.Marshal(model.ConnectionRequest{SSID: "Home", Password: "s3cret"})
	req := httptest.NewRequest(http.MethodPost, "/api/connect", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "success", resp["status"])

	close(release)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return called == model.ConnectionRequest{SSID: "Home", Password: "s3cret"}
	}, time.Second, 10*time.Millisecond)
}
