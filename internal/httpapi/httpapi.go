// Package httpapi is the captive-portal HTTP control surface: three JSON
// endpoints, a captive-portal probe responder, and a static-asset
// fallback, all served from the AP's gateway address.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"provisiond/internal/assets"
	"provisiond/internal/model"
)

// Server is the captive-portal HTTP control surface.
type Server struct {
	router *mux.Router
	srv    *http.Server
	log    *zap.SugaredLogger

	scanCache []model.Network
	onConnect func(model.ConnectionRequest)
	assets    assets.Provider
}

// New builds a Server bound to bindAddr. scanCache is served verbatim by
// GET /api/scan and must already be populated - the HTTP layer never
// triggers a scan itself. onConnect is invoked on a new goroutine for
// every accepted POST /api/connect; the handler acknowledges the request
// before onConnect is even called, because the commit it starts may tear
// down the very address this response is being sent from.
func New(bindAddr string, scanCache []model.Network, onConnect func(model.ConnectionRequest), provider assets.Provider, log *zap.SugaredLogger) *Server {
	s := &Server{
		log:       log,
		scanCache: scanCache,
		onConnect: onConnect,
		assets:    provider,
	}

	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.HandleFunc("/api/backend_kind", s.backendKindHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/scan", s.scanHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/connect", s.connectHandler).Methods(http.MethodPost)
	r.HandleFunc("/generate_204", s.generate204Handler).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.assetHandler).Methods(http.MethodGet)
	s.router = r

	s.srv = &http.Server{
		Addr:    bindAddr,
		Handler: r,
	}

	return s
}

// Start binds the listener and serves in the background. It returns once
// the listener is established; serve errors after that point are logged,
// not returned, since the AP teardown that ends the commit's HTTP window
// also makes this listener hang up - that's expected, not a failure.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.log.Infof("httpd: listening on %s", s.srv.Addr)
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Warnf("httpd: serve: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		s.log.Debugf("httpd: %s %s %s", id, r.Method, r.URL.Path)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (s *Server) backendKindHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"kind": "tdm"})
}

func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scanCache)
}

func (s *Server) connectHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Acknowledge before committing: the commit tears the AP down, which
	// kills the TCP connection this response is riding on. There is no
	// way to deliver a response that waits for the commit to finish.
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})

	go s.onConnect(req)
}

func (s *Server) generate204Handler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assetHandler(w http.ResponseWriter, r *http.Request) {
	data, mediaType, err := s.assets.GetAsset(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Write(data)
}
