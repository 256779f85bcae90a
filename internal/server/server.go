package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Controller registers a group of routes under its own prefix.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type HTTPServer struct {
	router *mux.Router
	log    *logrus.Logger
	srv    *http.Server
}

func NewHTTPServer(router *mux.Router, log *logrus.Logger) *HTTPServer {
	return &HTTPServer{router: router, log: log}
}

func (s *HTTPServer) Router() *mux.Router {
	return s.router
}

func (s *HTTPServer) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.log.WithField("addr", addr).Info("http server listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
