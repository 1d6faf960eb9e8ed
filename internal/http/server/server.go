package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tmpbin/internal/config"
	"tmpbin/internal/domain/models"
	"tmpbin/internal/http/handlers/blob/download"
	"tmpbin/internal/http/handlers/blob/getdefault"
	"tmpbin/internal/http/handlers/blob/remove"
	"tmpbin/internal/http/handlers/blob/upload"
	"tmpbin/internal/http/handlers/middlewares"
	"tmpbin/internal/http/handlers/system/getping"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type BlobService interface {
	Create(ctx context.Context, payload []byte, ttl time.Duration) (models.Entry, error)
	Get(ctx context.Context, code string) (models.Entry, error)
	Delete(ctx context.Context, code string, secret string) error
	Ping(ctx context.Context) error
	EntryURL(code string) string
	SizeLimit() int64
}

type Server struct {
	httpServer  *http.Server
	router      *mux.Router
	log         *zerolog.Logger
	blobService BlobService
	cfg         config.Config
}

func NewServer(log *zerolog.Logger, cfg config.Config, svc BlobService) (*Server, error) {
	if cfg.ServerAddress == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if svc == nil {
		return nil, errors.New("service cannot be nil")
	}

	s := &Server{
		router:      mux.NewRouter(),
		cfg:         cfg,
		log:         log,
		blobService: svc,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middlewares.MiddlewareLogging(s.log))
	s.router.Use(middlewares.MiddlewareCompressing())

	s.router.HandleFunc("/ping", getping.HandlerPing(s.blobService)).Methods("GET")
	s.router.HandleFunc("/", getdefault.HandlerGetDefault()).Methods("GET")
	s.router.HandleFunc("/", upload.HandlerUpload(s.blobService, s.blobService.SizeLimit())).Methods("PUT")
	s.router.HandleFunc("/{code}", download.HandlerDownload(s.blobService)).Methods("GET")
	s.router.HandleFunc("/{code}", remove.HandlerRemove(s.blobService)).Methods("DELETE")
}

// Handler exposes the routing tree, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info().Str("address", s.cfg.ServerAddress).Msg("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
