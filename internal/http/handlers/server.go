package handlers

import (
	"context"

	"github.com/rogerio-castellano/stockroom/internal/inventory"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger         *logger.Logger
	Store          Pinger
	MaxUploadBytes int64
	// SeedFile is the demo data used by POST /products/reset/demo.
	SeedFile string
}

// Server holds the dependencies shared by every handler.
type Server struct {
	svc            *inventory.Service
	log            *logger.Logger
	store          Pinger
	maxUploadBytes int64
	seedFile       string
}

func NewServer(svc *inventory.Service, opts Options) *Server {
	s := &Server{
		svc:            svc,
		log:            opts.Logger,
		store:          opts.Store,
		maxUploadBytes: opts.MaxUploadBytes,
		seedFile:       opts.SeedFile,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	return s
}

// Unlocked exposes the gate state to middleware.
func (s *Server) Unlocked() bool {
	return s.svc.Unlocked()
}
