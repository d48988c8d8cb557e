// Package api serves a simulation session over HTTP: JSON run controls,
// snapshots, a Server-Sent Events stream, GraphQL, health and metrics.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/api/middleware"
	gql "github.com/dd0wney/cluso-aco/pkg/graphql"
	"github.com/dd0wney/cluso-aco/pkg/health"
	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/metrics"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// DefaultStreamHeartbeat is how often an idle event stream gets a comment
// line so that proxies keep it open.
const DefaultStreamHeartbeat = 15 * time.Second

// Options wires a Server. Session is required; everything else is optional.
type Options struct {
	Session *simulation.Session
	Metrics *metrics.Registry
	Health  *health.HealthChecker
	Events  *pubsub.PubSub
	Logger  logging.Logger
	CORS    *middleware.CORSConfig
	Version string

	// Disruption is the multiplier used when a disrupt request omits one.
	Disruption      float64
	MaxBodyBytes    int64
	GraphQLMaxDepth int
	StreamHeartbeat time.Duration
}

// Server represents the HTTP API server
type Server struct {
	session    *simulation.Session
	metrics    *metrics.Registry
	health     *health.HealthChecker
	events     *pubsub.PubSub
	graphql    http.Handler
	logger     logging.Logger
	cors       *middleware.CORSConfig
	version    string
	disruption float64
	maxBody    int64
	heartbeat  time.Duration
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Session == nil {
		return nil, errors.New("api: a session is required")
	}

	s := &Server{
		session:    opts.Session,
		metrics:    opts.Metrics,
		health:     opts.Health,
		events:     opts.Events,
		logger:     logging.OrNop(opts.Logger).With(logging.Component("api")),
		cors:       opts.CORS,
		version:    opts.Version,
		disruption: opts.Disruption,
		maxBody:    opts.MaxBodyBytes,
		heartbeat:  opts.StreamHeartbeat,
		startTime:  time.Now(),
	}
	if s.disruption <= 0 {
		s.disruption = simulation.DefaultDisruption
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.heartbeat <= 0 {
		s.heartbeat = DefaultStreamHeartbeat
	}
	if s.cors == nil {
		s.cors = middleware.DefaultCORSConfig()
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.health == nil {
		s.health = health.NewHealthChecker()
		s.health.RegisterLivenessCheck("alive", health.Alive)
		s.health.RegisterCheck("session", health.SessionCheck(s.session))
	}

	schema, err := gql.NewSchema(s.session, gql.Options{Disruption: s.disruption})
	if err != nil {
		return nil, err
	}
	s.graphql = gql.NewHandler(schema, opts.GraphQLMaxDepth, s.logger)
	return s, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	if s.metrics != nil {
		h = middleware.Metrics(s.metrics)(h)
	}
	h = middleware.BodySizeLimit(s.maxBody)(h)
	h = middleware.Logging(s.logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS(s.cors)(h)
	h = middleware.PanicRecovery(s.logger)(h)
	return h
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.HTTPHandler())
	mux.HandleFunc("GET /health/ready", s.health.ReadinessHandler())
	mux.HandleFunc("GET /health/live", s.health.LivenessHandler())
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /version", s.handleVersion)

	mux.HandleFunc("GET /network", s.handleNetwork)

	mux.HandleFunc("GET /session", s.handleSnapshot)
	mux.HandleFunc("GET /session/stream", s.handleStream)
	mux.HandleFunc("POST /session/configure", s.handleConfigure)
	mux.HandleFunc("POST /session/start", s.handleStart)
	mux.HandleFunc("POST /session/step", s.handleStep)
	mux.HandleFunc("POST /session/pause", s.handlePause)
	mux.HandleFunc("POST /session/reset", s.handleReset)
	mux.HandleFunc("POST /session/baseline", s.handleBaseline)
	mux.HandleFunc("POST /session/disrupt", s.handleDisrupt)

	mux.Handle("POST /graphql", s.graphql)
	return mux
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"version":   s.version,
		"sessionId": s.session.ID(),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
	})
}
