package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dd0wney/cluso-aco/pkg/simulation"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	g := s.session.Graph()

	cfg, ok := s.session.Config()
	if !ok {
		cfg = s.session.Defaults()
	}
	path, cost := g.ShortestRoute(cfg.Start, cfg.End)
	route := &RouteResponse{Start: cfg.Start, End: cfg.End, Path: path, Names: g.PathNames(path)}
	if !math.IsInf(cost, 1) {
		route.Cost = &cost
	}

	s.respondJSON(w, http.StatusOK, NetworkResponse{
		Nodes:     snap.Nodes,
		Edges:     snap.EdgeReports(),
		Disrupted: g.Disrupted(),
		Shortest:  route,
	})
}

// handleConfigure merges the body over the current configuration.
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req validation.RunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if _, err := s.session.ConfigureRequest(&req); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleStart takes the same optional body as configure.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req validation.RunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.session.StartWith(&req); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Step()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, StepResponse{
		Report:   simulation.NewIterationReport(res),
		Snapshot: s.session.Snapshot(),
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Pause(); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleReset clears the run. ?baseline=true also restores edge costs.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	baseline := false
	if v := r.URL.Query().Get("baseline"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "baseline must be a boolean")
			return
		}
		baseline = b
	}

	if err := s.session.Reset(); err != nil {
		s.respondErr(w, err)
		return
	}
	if baseline {
		s.session.ResetToBaseline()
	}
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleBaseline restores edge costs without touching the run.
func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	s.session.ResetToBaseline()
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleDisrupt(w http.ResponseWriter, r *http.Request) {
	var req validation.DisruptRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := validation.ValidateDisruptRequest(&req, s.session.Graph().Size()); err != nil {
		s.respondErr(w, err)
		return
	}

	multiplier := s.disruption
	if req.Multiplier != nil {
		multiplier = *req.Multiplier
	}
	applied, err := s.session.Disrupt(*req.NodeA, *req.NodeB, multiplier)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, DisruptResponse{
		Applied:    applied,
		NodeA:      *req.NodeA,
		NodeB:      *req.NodeB,
		Multiplier: multiplier,
		Snapshot:   s.session.Snapshot(),
	})
}
