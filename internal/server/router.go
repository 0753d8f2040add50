package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/journal"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Game clients
	r.Handle(s.cfg.WebSocket.Path, s.hub)

	r.Handle("/metrics", s.metrics.Handler())

	// Read-only API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/networks", s.handleListNetworks)
		r.Get("/events", s.handleListEvents)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/{id}", s.handleGetDevice)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.GetStats())
}

// handleListDevices lists devices, optionally filtered by ?owner= and ?type=.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	typ := r.URL.Query().Get("type")
	if typ != "" && !device.ValidDeviceType(device.DeviceType(typ)) {
		writeBadRequest(w, "unknown device type: "+typ)
		return
	}

	devices := make([]device.Device, 0)
	for _, d := range s.store.List() {
		if owner != "" && d.OwnerID != owner {
			continue
		}
		if typ != "" && string(d.Type) != typ {
			continue
		}
		devices = append(devices, d)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := s.store.Get(id)
	if !ok {
		writeNotFound(w, "device not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListNetworks(w http.ResponseWriter, _ *http.Request) {
	networks := s.store.Networks()
	writeJSON(w, http.StatusOK, map[string]any{
		"networks": networks,
		"count":    len(networks),
	})
}

// handleListEvents pages through the event journal. Query parameters:
// kind, player, device, limit, offset.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Kind:     q.Get("kind"),
		PlayerID: q.Get("player"),
		DeviceID: q.Get("device"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be an integer")
		return
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal entries", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional integer query parameter; "" is 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
