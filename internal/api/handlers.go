package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/mukhtar/internal/automation"
	"github.com/nerrad567/mukhtar/internal/journal"
	"github.com/nerrad567/mukhtar/internal/sensor"
	"github.com/nerrad567/mukhtar/internal/status"
)

// StatusResponse is a snapshot plus its rendered console report.
type StatusResponse struct {
	status.Snapshot
	Report string `json:"report"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.reporter.Report(r.Context())
	writeJSON(w, http.StatusOK, StatusResponse{Snapshot: snap, Report: snap.Format()})
}

// SensorResponse is one fresh reading.
type SensorResponse struct {
	sensor.Reading
	Unit string `json:"unit,omitempty"`
}

func (s *Server) handleReadSensor(w http.ResponseWriter, r *http.Request) {
	kind, ok := sensor.ParseKind(strings.ToLower(chi.URLParam(r, "kind")))
	if !ok {
		writeNotFound(w, "unknown sensor kind")
		return
	}

	reading, err := s.sensors.Read(r.Context(), kind)
	switch {
	case errors.Is(err, sensor.ErrSensorDisabled):
		writeError(w, http.StatusConflict, ErrCodeUnavailable, "sensor disabled in configuration")
		return
	case err != nil:
		writeBadGateway(w, "sensor reading failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SensorResponse{Reading: reading, Unit: kind.Unit()})
}

// CommandRequest is the body of POST /command.
type CommandRequest struct {
	Text string `json:"text"`
}

// handleCommand runs free text through the dispatcher. Unrecognised input
// is not an HTTP error; the response carries ok=false and the fallback line.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeBadRequest(w, "text is required")
		return
	}

	resp := s.commands.Handle(r.Context(), text)
	s.record(r, "api", text, resp)

	body := map[string]any{
		"ok":       resp.OK(),
		"intent":   resp.Intent,
		"messages": resp.Messages,
	}
	if resp.Report != nil {
		body["report"] = resp.Report
	}
	if resp.Err != nil {
		body["error"] = resp.Err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// AutomationResponse describes the automation mode.
type AutomationResponse struct {
	Auto    bool              `json:"auto"`
	Mode    string            `json:"mode"`
	Changed *bool             `json:"changed,omitempty"`
	Loop    *automation.Stats `json:"loop,omitempty"`
}

func (s *Server) automationState() AutomationResponse {
	auto := s.mode.Auto()
	resp := AutomationResponse{Auto: auto, Mode: automation.Label(auto)}
	if s.loop != nil {
		stats := s.loop.Stats()
		resp.Loop = &stats
	}
	return resp
}

func (s *Server) handleGetAutomation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.automationState())
}

// AutomationRequest is the body of PUT /automation.
type AutomationRequest struct {
	Auto *bool `json:"auto"`
}

func (s *Server) handleSetAutomation(w http.ResponseWriter, r *http.Request) {
	var req AutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Auto == nil {
		writeBadRequest(w, "auto is required")
		return
	}

	changed := s.mode.Set(*req.Auto)
	s.logger.Info("automation mode set", "auto", *req.Auto, "changed", changed)

	resp := s.automationState()
	resp.Changed = &changed
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{Kind: q.Get("kind"), Subject: q.Get("subject")}
	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
	}

	res, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("journal query failed", "error", err)
		writeInternalError(w, "failed to read journal")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
