package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/mukhtar/internal/assistant"
	"github.com/nerrad567/mukhtar/internal/command"
	"github.com/nerrad567/mukhtar/internal/device"
)

// handleListDevices returns every device in configuration order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.devices.Devices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.devices.GetStats())
}

// handleSwitchDevice actuates through the dispatcher so the reply is the
// same line the console would print.
func (s *Server) handleSwitchDevice(on bool) http.HandlerFunc {
	action := command.TurnOff
	if on {
		action = command.TurnOn
	}
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))
		resp := s.commands.Execute(r.Context(), command.Intent{Action: action, Device: name, Text: name})
		s.record(r, "api", action.String()+" "+name, resp)

		switch {
		case errors.Is(resp.Err, device.ErrUnknownDevice):
			writeNotFound(w, strings.Join(resp.Messages, " "))
			return
		case errors.Is(resp.Err, device.ErrActuationFailed):
			writeBadGateway(w, strings.Join(resp.Messages, " "))
			return
		case resp.Err != nil:
			writeInternalError(w, strings.Join(resp.Messages, " "))
			return
		}

		d, err := s.devices.Get(name)
		if err != nil {
			writeNotFound(w, "device not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"device":   d,
			"messages": resp.Messages,
		})
	}
}

// record passes a handled command to the recorder, if any.
func (s *Server) record(r *http.Request, source, text string, resp assistant.Response) {
	if s.recorder == nil {
		return
	}
	s.recorder.CommandHandled(r.Context(), source, text, resp.Intent.Action.String(), resp.OK())
}
