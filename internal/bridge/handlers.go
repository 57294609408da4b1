package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/accessory"
	"github.com/muurk/mhacwifi/internal/acwm"
	"github.com/muurk/mhacwifi/internal/logging"
)

// requestTimeout bounds a single device round trip including retries
const requestTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// accessoryResponse is the body of GET /api/accessory
type accessoryResponse struct {
	Information     accessory.Information      `json:"information"`
	Characteristics []accessory.Characteristic `json:"characteristics"`
}

// characteristicValue is the body of characteristic reads and writes
type characteristicValue struct {
	Name  string   `json:"name,omitempty"`
	Value *float64 `json:"value"`
}

type errorResponse struct {
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

func (s *Server) handleAccessory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, accessoryResponse{
		Information:     s.accessory.Information(),
		Characteristics: accessory.Characteristics(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state, err := s.accessory.Snapshot(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetCharacteristic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := r.PathValue("name")
	value, err := s.accessory.Get(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, characteristicValue{Name: name, Value: &value})
}

func (s *Server) handleSetCharacteristic(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var body characteristicValue
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil || body.Value == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"value": <number>}`})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.accessory.Set(ctx, name, *body.Value); err != nil {
		writeError(w, err)
		return
	}

	s.hub.broadcast(s.hub.apply(map[string]float64{name: *body.Value})...)
	writeJSON(w, http.StatusOK, characteristicValue{Name: name, Value: body.Value})
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := s.accessory.Identify(ctx); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	logging.LogConnection(r.RemoteAddr, "subscriber connected")
	sub := s.hub.add(conn)
	go s.hub.writePump(sub)
	go func() {
		s.hub.readPump(sub)
		logging.LogConnection(r.RemoteAddr, "subscriber disconnected")
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

// writeError maps accessory and device errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, accessory.ErrUnknownCharacteristic):
		status = http.StatusNotFound
	case errors.Is(err, accessory.ErrReadOnly):
		status = http.StatusMethodNotAllowed
	case errors.Is(err, accessory.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), acwm.IsTransportError(err):
		status = http.StatusGatewayTimeout
	}

	resp := errorResponse{Error: err.Error()}
	if status == http.StatusBadGateway || status == http.StatusGatewayTimeout {
		resp.Error = acwm.GetShortErrorMessage(err)
		resp.Hints = acwm.GetTroubleshootingHint(err)
	}
	writeJSON(w, status, resp)
}
