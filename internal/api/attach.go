package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/nerrad567/gray-logic-hub/internal/relay"
)

// attachResponse is the acknowledgement sent to attaching devices.
type attachResponse struct {
	Result string `json:"result"`
}

// handleAttach publishes a device attach notification on the broker.
//
// The body must be a JSON object. device_ip is set from the caller's address
// and overrides any value the device sent.
func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		writeBadRequest(w, "body must be a JSON object")
		return
	}

	body["device_ip"] = remoteIP(r)

	if err := s.bus.Publish(relay.TopicDeviceAttach, body); err != nil {
		// The device is acknowledged regardless; a stopped broker only means
		// the hub is shutting down.
		s.logger.Warn("attach event not published",
			"error", err,
			"device_ip", body["device_ip"],
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}

	writeJSON(w, http.StatusOK, attachResponse{Result: "ok"})
}

// remoteIP strips the port from r.RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
