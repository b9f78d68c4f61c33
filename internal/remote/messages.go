// Package remote runs trajectories on a remote prediction worker (typically
// a GPU host) over a WebSocket connection. Messages flow as JSON envelopes
// with a type discriminator.
package remote

import (
	"encoding/json"

	"github.com/taejun-song/bindcraft-nhej/internal/domain"
)

// Envelope wraps all messages with a type discriminator.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EnvelopeRaw is used for receiving messages where the payload needs to be
// unmarshaled based on the message type.
type EnvelopeRaw struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalEnvelope creates an envelope with the given type and payload
func MarshalEnvelope(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: msgType, Payload: payload})
}

// Client -> worker messages

// PredictMessage assigns one trajectory to the worker
type PredictMessage struct {
	Name         string   `json:"name"`
	Length       int      `json:"length"`
	Seed         int      `json:"seed"`
	Helicity     float64  `json:"helicity"`
	StartingPDB  string   `json:"starting_pdb"`
	Chains       []string `json:"chains"`
	Hotspots     []string `json:"target_hotspot_residues,omitempty"`
	ProtocolTOML string   `json:"protocol_toml"`
}

// Worker -> client messages

// LogMessage carries a line of predictor output
type LogMessage struct {
	Name string `json:"name"`
	Line string `json:"line"`
}

// VerdictMessage reports the finished trajectory
type VerdictMessage struct {
	Name    string         `json:"name"`
	Verdict domain.Verdict `json:"verdict"`
}

// ErrorMessage reports a trajectory the worker could not run
type ErrorMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Message type constants
const (
	TypePredict = "predict"
	TypeLog     = "log"
	TypeVerdict = "verdict"
	TypeError   = "error"
)
