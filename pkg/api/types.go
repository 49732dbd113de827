package api

import "github.com/open-teleop/auvnav/services"

// --- Data Structures for WebSocket Messages ---

// Inbound message types
const (
	MsgKey  = "key"
	MsgLine = "line"
)

// Outbound message types
const (
	MsgPrompt = "prompt"
	MsgOutput = "output"
)

// ClientMessage is sent by a remote operator. Key carries a single key for
// MsgKey, Line carries the answer to a prompt for MsgLine.
type ClientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
	Line string `json:"line,omitempty"`
}

// ServerMessage is pushed to the remote operator
type ServerMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StatusResponse is returned by GET /api/v1/status
type StatusResponse struct {
	Session  string                   `json:"session"`
	Backend  string                   `json:"backend"`
	Encoding string                   `json:"encoding"`
	Channels []services.ChannelStatus `json:"channels"`
}

// KillswitchState is the body of GET and PUT /api/v1/killswitch
type KillswitchState struct {
	Engaged bool `json:"engaged"`
}
