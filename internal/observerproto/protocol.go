package observerproto

// Version is the observer protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeRound     = "ROUND"
	TypeDone      = "DONE"
)

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to change settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// IncludeAgents asks for every agent position in each ROUND message.
	IncludeAgents bool `json:"include_agents,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	RunID           string `json:"run_id"`
	// Rounds executed so far.
	Rounds uint64 `json:"rounds"`
	Agents int    `json:"agents"`
	Done   bool   `json:"done"`
}

type Bounds struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// Server -> Client. Sent after every committed round. Round is 1-based.
type RoundMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	RunID           string `json:"run_id"`
	Round           uint64 `json:"round"`

	Proposed  int    `json:"proposed"`
	Moved     int    `json:"moved"`
	Cancelled int    `json:"cancelled"`
	Digest    string `json:"digest"`

	Bounds *Bounds  `json:"bounds,omitempty"`
	Agents [][2]int `json:"agents,omitempty"`
}

// Server -> Client. Sent once when the run ends.
type DoneMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Stable          bool   `json:"stable"`
	FixedPointRound uint64 `json:"fixed_point_round,omitempty"`
	EmptyTiles      *int   `json:"empty_tiles,omitempty"`
	Error           string `json:"error,omitempty"`
}
