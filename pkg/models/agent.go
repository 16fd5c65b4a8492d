package models

// Agent status labels. Agents may report any other string, which is stored verbatim.
const (
	StatusOnline   = "Online"
	StatusScanning = "Scanning"
	StatusSecure   = "Secure"
	StatusInfected = "Infected"
)

// Agent represents a registered agent as exposed by the control API.
// The pending command queue is owned by the registry and never serialized.
type Agent struct {
	ID            string `json:"id"`
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	Status        string `json:"status"`
	LastSeen      int64  `json:"last_seen"`
	InfectedFiles uint32 `json:"infected_files"`
}

// RegisterRequest represents the agent registration request
type RegisterRequest struct {
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
}

// RegisterResponse represents the response to agent registration
type RegisterResponse struct {
	AgentID string `json:"agent_id"`
}

// HeartbeatRequest reports liveness and the agent's current local status
type HeartbeatRequest struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// HeartbeatResponse carries every command that was queued for the agent
// since its previous heartbeat.
type HeartbeatResponse struct {
	Acknowledged    bool      `json:"acknowledged"`
	PendingCommands []Command `json:"pending_commands"`
}
