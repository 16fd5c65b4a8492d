package models

// CommandKind names the payload carried by a Command
type CommandKind string

const (
	CommandKindScan    CommandKind = "scan"
	CommandKindUnknown CommandKind = "unknown"
)

// Command is an instruction queued on the hub for a single agent.
// Exactly one payload field is set.
type Command struct {
	ID      string         `json:"id"`
	Payload CommandPayload `json:"payload"`
}

// CommandPayload is a tagged union over the command kinds an agent understands.
// New kinds are added as new optional fields; delivery never inspects them.
type CommandPayload struct {
	Scan *ScanCommand `json:"scan,omitempty"`
}

// ScanCommand asks the agent to scan a path with the external scanner
type ScanCommand struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// Kind reports which payload the command carries
func (c Command) Kind() CommandKind {
	switch {
	case c.Payload.Scan != nil:
		return CommandKindScan
	default:
		return CommandKindUnknown
	}
}

// NewScanCommand builds a scan command with the given id
func NewScanCommand(id, path string, recursive bool) Command {
	return Command{
		ID: id,
		Payload: CommandPayload{
			Scan: &ScanCommand{Path: path, Recursive: recursive},
		},
	}
}
