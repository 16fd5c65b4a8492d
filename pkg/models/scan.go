package models

// Scan record outcomes
const (
	ScanCompleted = "Completed"
	ScanFailed    = "Failed"
)

// Log record levels
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// ScanRecord is the audit entry written when an agent reports a scan outcome
type ScanRecord struct {
	ID           string `json:"id"`
	AgentID      string `json:"agent_id"`
	Status       string `json:"status"`
	ThreatsFound uint32 `json:"threats_found"`
	Timestamp    int64  `json:"timestamp"`
	Details      string `json:"details"`
}

// LogRecord is an operational event shown in the hub's log view
type LogRecord struct {
	ID        string `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ReportScanResultRequest carries the outcome of one scan command
type ReportScanResultRequest struct {
	AgentID       string `json:"agent_id"`
	CommandID     string `json:"command_id"`
	Success       bool   `json:"success"`
	Details       string `json:"details"`
	InfectedFiles int32  `json:"infected_files"`
}

// ReportScanResultResponse acknowledges a scan report
type ReportScanResultResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// TriggerScanRequest is the optional body of the trigger-scan endpoint
type TriggerScanRequest struct {
	Path string `json:"path,omitempty"`
}

// TriggerScanResponse is returned when a scan command was queued
type TriggerScanResponse struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id"`
}
