package domain

// Status is the viewer-facing state of a session.
type Status struct {
	SessionID     string `json:"session_id"`
	Generation    uint64 `json:"generation"`
	Busy          bool   `json:"busy"`
	Message       string `json:"message"`
	ExportEnabled bool   `json:"export_enabled"`
	ObjectCount   int    `json:"object_count"`
}
