package domain

// StatusDiff represents the changes between two status snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StatusDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Generation    *uint64 `json:"generation,omitempty"`
	Busy          *bool   `json:"busy,omitempty"`
	Message       *string `json:"message,omitempty"`
	ExportEnabled *bool   `json:"export_enabled,omitempty"`
	ObjectCount   *int    `json:"object_count,omitempty"`
}

// Diff calculates the difference between oldStatus and newStatus.
// If oldStatus is nil, it returns a diff representing the entire newStatus (initial load).
// It returns nil when nothing changed.
func Diff(oldStatus, newStatus *Status) *StatusDiff {
	if newStatus == nil {
		return nil
	}

	diff := &StatusDiff{SessionID: newStatus.SessionID}
	if oldStatus == nil || oldStatus.Generation != newStatus.Generation {
		diff.Generation = &newStatus.Generation
	}
	if oldStatus == nil || oldStatus.Busy != newStatus.Busy {
		diff.Busy = &newStatus.Busy
	}
	if oldStatus == nil || oldStatus.Message != newStatus.Message {
		diff.Message = &newStatus.Message
	}
	if oldStatus == nil || oldStatus.ExportEnabled != newStatus.ExportEnabled {
		diff.ExportEnabled = &newStatus.ExportEnabled
	}
	if oldStatus == nil || oldStatus.ObjectCount != newStatus.ObjectCount {
		diff.ObjectCount = &newStatus.ObjectCount
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StatusDiff) IsEmpty() bool {
	return d.Generation == nil &&
		d.Busy == nil &&
		d.Message == nil &&
		d.ExportEnabled == nil &&
		d.ObjectCount == nil
}
