package editor

// Status is the autosave state of the open document.
type Status int

const (
	StatusIdle Status = iota
	StatusDirty
	StatusSaving
	StatusSaved
	StatusError
)

var statusNames = [...]string{
	StatusIdle:   "idle",
	StatusDirty:  "dirty",
	StatusSaving: "saving",
	StatusSaved:  "saved",
	StatusError:  "error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Label is the text shown in the status line.
func (s Status) Label() string {
	switch s {
	case StatusDirty:
		return "Unsaved changes"
	case StatusSaving:
		return "Saving..."
	case StatusSaved:
		return "Saved"
	case StatusError:
		return "Error"
	}
	return ""
}
