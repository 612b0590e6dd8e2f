package task

// Status is a pipeline stage.
type Status string

// Pipeline stage constants
const (
	StatusNew            Status = "new"
	StatusInProgress     Status = "in_progress"
	StatusEditorReview   Status = "editor_review"
	StatusClientApproval Status = "client_approval"
	StatusClientApproved Status = "client_approved"
	StatusSentToMedia    Status = "sent_to_media"
	StatusPublished      Status = "published"
	StatusPostponed      Status = "postponed"
)

// Stages is the canonical stage order used for board columns.
var Stages = []Status{
	StatusNew,
	StatusInProgress,
	StatusEditorReview,
	StatusClientApproval,
	StatusClientApproved,
	StatusSentToMedia,
	StatusPublished,
	StatusPostponed,
}

var stageLabels = map[Status]string{
	StatusNew:            "New",
	StatusInProgress:     "In progress",
	StatusEditorReview:   "Editor review",
	StatusClientApproval: "Client approval",
	StatusClientApproved: "Client approved",
	StatusSentToMedia:    "Sent to media",
	StatusPublished:      "Published",
	StatusPostponed:      "Postponed",
}

// Valid reports whether s is one of the known stages.
func (s Status) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Label returns a human-readable stage name.
func (s Status) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus validates a stage name.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", &UnknownStatusError{Status: s}
	}
	return status, nil
}

// UnknownStatusError is returned when a stage name is not part of the pipeline.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return "unknown status: " + e.Status
}

// pipelineIndex returns the position of s in the forward pipeline, or -1 for
// postponed and unknown stages.
func pipelineIndex(s Status) int {
	if s == StatusPostponed {
		return -1
	}
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// IsForwardMove reports whether moving from -> to advances exactly one stage.
// Moves into or out of postponed are never forward.
func IsForwardMove(from, to Status) bool {
	fromIdx := pipelineIndex(from)
	toIdx := pipelineIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx == fromIdx+1
}

// Next returns the stage after s in the forward pipeline.
// The second return value is false for published, postponed and unknown stages.
func (s Status) Next() (Status, bool) {
	idx := pipelineIndex(s)
	if idx < 0 || s == StatusPublished {
		return "", false
	}
	return Stages[idx+1], true
}

// Previous returns the stage before s in the forward pipeline.
func (s Status) Previous() (Status, bool) {
	idx := pipelineIndex(s)
	if idx <= 0 {
		return "", false
	}
	return Stages[idx-1], true
}
