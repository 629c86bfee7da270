package queue

type TaskType string

const (
	// TaskTypeFeedback carries a developer's accept/reject signal for a
	// served suggestion.
	TaskTypeFeedback TaskType = "feedback"
)
