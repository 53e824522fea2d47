// Package quizstate owns the generated quiz and the per-question diagram
// lifecycle. All asynchronous work reports back over one completion
// channel; results issued under an older generation epoch are dropped.
package quizstate

import (
	"slices"

	"github.com/abhisek/examgen/internal/quiz"
)

// Status is the phase of the current generation attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// ImageStatus is where a single question's diagram stands.
type ImageStatus string

const (
	ImageNotNeeded ImageStatus = "not-needed"
	ImagePending   ImageStatus = "pending"
	ImageResolved  ImageStatus = "resolved"
	ImageSkipped   ImageStatus = "skipped"
)

// State is an immutable view of the coordinator at one instant.
type State struct {
	Epoch  uint64
	Status Status

	// Quiz is nil unless Status is StatusReady. It is never mutated after
	// publication; image merges replace the whole value.
	Quiz *quiz.Quiz

	// Pending holds the ids of questions whose diagram is still in flight,
	// in ascending order.
	Pending []int

	// Err is the failure of the last attempt when Status is StatusFailed.
	Err error
}

// IsPending reports whether question id is waiting for its diagram.
func (s State) IsPending(id int) bool {
	_, ok := slices.BinarySearch(s.Pending, id)
	return ok
}

// Settled reports whether nothing is in flight for this epoch.
func (s State) Settled() bool {
	return s.Status != StatusGenerating && len(s.Pending) == 0
}

// ImageStatus returns the diagram state of question id.
func (s State) ImageStatus(id int) ImageStatus {
	if s.Quiz == nil {
		return ImageNotNeeded
	}
	idx, ok := s.Quiz.Find(id)
	if !ok {
		return ImageNotNeeded
	}
	q := s.Quiz.Questions[idx]
	switch {
	case !q.NeedsDiagram():
		return ImageNotNeeded
	case s.IsPending(id):
		return ImagePending
	case q.Image != nil:
		return ImageResolved
	default:
		return ImageSkipped
	}
}

// EventKind names a coordinator state transition.
type EventKind string

const (
	EventGenerating    EventKind = "generating"
	EventQuizReady     EventKind = "quiz-ready"
	EventQuizFailed    EventKind = "quiz-failed"
	EventImageResolved EventKind = "image-resolved"
	EventImageSkipped  EventKind = "image-skipped"
	EventReset         EventKind = "reset"
)

// Event notifies listeners that the state changed. Listeners read the
// new state with Snapshot.
type Event struct {
	Kind       EventKind
	Epoch      uint64
	QuestionID int
}
