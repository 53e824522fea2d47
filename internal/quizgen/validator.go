package quizgen

import (
	"fmt"

	"github.com/abhisek/examgen/internal/quiz"
)

// Validator checks a generated quiz before it is handed to the caller.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "structural".
	Name() string

	// Validate returns nil if the quiz passes.
	Validate(q *quiz.Quiz, cfg quiz.GenerationConfig) *ValidationError
}

// ValidationError describes why a quiz failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
	Advisory  bool   // Logged only; the quiz is still accepted
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator rejects quizzes the presentation layer cannot index
// safely: no questions, duplicate ids, empty stems or options, and answer
// indexes that do not point at an option.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *quiz.Quiz, _ quiz.GenerationConfig) *ValidationError {
	if len(q.Questions) == 0 {
		return v.fail("quiz has no questions")
	}
	seen := make(map[int]bool, len(q.Questions))
	for _, question := range q.Questions {
		if seen[question.ID] {
			return v.fail(fmt.Sprintf("duplicate question_id %d", question.ID))
		}
		seen[question.ID] = true

		if question.Stem == "" {
			return v.fail(fmt.Sprintf("question %d: stem is empty", question.ID))
		}
		if len(question.Options) == 0 {
			return v.fail(fmt.Sprintf("question %d: no options", question.ID))
		}
		for i, opt := range question.Options {
			if opt == "" {
				return v.fail(fmt.Sprintf("question %d: option %s is empty", question.ID, quiz.OptionLabel(i)))
			}
		}
		if !question.HasCorrectAnswer() {
			return v.fail(fmt.Sprintf("question %d: correct_answer_index %d out of range for %d options",
				question.ID, question.CorrectAnswerIndex, len(question.Options)))
		}
	}
	return nil
}

func (v *StructuralValidator) fail(msg string) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: msg}
}

// OptionCountValidator reports questions whose option count differs from
// what the academic level expects. The count is a model instruction, so a
// mismatch is advisory.
type OptionCountValidator struct{}

func (v *OptionCountValidator) Name() string { return "option-count" }

func (v *OptionCountValidator) Validate(q *quiz.Quiz, cfg quiz.GenerationConfig) *ValidationError {
	if !cfg.AcademicLevel.Valid() {
		return nil
	}
	want := cfg.AcademicLevel.OptionCount()
	var off []int
	for _, question := range q.Questions {
		if len(question.Options) != want {
			off = append(off, question.ID)
		}
	}
	if len(off) == 0 {
		return nil
	}
	return &ValidationError{
		Validator: v.Name(),
		Message:   fmt.Sprintf("%s expects %d options; questions %v differ", cfg.AcademicLevel, want, off),
		Advisory:  true,
	}
}
