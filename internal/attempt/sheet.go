// Package attempt tracks a learner's answers to one quiz and scores them.
package attempt

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/abhisek/examgen/internal/quiz"
)

var (
	// ErrRevealed is returned when answers change after results are shown.
	ErrRevealed = errors.New("results already revealed")

	// ErrIncomplete is returned by Reveal while a question is unanswered.
	ErrIncomplete = errors.New("not every question has been answered")

	ErrUnknownQuestion  = errors.New("unknown question")
	ErrOptionOutOfRange = errors.New("option out of range")
	ErrNoQuiz           = errors.New("no quiz loaded")
)

// Result is the outcome of a revealed attempt.
type Result struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

func (r Result) String() string {
	return fmt.Sprintf("%d / %d (%d%%)", r.Correct, r.Total, r.Percent)
}

// Sheet is the answer sheet for one quiz. It is not safe for concurrent
// use; the owning workspace serializes access.
type Sheet struct {
	quiz     *quiz.Quiz
	answers  map[int]int
	revealed bool
}

// NewSheet returns an empty sheet for q. q may be nil.
func NewSheet(q *quiz.Quiz) *Sheet {
	return &Sheet{quiz: q, answers: map[int]int{}}
}

// Bind points the sheet at a new value of the same quiz, for example
// after a diagram was merged. Answers are kept.
func (s *Sheet) Bind(q *quiz.Quiz) {
	s.quiz = q
}

// Quiz returns the quiz this sheet answers.
func (s *Sheet) Quiz() *quiz.Quiz {
	return s.quiz
}

// Select records option as the answer for question id, replacing any
// earlier choice.
func (s *Sheet) Select(id, option int) error {
	if s.revealed {
		return ErrRevealed
	}
	if s.quiz == nil {
		return ErrNoQuiz
	}
	idx, ok := s.quiz.Find(id)
	if !ok {
		return fmt.Errorf("question %d: %w", id, ErrUnknownQuestion)
	}
	if option < 0 || option >= len(s.quiz.Questions[idx].Options) {
		return fmt.Errorf("question %d option %d: %w", id, option, ErrOptionOutOfRange)
	}
	s.answers[id] = option
	return nil
}

// Answer returns the selected option for question id.
func (s *Sheet) Answer(id int) (int, bool) {
	opt, ok := s.answers[id]
	return opt, ok
}

// Answers returns a copy of all selections keyed by question id.
func (s *Sheet) Answers() map[int]int {
	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Answered returns how many questions have a selection.
func (s *Sheet) Answered() int {
	return len(s.answers)
}

// Total returns the number of questions.
func (s *Sheet) Total() int {
	if s.quiz == nil {
		return 0
	}
	return len(s.quiz.Questions)
}

// CanReveal reports whether every question has an answer.
func (s *Sheet) CanReveal() bool {
	return s.quiz != nil && s.Total() > 0 && s.Answered() == s.Total()
}

// Revealed reports whether results are showing.
func (s *Sheet) Revealed() bool {
	return s.revealed
}

// Reveal freezes the answers and shows results. It leaves the sheet
// unchanged when a question is still unanswered.
func (s *Sheet) Reveal() error {
	if s.revealed {
		return ErrRevealed
	}
	if !s.CanReveal() {
		return fmt.Errorf("%d of %d answered: %w", s.Answered(), s.Total(), ErrIncomplete)
	}
	s.revealed = true
	return nil
}

// Score counts correct answers. An out-of-range correct index never
// matches, so such a question scores zero.
func (s *Sheet) Score() Result {
	total := s.Total()
	if total == 0 {
		return Result{}
	}
	correct := lo.CountBy(s.quiz.Questions, func(q quiz.Question) bool {
		opt, ok := s.answers[q.ID]
		return ok && q.IsCorrect(opt)
	})
	return Result{
		Correct: correct,
		Total:   total,
		Percent: int(math.Round(100 * float64(correct) / float64(total))),
	}
}

// Retry clears the answers and hides results, keeping the quiz.
func (s *Sheet) Retry() {
	s.answers = map[int]int{}
	s.revealed = false
}

// Reset clears everything including the quiz.
func (s *Sheet) Reset() {
	s.quiz = nil
	s.Retry()
}
