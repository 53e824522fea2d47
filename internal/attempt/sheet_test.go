package attempt

import (
	"errors"
	"testing"

	"github.com/abhisek/examgen/internal/quiz"
)

func fourQuestionQuiz() *quiz.Quiz {
	q := &quiz.Quiz{Metadata: quiz.Metadata{Title: "Algebra"}}
	for i := 1; i <= 4; i++ {
		q.Questions = append(q.Questions, quiz.Question{
			ID:                 i,
			Stem:               "stem",
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: i - 1,
		})
	}
	return q
}

func TestSheet_ScoreThreeOfFour(t *testing.T) {
	s := NewSheet(fourQuestionQuiz())
	// Questions 1-3 correct, question 4 wrong.
	for id, opt := range map[int]int{1: 0, 2: 1, 3: 2, 4: 0} {
		if err := s.Select(id, opt); err != nil {
			t.Fatalf("Select(%d, %d): %v", id, opt, err)
		}
	}
	if err := s.Reveal(); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	got := s.Score()
	if got.Correct != 3 || got.Total != 4 || got.Percent != 75 {
		t.Fatalf("Score() = %+v, want 3/4 75%%", got)
	}
	if got.String() != "3 / 4 (75%)" {
		t.Errorf("String() = %q", got.String())
	}
}

func TestSheet_PercentRounding(t *testing.T) {
	tests := []struct {
		total, correct, want int
	}{
		{3, 1, 33},
		{3, 2, 67},
		{8, 1, 13},
		{1, 0, 0},
		{1, 1, 100},
	}
	for _, tt := range tests {
		q := &quiz.Quiz{}
		for i := 1; i <= tt.total; i++ {
			q.Questions = append(q.Questions, quiz.Question{ID: i, Options: []string{"a", "b"}, CorrectAnswerIndex: 0})
		}
		s := NewSheet(q)
		for i := 1; i <= tt.total; i++ {
			opt := 1
			if i <= tt.correct {
				opt = 0
			}
			if err := s.Select(i, opt); err != nil {
				t.Fatal(err)
			}
		}
		if got := s.Score().Percent; got != tt.want {
			t.Errorf("%d/%d: percent = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestSheet_RevealGating(t *testing.T) {
	s := NewSheet(fourQuestionQuiz())
	_ = s.Select(1, 0)
	_ = s.Select(2, 0)

	if s.CanReveal() {
		t.Fatal("CanReveal should be false with 2 of 4 answered")
	}
	if err := s.Reveal(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Reveal error = %v, want ErrIncomplete", err)
	}
	if s.Revealed() {
		t.Fatal("failed reveal must not change state")
	}
	if s.Answered() != 2 {
		t.Fatalf("answers changed: %d", s.Answered())
	}
}

func TestSheet_FrozenAfterReveal(t *testing.T) {
	s := NewSheet(fourQuestionQuiz())
	for id := 1; id <= 4; id++ {
		_ = s.Select(id, 0)
	}
	if err := s.Reveal(); err != nil {
		t.Fatal(err)
	}
	if err := s.Select(2, 1); !errors.Is(err, ErrRevealed) {
		t.Fatalf("Select after reveal = %v, want ErrRevealed", err)
	}
	if opt, _ := s.Answer(2); opt != 0 {
		t.Errorf("answer changed to %d", opt)
	}
	if err := s.Reveal(); !errors.Is(err, ErrRevealed) {
		t.Errorf("second Reveal = %v, want ErrRevealed", err)
	}
}

func TestSheet_SelectErrors(t *testing.T) {
	s := NewSheet(fourQuestionQuiz())
	tests := []struct {
		id, opt int
		want    error
	}{
		{9, 0, ErrUnknownQuestion},
		{1, 4, ErrOptionOutOfRange},
		{1, -1, ErrOptionOutOfRange},
	}
	for _, tt := range tests {
		if err := s.Select(tt.id, tt.opt); !errors.Is(err, tt.want) {
			t.Errorf("Select(%d, %d) = %v, want %v", tt.id, tt.opt, err, tt.want)
		}
	}
	if err := NewSheet(nil).Select(1, 0); !errors.Is(err, ErrNoQuiz) {
		t.Errorf("Select without quiz = %v", err)
	}
}

func TestSheet_ChangeAnswerBeforeReveal(t *testing.T) {
	s := NewSheet(fourQuestionQuiz())
	_ = s.Select(1, 2)
	_ = s.Select(1, 0)
	if opt, ok := s.Answer(1); !ok || opt != 0 {
		t.Fatalf("Answer(1) = %d, %v", opt, ok)
	}
	if s.Answered() != 1 {
		t.Fatalf("Answered() = %d", s.Answered())
	}
}

func TestSheet_OutOfRangeCorrectIndexNeverScores(t *testing.T) {
	q := &quiz.Quiz{Questions: []quiz.Question{{ID: 1, Options: []string{"a", "b"}, CorrectAnswerIndex: 5}}}
	s := NewSheet(q)
	_ = s.Select(1, 1)
	if got := s.Score(); got.Correct != 0 || got.Total != 1 {
		t.Fatalf("Score() = %+v", got)
	}
}

func TestSheet_RetryAndReset(t *testing.T) {
	q := fourQuestionQuiz()
	s := NewSheet(q)
	for id := 1; id <= 4; id++ {
		_ = s.Select(id, 0)
	}
	_ = s.Reveal()

	s.Retry()
	if s.Revealed() || s.Answered() != 0 {
		t.Fatalf("Retry left revealed=%v answered=%d", s.Revealed(), s.Answered())
	}
	if s.Quiz() != q {
		t.Fatal("Retry must keep the quiz")
	}

	_ = s.Select(1, 0)
	s.Reset()
	if s.Quiz() != nil || s.Answered() != 0 || s.Total() != 0 {
		t.Fatal("Reset should clear the quiz and answers")
	}
	if s.CanReveal() {
		t.Fatal("empty sheet cannot reveal")
	}
}
