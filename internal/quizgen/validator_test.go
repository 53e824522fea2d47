package quizgen

import (
	"testing"

	"github.com/abhisek/examgen/internal/quiz"
)

func question(id int, options []string, correct int) quiz.Question {
	return quiz.Question{
		ID:                 id,
		Stem:               "stem",
		Options:            options,
		CorrectAnswerIndex: correct,
		Explanation:        "because",
		CognitiveLevel:     "Knowledge",
	}
}

func TestStructuralValidator(t *testing.T) {
	four := []string{"a", "b", "c", "d"}
	tests := []struct {
		name      string
		questions []quiz.Question
		wantErr   bool
	}{
		{"valid", []quiz.Question{question(1, four, 0), question(2, four, 3)}, false},
		{"empty", nil, true},
		{"duplicate ids", []quiz.Question{question(1, four, 0), question(1, four, 1)}, true},
		{"empty stem", []quiz.Question{{ID: 1, Options: four}}, true},
		{"no options", []quiz.Question{question(1, nil, 0)}, true},
		{"blank option", []quiz.Question{question(1, []string{"a", "", "c", "d"}, 0)}, true},
		{"negative index", []quiz.Question{question(1, four, -1)}, true},
		{"index past end", []quiz.Question{question(1, four, 4)}, true},
	}

	v := &StructuralValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&quiz.Quiz{Questions: tt.questions}, testConfig())
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && err.Advisory {
				t.Error("structural failures must not be advisory")
			}
		})
	}
}

func TestOptionCountValidator(t *testing.T) {
	tests := []struct {
		level   quiz.AcademicLevel
		options int
		wantErr bool
	}{
		{quiz.LevelGrade3, 3, false},
		{quiz.LevelGrade3, 4, true},
		{quiz.LevelGrade8, 4, false},
		{quiz.LevelOL, 4, false},
		{quiz.LevelAL, 5, false},
		{quiz.LevelAL, 4, true},
		{"", 7, false},
	}

	v := &OptionCountValidator{}
	for _, tt := range tests {
		opts := make([]string, tt.options)
		for i := range opts {
			opts[i] = quiz.OptionLabel(i)
		}
		q := &quiz.Quiz{Questions: []quiz.Question{question(1, opts, 0)}}
		err := v.Validate(q, quiz.GenerationConfig{AcademicLevel: tt.level})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s with %d options: expected advisory error", tt.level, tt.options)
				continue
			}
			if !err.Advisory {
				t.Errorf("%s: option count mismatch should be advisory", tt.level)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s with %d options: unexpected error %v", tt.level, tt.options, err)
		}
	}
}
