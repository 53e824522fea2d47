package quiz

import (
	"fmt"
	"strings"
)

// AcademicLevel is the grade or examination tier a paper is written for.
type AcademicLevel string

const (
	LevelGrade1  AcademicLevel = "Grade 1"
	LevelGrade2  AcademicLevel = "Grade 2"
	LevelGrade3  AcademicLevel = "Grade 3"
	LevelGrade4  AcademicLevel = "Grade 4"
	LevelGrade5  AcademicLevel = "Grade 5"
	LevelGrade6  AcademicLevel = "Grade 6"
	LevelGrade7  AcademicLevel = "Grade 7"
	LevelGrade8  AcademicLevel = "Grade 8"
	LevelGrade9  AcademicLevel = "Grade 9"
	LevelGrade10 AcademicLevel = "Grade 10"
	LevelOL      AcademicLevel = "GCE O/L"
	LevelAL      AcademicLevel = "GCE A/L"
)

// AcademicLevels lists every level in curriculum order.
var AcademicLevels = []AcademicLevel{
	LevelGrade1, LevelGrade2, LevelGrade3, LevelGrade4, LevelGrade5,
	LevelGrade6, LevelGrade7, LevelGrade8, LevelGrade9, LevelGrade10,
	LevelOL, LevelAL,
}

// OptionCount returns how many answer options a question at this level
// is expected to carry: 3 for the primary grades, 5 for A/L, 4 otherwise.
func (l AcademicLevel) OptionCount() int {
	switch l {
	case LevelGrade1, LevelGrade2, LevelGrade3, LevelGrade4, LevelGrade5:
		return 3
	case LevelAL:
		return 5
	default:
		return 4
	}
}

// Valid reports whether l is one of the known levels.
func (l AcademicLevel) Valid() bool {
	for _, known := range AcademicLevels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseAcademicLevel accepts the display name ("GCE O/L") or a short alias
// ("ol", "al", "grade7", "7").
func ParseAcademicLevel(s string) (AcademicLevel, error) {
	s = strings.TrimSpace(s)
	for _, l := range AcademicLevels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}

	key := strings.ToLower(strings.NewReplacer(" ", "", "/", "", "-", "", "_", "").Replace(s))
	switch key {
	case "ol", "gceol", "olevel":
		return LevelOL, nil
	case "al", "gceal", "alevel":
		return LevelAL, nil
	}
	key = strings.TrimPrefix(key, "grade")
	for i := 1; i <= 10; i++ {
		if key == fmt.Sprint(i) {
			return AcademicLevels[i-1], nil
		}
	}
	return "", fmt.Errorf("unknown academic level %q", s)
}

// Language is the language the paper is written in.
type Language string

const (
	English Language = "English"
	Sinhala Language = "Sinhala"
)

// Languages lists the supported output languages.
var Languages = []Language{English, Sinhala}

// ParseLanguage matches a language name case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	switch strings.ToLower(s) {
	case "en":
		return English, nil
	case "si":
		return Sinhala, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// GenerationConfig is the user's choice of level, language and focus
// topics. It is copied by value into each generation request.
type GenerationConfig struct {
	AcademicLevel AcademicLevel `json:"academic_level"`
	Language      Language      `json:"language"`
	FocusTopics   string        `json:"focus_topics"`
}

// DefaultGenerationConfig returns the configuration a fresh session starts with.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		AcademicLevel: LevelOL,
		Language:      English,
	}
}
