package quizgen

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/quiz"
)

func TestBuild_Deterministic(t *testing.T) {
	m := testMaterial()
	cfg := testConfig()

	a := Build(m, cfg)
	b := Build(m, cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Build returned different requests for the same input")
	}
	if a.Schema != b.Schema {
		t.Error("schema reference should be identical")
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	m := testMaterial()
	orig := append([]byte(nil), m.Data...)

	req := Build(m, testConfig())
	req.Messages[0].Attachments[0].Data[0] = 'X'

	if !bytes.Equal(m.Data, orig) {
		t.Fatal("mutating the request changed the material")
	}
}

func TestBuild_Instruction(t *testing.T) {
	tests := []struct {
		name    string
		kind    quiz.Kind
		cfg     quiz.GenerationConfig
		want    []string
		notWant []string
	}{
		{
			name: "pdf with topics",
			kind: quiz.KindPDF,
			cfg:  quiz.GenerationConfig{AcademicLevel: quiz.LevelOL, Language: quiz.English, FocusTopics: "Algebra"},
			want: []string{
				"Analyze the attached pdf and generate a practice examination for GCE O/L in English.",
				"Focus specifically on: Algebra",
				"exactly 4 options",
				"Rules for images:",
			},
		},
		{
			name:    "video without topics",
			kind:    quiz.KindVideo,
			cfg:     quiz.GenerationConfig{AcademicLevel: quiz.LevelAL, Language: quiz.Sinhala, FocusTopics: "   "},
			want:    []string{"attached video", "GCE A/L in Sinhala", "exactly 5 options"},
			notWant: []string{"Focus specifically on"},
		},
		{
			name: "primary grade",
			kind: quiz.KindImage,
			cfg:  quiz.GenerationConfig{AcademicLevel: quiz.LevelGrade2, Language: quiz.English},
			want: []string{"attached image", "exactly 3 options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMaterial()
			m.Kind = tt.kind
			req := Build(m, tt.cfg)
			text := req.Messages[0].Content
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Errorf("instruction missing %q:\n%s", w, text)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(text, w) {
					t.Errorf("instruction should not contain %q", w)
				}
			}
		})
	}
}

func TestBuild_SystemPolicy(t *testing.T) {
	req := Build(testMaterial(), testConfig())
	for _, w := range []string{"3 options", "exactly 5 options", "$", "image_description", "answer"} {
		if !strings.Contains(req.System, w) {
			t.Errorf("system instruction missing %q", w)
		}
	}
	if req.Messages[0].Role != llm.RoleUser {
		t.Errorf("role = %q", req.Messages[0].Role)
	}
}

func TestQuizSchema_Shape(t *testing.T) {
	def := QuizSchema.Definition
	if _, ok := def["$schema"]; ok {
		t.Error("$schema should be stripped")
	}
	required := toStrings(def["required"])
	if !reflect.DeepEqual(required, []string{"quiz_metadata", "questions"}) {
		t.Errorf("top-level required = %v", required)
	}

	props := def["properties"].(map[string]any)
	questions := props["questions"].(map[string]any)
	items := questions["items"].(map[string]any)
	itemRequired := toStrings(items["required"])
	for _, f := range []string{"question_id", "stem", "options", "correct_answer_index", "explanation", "cognitive_level"} {
		if !contains(itemRequired, f) {
			t.Errorf("question field %q should be required", f)
		}
	}
	for _, f := range []string{"source_reference", "image_description"} {
		if contains(itemRequired, f) {
			t.Errorf("question field %q should be optional", f)
		}
	}
}

func toStrings(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.(string))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
