package quiz

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata describes a generated paper.
type Metadata struct {
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Language      string `json:"language"`
	AcademicLevel string `json:"academic_level"`
}

// Image is a rendered diagram attached to a question.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL encodes the image as a data: URL suitable for an <img> source.
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// MarshalJSON encodes the image as its data URL.
func (img *Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.DataURL())
}

// UnmarshalJSON decodes a data URL produced by MarshalJSON.
func (img *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataURL(s)
	if err != nil {
		return err
	}
	*img = *parsed
	return nil
}

// ParseDataURL decodes a base64 data URL ("data:image/png;base64,...").
func ParseDataURL(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return &Image{Data: data, MIMEType: mimeType}, nil
}

// Question is a single multiple-choice item.
type Question struct {
	ID                 int      `json:"question_id"`
	Stem               string   `json:"stem"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
	CognitiveLevel     string   `json:"cognitive_level"`
	SourceReference    string   `json:"source_reference,omitempty"`
	ImageDescription   string   `json:"image_description,omitempty"`
	Image              *Image   `json:"image_url,omitempty"`
}

// NeedsDiagram reports whether the question asked for an illustration.
func (q Question) NeedsDiagram() bool {
	return strings.TrimSpace(q.ImageDescription) != ""
}

// HasCorrectAnswer reports whether CorrectAnswerIndex points at an option.
// A question from a misbehaving model may not; such a question has no
// option marked correct.
func (q Question) HasCorrectAnswer() bool {
	return q.CorrectAnswerIndex >= 0 && q.CorrectAnswerIndex < len(q.Options)
}

// IsCorrect reports whether option i is the correct one.
func (q Question) IsCorrect(i int) bool {
	return q.HasCorrectAnswer() && i == q.CorrectAnswerIndex
}

// CorrectLetter returns the label of the correct option, or "" when the
// index is out of range.
func (q Question) CorrectLetter() string {
	if !q.HasCorrectAnswer() {
		return ""
	}
	return OptionLabel(q.CorrectAnswerIndex)
}

// OptionLabel returns the letter for the i-th option: A, B, C, ...
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// Quiz is a generated paper. The question list and the set of ids are
// fixed once created; only diagram images are attached afterwards, and
// always by building a new Quiz value (see WithImage).
type Quiz struct {
	Metadata  Metadata   `json:"quiz_metadata"`
	Questions []Question `json:"questions"`
}

// Find returns the position of the question with the given id.
func (q *Quiz) Find(id int) (int, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// WithImage returns a copy of q in which only the question with the given
// id has its image replaced. The receiver and every other question are
// left untouched. The second result is false when the id is unknown.
func (q *Quiz) WithImage(id int, img *Image) (*Quiz, bool) {
	idx, ok := q.Find(id)
	if !ok {
		return q, false
	}
	questions := make([]Question, len(q.Questions))
	copy(questions, q.Questions)
	questions[idx].Image = img
	return &Quiz{Metadata: q.Metadata, Questions: questions}, true
}

// DiagramIDs returns the ids of questions that asked for a diagram.
func (q *Quiz) DiagramIDs() []int {
	var ids []int
	for _, question := range q.Questions {
		if question.NeedsDiagram() {
			ids = append(ids, question.ID)
		}
	}
	return ids
}
