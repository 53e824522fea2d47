package quizgen

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/abhisek/examgen/internal/llm"
)

// quizOutput is the raw model response before validation.
type quizOutput struct {
	Metadata  metadataOutput   `json:"quiz_metadata"`
	Questions []questionOutput `json:"questions" jsonschema:"minItems=1"`
}

type metadataOutput struct {
	Title         string `json:"title" jsonschema_description:"Short title of the paper"`
	Subject       string `json:"subject" jsonschema_description:"School subject the material belongs to"`
	Language      string `json:"language" jsonschema_description:"Language the paper is written in"`
	AcademicLevel string `json:"academic_level" jsonschema_description:"Grade or examination the paper targets"`
}

type questionOutput struct {
	QuestionID         int      `json:"question_id"`
	Stem               string   `json:"stem" jsonschema_description:"The question text without its options"`
	Options            []string `json:"options" jsonschema:"minItems=1"`
	CorrectAnswerIndex int      `json:"correct_answer_index" jsonschema_description:"0-based index of the correct option"`
	Explanation        string   `json:"explanation"`
	CognitiveLevel     string   `json:"cognitive_level" jsonschema_description:"Bloom's taxonomy level"`
	SourceReference    string   `json:"source_reference,omitempty"`
	ImageDescription   string   `json:"image_description,omitempty" jsonschema_description:"A purely visual description of a diagram needed to pose the question. Never includes the answer, hints or explanatory labels."`
}

// QuizSchema is the output contract sent with every generation request,
// derived from quizOutput.
var QuizSchema = &llm.Schema{
	Name:        "practice-exam",
	Description: "A practice examination paper with multiple-choice questions",
	Definition:  reflectSchema(&quizOutput{}),
}

func reflectSchema(v any) map[string]any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		panic("quizgen: marshal schema: " + err.Error())
	}
	var def map[string]any
	if err := json.Unmarshal(b, &def); err != nil {
		panic("quizgen: unmarshal schema: " + err.Error())
	}
	delete(def, "$schema")
	delete(def, "$id")
	return def
}
