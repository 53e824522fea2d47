package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/quiz"
)

const systemPrompt = `You are a curriculum expert for the Sri Lankan national school curriculum (Grades 1-13), including the GCE Ordinary Level (O/L) and Advanced Level (A/L) examinations. You turn study material (documents, images, videos) into practice examination papers.

Rules:
- Language: write every part of the paper in the requested language only. Sinhala output uses formal written Sinhala.
- Cognitive balance: tag each question with its Bloom's taxonomy level (Knowledge, Comprehension, Application, Analysis, Synthesis, Evaluation) and mix levels across the paper.
- Option count: Grades 1-5 use 3 options. Grades 6-10 and GCE O/L use 4 options. GCE A/L uses exactly 5 options. Exactly one option is correct and correct_answer_index is its 0-based position.
- Mathematics: wrap every mathematical expression in single dollar signs, e.g. $\frac{1}{2}$ or $\sqrt{16}$, using standard escaped commands (\frac, \sqrt, \times, \text). Never use Unicode root or fraction glyphs.
- Diagrams: set image_description only when a diagram is strictly required to pose the question (an unlabelled geometric figure, a circuit, a blank map). Describe the raw setup only. Never include the answer, a hint, or explanatory labels, and never describe an infographic that teaches the concept. Leave it empty otherwise.
- Question ids are consecutive integers starting at 1.
- Respond only with a JSON object that matches the provided schema.`

const imageRules = `Rules for images:
- Only provide an image_description if the question setup requires a diagram (such as a blank geometric shape or an unlabelled map).
- Do not provide an image for a purely text-based question.
- The image description must not contain any hints, answers or explanations.
- It describes only the physical setup of the problem.`

// Request defaults for quiz generation.
const (
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 16384
)

// Build turns the uploaded material and a frozen configuration into one
// generation request. It is pure: the same inputs yield an identical
// request and neither input is modified.
func Build(material quiz.UploadedMaterial, cfg quiz.GenerationConfig) llm.Request {
	data := make([]byte, len(material.Data))
	copy(data, material.Data)

	return llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildInstruction(material.Kind, cfg),
			Attachments: []llm.Attachment{{
				MIMEType: material.MIMEType,
				Data:     data,
			}},
		}},
		Schema:      QuizSchema,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// buildInstruction renders the user instruction for one request.
func buildInstruction(kind quiz.Kind, cfg quiz.GenerationConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the attached %s and generate a practice examination for %s in %s.\n",
		kind, cfg.AcademicLevel, cfg.Language)
	if topics := strings.TrimSpace(cfg.FocusTopics); topics != "" {
		fmt.Fprintf(&b, "Focus specifically on: %s\n", topics)
	}
	fmt.Fprintf(&b, "Each question must have exactly %d options.\n", cfg.AcademicLevel.OptionCount())
	b.WriteString("\n")
	b.WriteString(imageRules)

	return b.String()
}
