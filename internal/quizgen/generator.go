package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/quiz"
)

// Generator produces a complete quiz from one uploaded document.
type Generator interface {
	// Generate either returns a fully populated quiz or an error. A partial
	// quiz is never returned.
	Generate(ctx context.Context, material quiz.UploadedMaterial, cfg quiz.GenerationConfig) (*quiz.Quiz, error)
}

// Config holds generation settings.
type Config struct {
	// Validators run in order on the parsed quiz. A non-advisory failure
	// rejects the whole quiz.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	Logger zerolog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionCountValidator{},
		},
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Logger:      zerolog.Nop(),
	}
}

// Reasons a generation attempt fails.
const (
	ReasonTransport = "transport"
	ReasonEmpty     = "empty"
	ReasonParse     = "parse"
	ReasonInvalid   = "invalid"
)

// GenerationError is returned when no usable quiz could be produced.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "quiz generation failed: the model returned no content"
	case ReasonParse:
		return fmt.Sprintf("quiz generation failed: unreadable response: %v", e.Err)
	case ReasonInvalid:
		return fmt.Sprintf("quiz generation failed: %v", e.Err)
	default:
		return fmt.Sprintf("quiz generation failed: %v", e.Err)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate builds the request, sends it and converts the response.
func (g *LLMGenerator) Generate(ctx context.Context, material quiz.UploadedMaterial, cfg quiz.GenerationConfig) (*quiz.Quiz, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuiz)

	req := Build(material, cfg)
	if g.config.MaxTokens > 0 {
		req.MaxTokens = g.config.MaxTokens
	}
	if g.config.Temperature > 0 {
		req.Temperature = g.config.Temperature
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	if len(strings.TrimSpace(string(resp.Content))) == 0 {
		return nil, &GenerationError{Reason: ReasonEmpty}
	}

	// Providers validate structured output themselves; mocks and plain
	// text fallbacks do not, so check once more here.
	if err := llm.Validate(QuizSchema, resp.Content); err != nil {
		return nil, &GenerationError{Reason: ReasonParse, Err: err}
	}

	var raw quizOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &GenerationError{Reason: ReasonParse, Err: err}
	}

	q := raw.toQuiz(cfg)

	for _, v := range g.config.Validators {
		verr := v.Validate(q, cfg)
		if verr == nil {
			continue
		}
		if verr.Advisory {
			g.config.Logger.Warn().
				Str("validator", verr.Validator).
				Str("title", q.Metadata.Title).
				Msg(verr.Message)
			continue
		}
		return nil, &GenerationError{Reason: ReasonInvalid, Err: verr}
	}

	return q, nil
}

func (raw *quizOutput) toQuiz(cfg quiz.GenerationConfig) *quiz.Quiz {
	q := &quiz.Quiz{
		Metadata: quiz.Metadata{
			Title:         strings.TrimSpace(raw.Metadata.Title),
			Subject:       strings.TrimSpace(raw.Metadata.Subject),
			Language:      strings.TrimSpace(raw.Metadata.Language),
			AcademicLevel: strings.TrimSpace(raw.Metadata.AcademicLevel),
		},
		Questions: make([]quiz.Question, len(raw.Questions)),
	}
	if q.Metadata.Language == "" {
		q.Metadata.Language = string(cfg.Language)
	}
	if q.Metadata.AcademicLevel == "" {
		q.Metadata.AcademicLevel = string(cfg.AcademicLevel)
	}
	for i, r := range raw.Questions {
		q.Questions[i] = quiz.Question{
			ID:                 r.QuestionID,
			Stem:               r.Stem,
			Options:            r.Options,
			CorrectAnswerIndex: r.CorrectAnswerIndex,
			Explanation:        r.Explanation,
			CognitiveLevel:     r.CognitiveLevel,
			SourceReference:    r.SourceReference,
			ImageDescription:   strings.TrimSpace(r.ImageDescription),
		}
	}
	return q
}

// classify maps a provider failure onto the generation taxonomy.
func classify(err error) error {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		if len(strings.TrimSpace(string(invalid.Content))) == 0 {
			return &GenerationError{Reason: ReasonEmpty, Err: err}
		}
		return &GenerationError{Reason: ReasonParse, Err: err}
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return &GenerationError{Reason: ReasonParse, Err: err}
	}
	return &GenerationError{Reason: ReasonTransport, Err: err}
}
