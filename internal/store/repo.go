package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only; empty matches all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// Quiz lifecycle event kinds.
const (
	QuizGenerated   = "quiz-generated"
	QuizFailed      = "quiz-failed"
	DiagramResolved = "diagram-resolved"
	DiagramSkipped  = "diagram-skipped"
	QuizExported    = "quiz-exported"
)

// QuizEventData captures one quiz lifecycle event.
type QuizEventData struct {
	Epoch      uint64
	Kind       string
	Title      string
	QuestionID string
	Detail     string
}

// QuizEventRecord is a stored quiz lifecycle event.
type QuizEventRecord struct {
	QuizEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// UsageStat aggregates LLM usage under one key (purpose or model).
type UsageStat struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendQuizEvent records a quiz lifecycle event.
	AppendQuizEvent(ctx context.Context, data QuizEventData) error
}

// NopEventRepo discards every event.
type NopEventRepo struct{}

func (NopEventRepo) AppendLLMRequest(context.Context, LLMRequestEventData) error { return nil }
func (NopEventRepo) AppendQuizEvent(context.Context, QuizEventData) error        { return nil }
