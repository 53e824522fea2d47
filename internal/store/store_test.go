package store

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"llm_request_events", "quiz_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq != int64(i+1) {
			t.Errorf("seq[%d] = %d, want %d", i, seq, i+1)
		}
	}
}

func TestLLMEventsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-3-flash-preview", Purpose: "quiz-gen", InputTokens: 1000, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "[user]\nAnalyze"},
		{Provider: "gemini", Model: "gemini-2.5-flash-image", Purpose: "diagram", InputTokens: 20, OutputTokens: 1290, LatencyMs: 3000, Success: true},
		{Provider: "gemini", Model: "gemini-2.5-flash-image", Purpose: "diagram", LatencyMs: 1000, Success: false, ErrorMessage: "no image"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Sequence <= all[1].Sequence {
		t.Errorf("expected newest first, got sequences %d, %d", all[0].Sequence, all[1].Sequence)
	}
	if all[0].Success || all[0].ErrorMessage != "no image" {
		t.Errorf("unexpected newest event %+v", all[0])
	}

	diagrams, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "diagram", Limit: 1})
	if err != nil {
		t.Fatalf("query diagrams: %v", err)
	}
	if len(diagrams) != 1 || diagrams[0].Purpose != "diagram" {
		t.Fatalf("unexpected filtered result %+v", diagrams)
	}

	first, err := repo.GetLLMEvent(ctx, all[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.RequestBody != "[user]\nAnalyze" || !first.Success {
		t.Fatalf("unexpected event %+v", first)
	}
	if time.Since(first.Timestamp) > time.Minute {
		t.Errorf("timestamp not recent: %v", first.Timestamp)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing event")
	}
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Model: "m1", Purpose: "quiz-gen", InputTokens: 100, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Model: "m1", Purpose: "quiz-gen", InputTokens: 300, OutputTokens: 30, LatencyMs: 300, Success: true},
		{Model: "m2", Purpose: "diagram", InputTokens: 5, OutputTokens: 50, LatencyMs: 50, Success: true},
	} {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	// Ordered by key: diagram, quiz-gen.
	quiz := byPurpose[1]
	if quiz.Purpose != "quiz-gen" || quiz.Calls != 2 || quiz.InputTokens != 400 || quiz.AvgLatencyMs != 200 {
		t.Errorf("unexpected quiz-gen stat %+v", quiz)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "m1" || byModel[1].OutputTokens != 50 {
		t.Errorf("unexpected model stats %+v", byModel)
	}
}

func TestQuizEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendQuizEvent(ctx, QuizEventData{Epoch: 1, Kind: QuizGenerated, Title: "Cells"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "m", Purpose: "diagram", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendQuizEvent(ctx, QuizEventData{Epoch: 1, Kind: DiagramResolved, QuestionID: "q2"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryQuizEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != DiagramResolved || events[0].QuestionID != "q2" || events[0].Epoch != 1 {
		t.Errorf("unexpected newest event %+v", events[0])
	}
	// The shared sequence leaves a gap where the LLM event was appended.
	if events[0].Sequence-events[1].Sequence != 2 {
		t.Errorf("expected interleaved sequences, got %d and %d", events[1].Sequence, events[0].Sequence)
	}

	after, err := repo.QueryQuizEvents(ctx, QueryOpts{After: events[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("got %d events after, want 1", len(after))
	}
}
