package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/store"
)

// Export stages.
const (
	StageRender = "render"
	StageWrite  = "write"
)

// ErrNoQuiz is returned when there is nothing to export.
var ErrNoQuiz = errors.New("no quiz to export")

// ExportError is returned when a paper could not be produced.
type ExportError struct {
	Stage string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed (%s): %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Exporter writes papers to disk.
type Exporter struct {
	renderer Renderer
	events   store.EventRepo
	log      zerolog.Logger
}

// NewExporter creates an Exporter. A nil events repo disables recording.
func NewExporter(r Renderer, events store.EventRepo, log zerolog.Logger) *Exporter {
	if events == nil {
		events = store.NopEventRepo{}
	}
	return &Exporter{renderer: r, events: events, log: log}
}

// Ext returns the extension of produced files.
func (e *Exporter) Ext() string {
	return e.renderer.Ext()
}

// Filename returns the name Export will use inside its directory.
func (e *Exporter) Filename(title string, includeAnswers bool) string {
	return strings.TrimSuffix(Filename(title, includeAnswers), ".pdf") + e.renderer.Ext()
}

// Write renders q to w.
func (e *Exporter) Write(w io.Writer, q *quiz.Quiz, includeAnswers bool) error {
	if q == nil {
		return &ExportError{Stage: StageRender, Err: ErrNoQuiz}
	}
	if err := e.renderer.Render(w, q, includeAnswers); err != nil {
		return &ExportError{Stage: StageRender, Err: err}
	}
	return nil
}

// Export renders q into dir and returns the written path. The paper is
// rendered into a temporary file that is renamed into place on success
// and removed on any failure.
func (e *Exporter) Export(ctx context.Context, q *quiz.Quiz, includeAnswers bool, dir string) (path string, err error) {
	if q == nil {
		return "", &ExportError{Stage: StageRender, Err: ErrNoQuiz}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".examgen-*"+e.renderer.Ext())
	if err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				e.log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove temporary export")
			}
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = e.Write(bw, q, includeAnswers); err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}
	if err = ctx.Err(); err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}

	path = filepath.Join(dir, e.Filename(q.Metadata.Title, includeAnswers))
	if err = os.Rename(tmpName, path); err != nil {
		return "", &ExportError{Stage: StageWrite, Err: err}
	}

	e.log.Info().Str("path", path).Bool("answers", includeAnswers).Msg("paper exported")
	e.Record(ctx, q, includeAnswers, path)
	return path, nil
}

// Record logs a completed export to the event repo.
func (e *Exporter) Record(ctx context.Context, q *quiz.Quiz, includeAnswers bool, where string) {
	mode := "paper"
	if includeAnswers {
		mode = "answers"
	}
	err := e.events.AppendQuizEvent(context.WithoutCancel(ctx), store.QuizEventData{
		Kind:   store.QuizExported,
		Title:  q.Metadata.Title,
		Detail: mode + " " + where,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to record export event")
	}
}
