// Package workspace holds the state of one interactive session: the chosen
// material and configuration, the coordinator that owns the quiz, and the
// answer sheet. The terminal UI and the HTTP API both drive a Workspace.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/attempt"
	"github.com/abhisek/examgen/internal/export"
	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/upload"
)

// View is a consistent read of the whole session.
type View struct {
	SessionID string
	Material  *MaterialInfo
	Config    quiz.GenerationConfig
	State     quizstate.State
	Answers   map[int]int
	Revealed  bool
	CanReveal bool

	// Score is set once results are revealed.
	Score *attempt.Result
}

// MaterialInfo describes the selected file without its payload.
type MaterialInfo struct {
	Name     string    `json:"name"`
	MIMEType string    `json:"mime_type"`
	Kind     quiz.Kind `json:"kind"`
	Size     int       `json:"size"`
}

// Workspace serializes every session transition behind one mutex.
type Workspace struct {
	coord    *quizstate.Coordinator
	exporter *export.Exporter
	log      zerolog.Logger

	mu         sync.Mutex
	sessionID  string
	material   *quiz.UploadedMaterial
	config     quiz.GenerationConfig
	sheet      *attempt.Sheet
	sheetEpoch uint64
}

// New creates a Workspace around a coordinator and an exporter.
func New(coord *quizstate.Coordinator, exporter *export.Exporter, log zerolog.Logger) *Workspace {
	return &Workspace{
		coord:     coord,
		exporter:  exporter,
		log:       log,
		sessionID: uuid.NewString(),
		config:    quiz.DefaultGenerationConfig(),
		sheet:     attempt.NewSheet(nil),
	}
}

// Updates forwards coordinator notifications.
func (w *Workspace) Updates() <-chan quizstate.Event {
	return w.coord.Updates()
}

// SetMaterial selects the study document for the next generation.
func (w *Workspace) SetMaterial(m quiz.UploadedMaterial) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.material = &m
}

// SetConfig replaces the generation configuration.
func (w *Workspace) SetConfig(cfg quiz.GenerationConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.config = cfg
	return nil
}

// ErrInvalidConfig is returned for an unknown academic level or language.
var ErrInvalidConfig = errors.New("invalid generation config")

func validateConfig(cfg quiz.GenerationConfig) error {
	if !cfg.AcademicLevel.Valid() {
		return fmt.Errorf("%w: unknown academic level %q", ErrInvalidConfig, cfg.AcademicLevel)
	}
	if _, err := quiz.ParseLanguage(string(cfg.Language)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Config returns the current generation configuration.
func (w *Workspace) Config() quiz.GenerationConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// Start freezes the configuration and begins generating from the selected
// material.
func (w *Workspace) Start(ctx context.Context) (uint64, error) {
	w.mu.Lock()
	if w.material == nil {
		w.mu.Unlock()
		return 0, &upload.UploadError{Err: upload.ErrNoFile}
	}
	material, cfg := *w.material, w.config
	w.mu.Unlock()

	epoch, err := w.coord.StartGeneration(ctx, material, cfg)
	if err != nil {
		return 0, err
	}
	w.log.Debug().Str("session", w.sessionID).Uint64("epoch", epoch).Msg("generation requested")
	return epoch, nil
}

// StartWith begins generating from material with cfg. The material and
// configuration are recorded only when the coordinator accepts the start,
// so a rejected duplicate leaves the session as it was.
func (w *Workspace) StartWith(ctx context.Context, material quiz.UploadedMaterial, cfg quiz.GenerationConfig) (uint64, error) {
	if err := validateConfig(cfg); err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	epoch, err := w.coord.StartGeneration(ctx, material, cfg)
	if err != nil {
		return 0, err
	}
	w.material = &material
	w.config = cfg
	w.log.Debug().Str("session", w.sessionID).Uint64("epoch", epoch).Str("file", material.Name).Msg("generation requested")
	return epoch, nil
}

// View returns the current session state.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.syncLocked()
	v := View{
		SessionID: w.sessionID,
		Config:    w.config,
		State:     s,
		Answers:   w.sheet.Answers(),
		Revealed:  w.sheet.Revealed(),
		CanReveal: w.sheet.CanReveal(),
	}
	if w.material != nil {
		v.Material = &MaterialInfo{
			Name:     w.material.Name,
			MIMEType: w.material.MIMEType,
			Kind:     w.material.Kind,
			Size:     w.material.Size(),
		}
	}
	if v.Revealed {
		score := w.sheet.Score()
		v.Score = &score
	}
	return v
}

// Select records an answer.
func (w *Workspace) Select(id, option int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.syncLocked()
	return w.sheet.Select(id, option)
}

// Reveal shows results once every question is answered.
func (w *Workspace) Reveal() (attempt.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.syncLocked()
	if err := w.sheet.Reveal(); err != nil {
		return attempt.Result{}, err
	}
	return w.sheet.Score(), nil
}

// Retry clears the answers but keeps the quiz.
func (w *Workspace) Retry() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sheet.Retry()
}

// Reset starts a new assessment: the quiz, answers, material and
// configuration are all cleared.
func (w *Workspace) Reset() {
	w.coord.Reset()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.material = nil
	w.config = quiz.DefaultGenerationConfig()
	w.sheet.Reset()
	w.sessionID = uuid.NewString()
	w.syncLocked()
}

// Export writes the current paper into dir.
func (w *Workspace) Export(ctx context.Context, includeAnswers bool, dir string) (string, error) {
	return w.exporter.Export(ctx, w.coord.Snapshot().Quiz, includeAnswers, dir)
}

// WriteExport renders the current paper to out and returns its file name.
func (w *Workspace) WriteExport(ctx context.Context, out io.Writer, includeAnswers bool) (string, error) {
	q := w.coord.Snapshot().Quiz
	if err := w.exporter.Write(out, q, includeAnswers); err != nil {
		return "", err
	}
	name := w.exporter.Filename(q.Metadata.Title, includeAnswers)
	w.exporter.Record(ctx, q, includeAnswers, name)
	return name, nil
}

// syncLocked points the sheet at the coordinator's current quiz. A new
// epoch starts a fresh sheet; an image merge within the same epoch keeps
// the answers.
func (w *Workspace) syncLocked() quizstate.State {
	s := w.coord.Snapshot()
	switch {
	case s.Epoch != w.sheetEpoch:
		w.sheet = attempt.NewSheet(s.Quiz)
		w.sheetEpoch = s.Epoch
	case s.Quiz != w.sheet.Quiz():
		w.sheet.Bind(s.Quiz)
	}
	return s
}
