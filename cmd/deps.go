package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/examgen/internal/config"
	"github.com/abhisek/examgen/internal/export"
	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/logger"
	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizgen"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/store"
	"github.com/abhisek/examgen/internal/visual"
	"github.com/abhisek/examgen/internal/workspace"
)

// deps is everything a command needs to generate and export papers.
type deps struct {
	cfg   *config.Config
	store *store.Store
	coord *quizstate.Coordinator
	ws    *workspace.Workspace
	// disabled is non-nil when no model provider could be built.
	disabled error
}

// Close stops background work and closes the store.
func (d *deps) Close() {
	d.coord.Close()
	d.store.Close()
}

// unavailableGenerator stands in when no provider is configured.
type unavailableGenerator struct{ err error }

func (g unavailableGenerator) Generate(context.Context, quiz.UploadedMaterial, quiz.GenerationConfig) (*quiz.Quiz, error) {
	return nil, &quizgen.GenerationError{Reason: quizgen.ReasonTransport, Err: g.err}
}

// buildDeps opens the store and wires providers, coordinator, exporter and
// workspace. A missing provider is not an error: generation is disabled and
// the reason is kept in deps.disabled.
func buildDeps(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) (*deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	eventRepo := st.EventRepo()

	d := &deps{cfg: cfg, store: st, disabled: cfg.LLMErr}

	var gen quizgen.Generator = unavailableGenerator{err: cfg.LLMErr}
	var images llm.ImageProvider
	if d.disabled == nil {
		provider, err := llm.NewProvider(ctx, cfg.LLM, eventRepo)
		if err != nil {
			d.disabled = err
			gen = unavailableGenerator{err: err}
		} else {
			genCfg := quizgen.DefaultConfig()
			genCfg.Logger = logger.Component("quizgen")
			gen = quizgen.New(provider, genCfg)
		}

		images, err = llm.NewImageProvider(ctx, cfg.LLM, eventRepo)
		if err != nil {
			log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("diagrams disabled")
			images = nil
		}
	}
	if d.disabled != nil {
		log.Warn().Err(d.disabled).Msg("LLM provider not configured; generation disabled")
	}

	renderer := visual.NewRenderer(images, logger.Component("visual"), visual.WithTimeout(cfg.LLM.ImageTimeout))
	d.coord = quizstate.NewCoordinator(gen, renderer,
		quizstate.WithImageConcurrency(cfg.ImageConcurrency),
		quizstate.WithEventRepo(eventRepo),
		quizstate.WithLogger(logger.Component("coordinator")),
	)

	exporter := export.NewExporter(&export.PDFRenderer{FontPath: cfg.PDFFont}, eventRepo, logger.Component("export"))
	d.ws = workspace.New(d.coord, exporter, logger.Component("workspace"))
	return d, nil
}
