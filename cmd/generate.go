package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/examgen/internal/config"
	"github.com/abhisek/examgen/internal/export"
	"github.com/abhisek/examgen/internal/logger"
	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/upload"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate a practice paper without the terminal UI",
	Long: "Generate a paper from a PDF or image and print it, write it as JSON,\n" +
		"or export it as a PDF. Diagrams are waited for before output.",
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringP("level", "l", string(quiz.LevelOL), "Academic level (e.g. \"GCE O/L\", al, grade7)")
	f.String("language", string(quiz.English), "Paper language: English or Sinhala")
	f.StringP("topics", "t", "", "Focus topics")
	f.Bool("json", false, "Print the paper as JSON")
	f.Bool("pdf", false, "Export the paper as a PDF into --out")
	f.Bool("answers", false, "Include the answer key and explanations")
	f.StringP("out", "o", "", "Output directory for --pdf (default EXAMGEN_OUTPUT_DIR)")
	f.Duration("timeout", 5*time.Minute, "Give up after this long")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	f := cmd.Flags()
	levelFlag, _ := f.GetString("level")
	langFlag, _ := f.GetString("language")
	topics, _ := f.GetString("topics")
	asJSON, _ := f.GetBool("json")
	asPDF, _ := f.GetBool("pdf")
	answers, _ := f.GetBool("answers")
	outDir, _ := f.GetString("out")
	timeout, _ := f.GetDuration("timeout")

	if asJSON && asPDF {
		return fmt.Errorf("--json and --pdf are mutually exclusive")
	}
	level, err := quiz.ParseAcademicLevel(levelFlag)
	if err != nil {
		return err
	}
	lang, err := quiz.ParseLanguage(langFlag)
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	material, err := upload.Load(args[0], cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	d, err := buildDeps(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()
	if d.disabled != nil {
		return fmt.Errorf("generation unavailable: %w", d.disabled)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	genCfg := quiz.GenerationConfig{AcademicLevel: level, Language: lang, FocusTopics: topics}
	if _, err := d.ws.StartWith(ctx, material, genCfg); err != nil {
		return err
	}
	log.Info().Str("file", material.Name).Str("level", string(level)).Msg("generating paper")

	state, err := d.coord.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for paper: %w", err)
	}
	if state.Status == quizstate.StatusFailed {
		return state.Err
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state.Quiz)
	case asPDF:
		path, err := d.ws.Export(ctx, answers, outDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	default:
		printPaper(out, state.Quiz, answers)
		return nil
	}
}

// printPaper writes the paper as plain text in print order.
func printPaper(w io.Writer, q *quiz.Quiz, includeAnswers bool) {
	for _, b := range export.Layout(q, includeAnswers) {
		switch b.Kind {
		case export.BlockBanner:
			fmt.Fprintln(w, strings.ToUpper(b.Text))
		case export.BlockTitle:
			fmt.Fprintln(w, b.Text)
			fmt.Fprintln(w, strings.Repeat("─", 60))
		case export.BlockQuestion:
			fmt.Fprintln(w)
			fmt.Fprintln(w, b.Text)
		case export.BlockImage:
			fmt.Fprintln(w, "    [diagram]")
		case export.BlockOption, export.BlockAnswer, export.BlockExplanation:
			fmt.Fprintln(w, "    "+b.Text)
		default:
			fmt.Fprintln(w, b.Text)
		}
	}
}
