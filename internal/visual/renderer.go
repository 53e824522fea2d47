// Package visual renders per-question diagrams with an image model.
package visual

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/quiz"
)

// AspectRatio is the shape every diagram is requested in.
const AspectRatio = "1:1"

// Renderer turns a diagram description into an image.
type Renderer struct {
	provider llm.ImageProvider
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout bounds each image request. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) { r.timeout = d }
}

// NewRenderer creates a Renderer backed by provider.
func NewRenderer(provider llm.ImageProvider, log zerolog.Logger, opts ...Option) *Renderer {
	r := &Renderer{provider: provider, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderDiagram returns the rendered image and true, or nil and false when
// no diagram is available. Failures are logged and never returned: a
// question without its diagram is still usable.
func (r *Renderer) RenderDiagram(ctx context.Context, description string) (*quiz.Image, bool) {
	description = strings.TrimSpace(description)
	if description == "" || r.provider == nil {
		return nil, false
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeDiagram)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.provider.GenerateImage(ctx, llm.ImageRequest{
		Prompt:      BuildPrompt(description),
		AspectRatio: AspectRatio,
	})
	switch {
	case errors.Is(err, llm.ErrNoImage):
		r.log.Debug().Msg("image model returned no diagram")
		return nil, false
	case err != nil:
		r.log.Warn().Err(err).Msg("diagram generation failed")
		return nil, false
	case resp == nil || len(resp.Data) == 0:
		return nil, false
	}

	mimeType := resp.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &quiz.Image{Data: resp.Data, MIMEType: mimeType}, true
}

// BuildPrompt wraps a diagram description in the fixed style and safety
// instructions sent to the image model.
func BuildPrompt(description string) string {
	return fmt.Sprintf(`A clean, professional educational diagram or illustration for a school test paper: %s.
IMPORTANT:
1. DO NOT include any answers, solutions or hints in the image.
2. DO NOT include labels that explain the concept.
3. Only show the problem setup.
4. Style: simple black and white line art on a plain white background, like a printed exam paper. No text unless it is a coordinate or vertex label such as 'A', 'B', 'x', 'y'.`,
		strings.TrimRight(strings.TrimSpace(description), "."))
}
