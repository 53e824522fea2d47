package visual

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/llm"
)

func TestRenderDiagram_Success(t *testing.T) {
	mock := llm.NewMockImageProvider(llm.MockImage{Data: []byte("png-bytes"), MIMEType: "image/png"})
	r := NewRenderer(mock, zerolog.Nop())

	img, ok := r.RenderDiagram(context.Background(), "A right-angled triangle ABC")
	if !ok {
		t.Fatal("expected an image")
	}
	if string(img.Data) != "png-bytes" || img.MIMEType != "image/png" {
		t.Errorf("unexpected image %+v", img)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	req := mock.Calls[0]
	if req.AspectRatio != "1:1" {
		t.Errorf("aspect ratio = %q", req.AspectRatio)
	}
	if !strings.Contains(req.Prompt, "A right-angled triangle ABC.") {
		t.Errorf("prompt missing description: %q", req.Prompt)
	}
}

func TestRenderDiagram_NoneCases(t *testing.T) {
	tests := []struct {
		name   string
		result llm.MockImage
	}{
		{"declined", llm.MockImage{Err: llm.ErrNoImage}},
		{"transport failure", llm.MockImage{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}},
		{"empty payload", llm.MockImage{Data: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(llm.NewMockImageProvider(tt.result), zerolog.Nop())
			img, ok := r.RenderDiagram(context.Background(), "a circle")
			if ok || img != nil {
				t.Fatalf("expected no image, got %+v", img)
			}
		})
	}
}

func TestRenderDiagram_BlankDescriptionSkipsCall(t *testing.T) {
	mock := llm.NewMockImageProvider()
	r := NewRenderer(mock, zerolog.Nop())

	if _, ok := r.RenderDiagram(context.Background(), "   "); ok {
		t.Fatal("blank description should not produce an image")
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider should not be called, got %d calls", mock.CallCount())
	}
}

type slowProvider struct{}

func (slowProvider) GenerateImage(ctx context.Context, _ llm.ImageRequest) (*llm.ImageResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestRenderDiagram_Timeout(t *testing.T) {
	r := NewRenderer(slowProvider{}, zerolog.Nop(), WithTimeout(10*time.Millisecond))

	done := make(chan bool)
	go func() {
		_, ok := r.RenderDiagram(context.Background(), "a square")
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("timed out request should yield no image")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RenderDiagram did not honor its timeout")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  A blank map of Sri Lanka.  ")
	if !strings.HasPrefix(p, "A clean, professional educational diagram or illustration for a school test paper: A blank map of Sri Lanka.\n") {
		t.Errorf("unexpected prefix: %q", p)
	}
	for _, w := range []string{"DO NOT include any answers", "black and white line art"} {
		if !strings.Contains(p, w) {
			t.Errorf("prompt missing %q", w)
		}
	}
}
