package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/store"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.White)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleQuiz(t *testing.T) *quiz.Quiz {
	return &quiz.Quiz{
		Metadata: quiz.Metadata{
			Title:         "Algebra  Practice Test",
			Subject:       "Mathematics",
			Language:      "English",
			AcademicLevel: "GCE O/L",
		},
		Questions: []quiz.Question{
			{
				ID:                 1,
				Stem:               "Simplify $\\frac{6}{3}$.",
				Options:            []string{"1", "2", "3", "4"},
				CorrectAnswerIndex: 1,
				Explanation:        "Six divided by three is two.",
			},
			{
				ID:                 2,
				Stem:               "What is $\\sqrt{81}$?",
				Options:            []string{"7", "8", "9", "10"},
				CorrectAnswerIndex: 2,
				Explanation:        "Nine squared is eighty-one.",
				ImageDescription:   "a square",
				Image:              &quiz.Image{Data: testPNG(t), MIMEType: "image/png"},
			},
			{
				ID:                 3,
				Stem:               "Angle in the figure?",
				Options:            []string{"30", "60", "90", "120"},
				CorrectAnswerIndex: 0,
				Explanation:        "Alternate angles are equal.",
				ImageDescription:   "two parallel lines",
			},
		},
	}
}

func texts(blocks []Block, kind BlockKind) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == kind {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestLayout_PaperOmitsAnswers(t *testing.T) {
	blocks := Layout(sampleQuiz(t), false)

	assert.Empty(t, texts(blocks, BlockAnswer))
	assert.Empty(t, texts(blocks, BlockExplanation))
	assert.Equal(t, []string{"Q1. Simplify 6/3.", "Q2. What is √81?", "Q3. Angle in the figure?"}, texts(blocks, BlockQuestion))
	assert.Contains(t, texts(blocks, BlockOption), "C) 9")
	assert.Len(t, blocksOf(blocks, BlockImage), 1, "only the question with an image gets an image block")
}

func TestLayout_AnswersIncludeKey(t *testing.T) {
	blocks := Layout(sampleQuiz(t), true)

	assert.Equal(t, []string{"Correct Answer: B", "Correct Answer: C", "Correct Answer: A"}, texts(blocks, BlockAnswer))
	assert.Len(t, texts(blocks, BlockExplanation), 3)
	assert.Equal(t, "Subject: Mathematics | Level: GCE O/L | Language: English", texts(blocks, BlockMeta)[0])
}

func TestLayout_OutOfRangeAnswerHasNoLetter(t *testing.T) {
	q := &quiz.Quiz{Questions: []quiz.Question{{ID: 1, Stem: "s", Options: []string{"a"}, CorrectAnswerIndex: 3}}}
	assert.Empty(t, texts(Layout(q, true), BlockAnswer))
}

func blocksOf(blocks []Block, kind BlockKind) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func TestDocument(t *testing.T) {
	q := sampleQuiz(t)

	paper, err := Document(q, false)
	require.NoError(t, err)
	answers, err := Document(q, true)
	require.NoError(t, err)

	for _, doc := range []string{paper, answers} {
		assert.Contains(t, doc, Banner)
		assert.Contains(t, doc, `<span class="math">`)
		assert.Contains(t, doc, `src="data:image/png;base64,`)
		assert.Equal(t, 1, strings.Count(doc, "<img"))
		assert.Contains(t, doc, "max-height: 250px")
	}

	assert.NotContains(t, paper, "Correct Answer")
	for _, question := range q.Questions {
		assert.NotContains(t, paper, question.Explanation)
		assert.Contains(t, answers, question.Explanation)
		assert.Contains(t, answers, "Correct Answer: "+question.CorrectLetter())
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title   string
		answers bool
		want    string
	}{
		{"Algebra Practice Test", false, "Algebra_Practice_Test_Paper.pdf"},
		{"Algebra  Practice\tTest", true, "Algebra_Practice_Test_Answers.pdf"},
		{"", false, "Exam_Paper.pdf"},
		{"   ", true, "Exam_Answers.pdf"},
		{"GCE O/L Science", false, "GCE_O-L_Science_Paper.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.title, tt.answers); got != tt.want {
			t.Errorf("Filename(%q, %v) = %q, want %q", tt.title, tt.answers, got, tt.want)
		}
	}
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := &PDFRenderer{}
	require.NoError(t, r.Render(&buf, sampleQuiz(t), true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFRenderer_BadImageSkipped(t *testing.T) {
	q := sampleQuiz(t)
	q.Questions[1].Image = &quiz.Image{Data: []byte("not a png"), MIMEType: "image/png"}

	var buf bytes.Buffer
	require.NoError(t, (&PDFRenderer{}).Render(&buf, q, false))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPDFRenderer_MissingFont(t *testing.T) {
	r := &PDFRenderer{FontPath: filepath.Join(t.TempDir(), "missing.ttf")}
	err := r.Render(io.Discard, sampleQuiz(t), false)
	assert.Error(t, err)
}

type exportRepo struct {
	store.NopEventRepo
	events []store.QuizEventData
}

func (r *exportRepo) AppendQuizEvent(_ context.Context, d store.QuizEventData) error {
	r.events = append(r.events, d)
	return nil
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	repo := &exportRepo{}
	e := NewExporter(&PDFRenderer{}, repo, zerolog.Nop())

	path, err := e.Export(context.Background(), sampleQuiz(t), false, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Algebra_Practice_Test_Paper.pdf"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must not remain")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	require.Len(t, repo.events, 1)
	assert.Equal(t, store.QuizExported, repo.events[0].Kind)
}

type failingRenderer struct{}

func (failingRenderer) Ext() string { return ".pdf" }

func (failingRenderer) Render(w io.Writer, _ *quiz.Quiz, _ bool) error {
	_, _ = io.WriteString(w, "partial")
	return errors.New("layout exploded")
}

func TestExporter_FailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(failingRenderer{}, nil, zerolog.Nop())

	_, err := e.Export(context.Background(), sampleQuiz(t), true, dir)
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, StageRender, exportErr.Stage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExporter_CancelledCleansUp(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExporter(HTMLRenderer{}, nil, zerolog.Nop()).Export(ctx, sampleQuiz(t), false, dir)
	require.ErrorIs(t, err, context.Canceled)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestExporter_NoQuiz(t *testing.T) {
	_, err := NewExporter(HTMLRenderer{}, nil, zerolog.Nop()).Export(context.Background(), nil, false, t.TempDir())
	assert.ErrorIs(t, err, ErrNoQuiz)
}

func TestExporter_HTMLFilename(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExporter(HTMLRenderer{}, nil, zerolog.Nop()).Export(context.Background(), sampleQuiz(t), true, dir)
	require.NoError(t, err)
	assert.Equal(t, "Algebra_Practice_Test_Answers.html", filepath.Base(path))
}
