package quizstate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/store"
)

// fakeGenerator returns a fixed quiz, optionally after gate is closed.
type fakeGenerator struct {
	quiz  *quiz.Quiz
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (g *fakeGenerator) Generate(ctx context.Context, _ quiz.UploadedMaterial, _ quiz.GenerationConfig) (*quiz.Quiz, error) {
	g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.quiz, nil
}

// fakeRenderer answers per description. Descriptions listed in gates
// block until their channel is closed and then answer even if the
// context was cancelled, like a slow network reply.
type fakeRenderer struct {
	mu       sync.Mutex
	images   map[string]*quiz.Image
	gates    map[string]chan struct{}
	returned chan string

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     time.Duration
}

func (r *fakeRenderer) RenderDiagram(_ context.Context, desc string) (*quiz.Image, bool) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	r.mu.Lock()
	gate := r.gates[desc]
	img := r.images[desc]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if r.hold > 0 {
		time.Sleep(r.hold)
	}
	if r.returned != nil {
		r.returned <- desc
	}
	return img, img != nil
}

type recordingRepo struct {
	store.NopEventRepo
	mu     sync.Mutex
	events []store.QuizEventData
}

func (r *recordingRepo) AppendQuizEvent(_ context.Context, data store.QuizEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return nil
}

func (r *recordingRepo) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// assertKinds waits for the recorded event kinds to match want. Events are
// recorded just after the state change becomes visible.
func assertKinds(t *testing.T, repo *recordingRepo, want []string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return reflect.DeepEqual(repo.kinds(), want)
	}, time.Second, time.Millisecond, "recorded %v, want %v", repo.kinds(), want)
}

func threeQuestionQuiz() *quiz.Quiz {
	opts := []string{"a", "b", "c", "d"}
	return &quiz.Quiz{
		Metadata: quiz.Metadata{Title: "Geometry", Subject: "Mathematics"},
		Questions: []quiz.Question{
			{ID: 1, Stem: "one", Options: opts, CorrectAnswerIndex: 0},
			{ID: 2, Stem: "two", Options: opts, CorrectAnswerIndex: 1, ImageDescription: "triangle"},
			{ID: 3, Stem: "three", Options: opts, CorrectAnswerIndex: 2},
		},
	}
}

func material() quiz.UploadedMaterial {
	return quiz.UploadedMaterial{Name: "notes.pdf", Data: []byte("%PDF"), MIMEType: "application/pdf", Kind: quiz.KindPDF}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitFor(t *testing.T, c *Coordinator, cond func(State) bool) State {
	t.Helper()
	var s State
	require.Eventually(t, func() bool {
		s = c.Snapshot()
		return cond(s)
	}, 5*time.Second, time.Millisecond)
	return s
}

func TestCoordinator_ResolvesDiagram(t *testing.T) {
	img := &quiz.Image{Data: []byte("png"), MIMEType: "image/png"}
	gen := &fakeGenerator{quiz: threeQuestionQuiz()}
	r := &fakeRenderer{images: map[string]*quiz.Image{"triangle": img}}
	repo := &recordingRepo{}
	c := NewCoordinator(gen, r, WithEventRepo(repo))
	defer c.Close()

	epoch, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	s, err := c.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, StatusReady, s.Status)
	require.NotNil(t, s.Quiz)

	assert.Same(t, img, s.Quiz.Questions[1].Image)
	assert.Equal(t, ImageResolved, s.ImageStatus(2))
	assert.Equal(t, ImageNotNeeded, s.ImageStatus(1))
	assert.Empty(t, s.Pending)
	assertKinds(t, repo, []string{store.QuizGenerated, store.DiagramResolved})
}

func TestCoordinator_MergeLeavesSiblingsUntouched(t *testing.T) {
	gate := make(chan struct{})
	img := &quiz.Image{Data: []byte("png"), MIMEType: "image/png"}
	gen := &fakeGenerator{quiz: threeQuestionQuiz()}
	r := &fakeRenderer{
		images: map[string]*quiz.Image{"triangle": img},
		gates:  map[string]chan struct{}{"triangle": gate},
	}
	c := NewCoordinator(gen, r)
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	before := waitFor(t, c, func(s State) bool { return s.Status == StatusReady })
	require.True(t, before.IsPending(2))
	assert.Equal(t, ImagePending, before.ImageStatus(2))
	q1, q3 := before.Quiz.Questions[0], before.Quiz.Questions[2]

	close(gate)
	after, err := c.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(q1, after.Quiz.Questions[0]))
	assert.True(t, reflect.DeepEqual(q3, after.Quiz.Questions[2]))
	assert.Nil(t, before.Quiz.Questions[1].Image, "published snapshot must not change")
	assert.NotNil(t, after.Quiz.Questions[1].Image)
}

func TestCoordinator_LateImageAfterResetIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	gen := &fakeGenerator{quiz: threeQuestionQuiz()}
	r := &fakeRenderer{
		images:   map[string]*quiz.Image{"triangle": {Data: []byte("png"), MIMEType: "image/png"}},
		gates:    map[string]chan struct{}{"triangle": gate},
		returned: make(chan string, 1),
	}
	repo := &recordingRepo{}
	c := NewCoordinator(gen, r, WithEventRepo(repo))
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)
	waitFor(t, c, func(s State) bool { return s.IsPending(2) })

	c.Reset()
	reset := c.Snapshot()
	close(gate)
	<-r.returned

	assert.Never(t, func() bool {
		s := c.Snapshot()
		return s.Quiz != nil || len(s.Pending) > 0 || s.Status != StatusIdle || s.Epoch != reset.Epoch
	}, 100*time.Millisecond, 5*time.Millisecond)
	assertKinds(t, repo, []string{store.QuizGenerated})
}

func TestCoordinator_LateQuizAfterResetIsDiscarded(t *testing.T) {
	gen := &fakeGenerator{quiz: threeQuestionQuiz(), gate: make(chan struct{})}
	c := NewCoordinator(gen, &fakeRenderer{})
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)
	c.Reset()
	close(gen.gate)

	assert.Never(t, func() bool {
		return c.Snapshot().Quiz != nil
	}, 100*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}

func TestCoordinator_DiagramSkipped(t *testing.T) {
	gen := &fakeGenerator{quiz: threeQuestionQuiz()}
	repo := &recordingRepo{}
	c := NewCoordinator(gen, &fakeRenderer{}, WithEventRepo(repo))
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	s, err := c.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Nil(t, s.Quiz.Questions[1].Image)
	assert.False(t, s.IsPending(2))
	assert.Equal(t, ImageSkipped, s.ImageStatus(2))
	assertKinds(t, repo, []string{store.QuizGenerated, store.DiagramSkipped})
}

func TestCoordinator_DuplicateStartRejected(t *testing.T) {
	gen := &fakeGenerator{quiz: threeQuestionQuiz(), gate: make(chan struct{})}
	c := NewCoordinator(gen, &fakeRenderer{})
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	_, err = c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(gen.gate)
	_, err = c.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestCoordinator_FailureThenRetry(t *testing.T) {
	boom := errors.New("transport down")
	gen := &fakeGenerator{err: boom}
	repo := &recordingRepo{}
	c := NewCoordinator(gen, &fakeRenderer{}, WithEventRepo(repo))
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	s, err := c.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)
	assert.ErrorIs(t, s.Err, boom)
	assert.Nil(t, s.Quiz)

	gen.err = nil
	gen.quiz = threeQuestionQuiz()
	epoch, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)

	s, err = c.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s.Status)
	assert.NoError(t, s.Err)
	assert.Eventually(t, func() bool {
		k := repo.kinds()
		return len(k) > 0 && k[0] == store.QuizFailed
	}, time.Second, time.Millisecond)
}

func TestCoordinator_ImageConcurrencyCap(t *testing.T) {
	q := &quiz.Quiz{Metadata: quiz.Metadata{Title: "Many"}}
	images := map[string]*quiz.Image{}
	for i := 1; i <= 6; i++ {
		desc := fmt.Sprintf("figure %d", i)
		q.Questions = append(q.Questions, quiz.Question{ID: i, Stem: "s", Options: []string{"a"}, ImageDescription: desc})
		images[desc] = &quiz.Image{Data: []byte{byte(i)}, MIMEType: "image/png"}
	}
	r := &fakeRenderer{images: images, hold: 10 * time.Millisecond}
	c := NewCoordinator(&fakeGenerator{quiz: q}, r, WithImageConcurrency(2))
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	s, err := c.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.LessOrEqual(t, r.maxSeen.Load(), int32(2))
	for _, question := range s.Quiz.Questions {
		assert.Equal(t, ImageResolved, s.ImageStatus(question.ID), "question %d", question.ID)
	}
}

func TestCoordinator_Updates(t *testing.T) {
	c := NewCoordinator(&fakeGenerator{quiz: threeQuestionQuiz()}, &fakeRenderer{})
	defer c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	require.NoError(t, err)

	var kinds []EventKind
	timeout := time.After(5 * time.Second)
	for len(kinds) < 3 {
		select {
		case ev := <-c.Updates():
			kinds = append(kinds, ev.Kind)
		case <-timeout:
			t.Fatalf("timed out, got %v", kinds)
		}
	}
	assert.Equal(t, []EventKind{EventGenerating, EventQuizReady, EventImageSkipped}, kinds)
}

func TestCoordinator_ClosedRejectsStart(t *testing.T) {
	c := NewCoordinator(&fakeGenerator{quiz: threeQuestionQuiz()}, &fakeRenderer{})
	c.Close()
	c.Close()

	_, err := c.StartGeneration(context.Background(), material(), quiz.DefaultGenerationConfig())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestState_ImageStatusWithoutQuiz(t *testing.T) {
	var s State
	assert.Equal(t, ImageNotNeeded, s.ImageStatus(1))
	assert.True(t, s.Settled())
}
