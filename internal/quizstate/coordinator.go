package quizstate

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizgen"
	"github.com/abhisek/examgen/internal/store"
)

// ErrGenerationInProgress is returned by StartGeneration while a quiz
// request for the current epoch has not completed.
var ErrGenerationInProgress = errors.New("quiz generation already in progress")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("coordinator closed")

// DiagramRenderer renders one diagram. It reports false when no image is
// available and never fails.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, description string) (*quiz.Image, bool)
}

// result is a completion capsule. Every async task produces exactly one.
type result struct {
	epoch uint64

	// Quiz generation outcome.
	isQuiz bool
	quiz   *quiz.Quiz
	err    error

	// Diagram outcome.
	questionID int
	image      *quiz.Image
}

// Coordinator is the only writer of the quiz and its pending-diagram set.
type Coordinator struct {
	gen      quizgen.Generator
	renderer DiagramRenderer
	events   store.EventRepo
	log      zerolog.Logger
	sem      chan struct{}

	results chan result
	updates chan Event
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	tasks     sync.WaitGroup

	mu      sync.Mutex
	epoch   uint64
	status  Status
	current *quiz.Quiz
	pending map[int]bool
	lastErr error
	cancel  context.CancelFunc
	changed chan struct{}
	closed  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithImageConcurrency caps the number of diagram requests in flight.
func WithImageConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// WithEventRepo records lifecycle events to repo.
func WithEventRepo(repo store.EventRepo) Option {
	return func(c *Coordinator) { c.events = repo }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator creates a Coordinator and starts its completion loop.
// Call Close to stop it.
func NewCoordinator(gen quizgen.Generator, renderer DiagramRenderer, opts ...Option) *Coordinator {
	c := &Coordinator{
		gen:      gen,
		renderer: renderer,
		events:   store.NopEventRepo{},
		log:      zerolog.Nop(),
		sem:      make(chan struct{}, 4),
		results:  make(chan result, 16),
		updates:  make(chan Event, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		status:   StatusIdle,
		pending:  map[int]bool{},
		changed:  make(chan struct{}),
		cancel:   func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Updates delivers a notification after every state change. Slow
// listeners miss notifications rather than stall the coordinator; the
// latest state is always available from Snapshot.
func (c *Coordinator) Updates() <-chan Event {
	return c.updates
}

// StartGeneration begins a new attempt under a fresh epoch and returns
// that epoch. Results of earlier attempts, including diagrams still in
// flight, are discarded from now on.
func (c *Coordinator) StartGeneration(ctx context.Context, material quiz.UploadedMaterial, cfg quiz.GenerationConfig) (uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if c.status == StatusGenerating {
		c.mu.Unlock()
		return 0, ErrGenerationInProgress
	}
	epoch := c.advance(StatusGenerating)
	taskCtx := c.taskContext(ctx)
	c.mu.Unlock()

	c.log.Info().Uint64("epoch", epoch).Str("file", material.Name).
		Str("level", string(cfg.AcademicLevel)).Str("language", string(cfg.Language)).
		Msg("quiz generation started")
	c.notify(Event{Kind: EventGenerating, Epoch: epoch})

	c.spawn(func() result {
		q, err := c.gen.Generate(taskCtx, material, cfg)
		if q == nil && err == nil {
			err = errors.New("generator returned no quiz")
		}
		return result{epoch: epoch, isQuiz: true, quiz: q, err: err}
	})
	return epoch, nil
}

// Reset discards the quiz and everything in flight.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	epoch := c.advance(StatusIdle)
	c.mu.Unlock()

	c.log.Debug().Uint64("epoch", epoch).Msg("quiz reset")
	c.notify(Event{Kind: EventReset, Epoch: epoch})
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the current epoch has settled: the quiz request has
// completed and no diagram is pending. A Reset or new start while waiting
// moves the target to the new epoch.
func (c *Coordinator) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		s := c.snapshotLocked()
		changed := c.changed
		closed := c.closed
		c.mu.Unlock()

		if s.Settled() {
			return s, nil
		}
		if closed {
			return s, ErrClosed
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Close cancels outstanding work and stops the completion loop.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.cancel()
		c.broadcastLocked()
		c.mu.Unlock()

		close(c.done)
		<-c.stopped
		c.tasks.Wait()
	})
}

// advance starts a new epoch with an empty quiz. Callers hold c.mu.
func (c *Coordinator) advance(status Status) uint64 {
	c.cancel()
	c.cancel = func() {}
	c.epoch++
	c.status = status
	c.current = nil
	c.pending = map[int]bool{}
	c.lastErr = nil
	c.broadcastLocked()
	return c.epoch
}

// taskContext derives the context for this epoch's tasks. Tasks outlive
// the caller's request but stop on the next epoch or Close. Callers hold c.mu.
func (c *Coordinator) taskContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	c.cancel = cancel
	return ctx
}

func (c *Coordinator) snapshotLocked() State {
	pending := lo.Keys(c.pending)
	slices.Sort(pending)
	return State{
		Epoch:   c.epoch,
		Status:  c.status,
		Quiz:    c.current,
		Pending: pending,
		Err:     c.lastErr,
	}
}

func (c *Coordinator) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Coordinator) spawn(task func() result) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		r := task()
		select {
		case c.results <- r:
		case <-c.done:
		}
	}()
}

func (c *Coordinator) notify(ev Event) {
	select {
	case c.updates <- ev:
	default:
	}
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case r := <-c.results:
			c.apply(r)
		case <-c.done:
			return
		}
	}
}

// apply merges one completion into the current state.
func (c *Coordinator) apply(r result) {
	c.mu.Lock()
	if r.epoch != c.epoch {
		c.mu.Unlock()
		c.log.Debug().Uint64("epoch", r.epoch).Int("question_id", r.questionID).
			Msg("discarding result from a previous generation")
		return
	}

	var ev Event
	var record store.QuizEventData
	var diagrams []quiz.Question
	var taskCtx context.Context

	switch {
	case r.isQuiz && r.err != nil:
		c.status = StatusFailed
		c.lastErr = r.err
		ev = Event{Kind: EventQuizFailed, Epoch: r.epoch}
		record = store.QuizEventData{Epoch: r.epoch, Kind: store.QuizFailed, Detail: r.err.Error()}

	case r.isQuiz:
		c.status = StatusReady
		c.current = r.quiz
		diagrams = lo.Filter(r.quiz.Questions, func(q quiz.Question, _ int) bool {
			return q.NeedsDiagram()
		})
		for _, q := range diagrams {
			c.pending[q.ID] = true
		}
		taskCtx = c.epochContext()
		ev = Event{Kind: EventQuizReady, Epoch: r.epoch}
		record = store.QuizEventData{
			Epoch:  r.epoch,
			Kind:   store.QuizGenerated,
			Title:  r.quiz.Metadata.Title,
			Detail: strconv.Itoa(len(r.quiz.Questions)) + " questions, " + strconv.Itoa(len(diagrams)) + " diagrams",
		}

	default:
		if c.current == nil || !c.pending[r.questionID] {
			c.mu.Unlock()
			return
		}
		delete(c.pending, r.questionID)
		kind, evKind := store.DiagramSkipped, EventImageSkipped
		if r.image != nil {
			if next, ok := c.current.WithImage(r.questionID, r.image); ok {
				c.current = next
				kind, evKind = store.DiagramResolved, EventImageResolved
			}
		}
		ev = Event{Kind: evKind, Epoch: r.epoch, QuestionID: r.questionID}
		record = store.QuizEventData{
			Epoch:      r.epoch,
			Kind:       kind,
			Title:      c.current.Metadata.Title,
			QuestionID: strconv.Itoa(r.questionID),
		}
	}
	c.broadcastLocked()
	c.mu.Unlock()

	if r.isQuiz && r.err != nil {
		c.log.Warn().Err(r.err).Uint64("epoch", r.epoch).Msg("quiz generation failed")
	}
	for _, q := range diagrams {
		c.renderLater(taskCtx, r.epoch, q)
	}
	c.record(record)
	c.notify(ev)
}

// epochContext returns a context that ends with the current epoch.
// Callers hold c.mu.
func (c *Coordinator) epochContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	prev := c.cancel
	c.cancel = func() {
		prev()
		cancel()
	}
	return ctx
}

func (c *Coordinator) renderLater(ctx context.Context, epoch uint64, q quiz.Question) {
	c.spawn(func() result {
		r := result{epoch: epoch, questionID: q.ID}
		if c.renderer == nil {
			return r
		}
		select {
		case c.sem <- struct{}{}:
		case <-ctx.Done():
			return r
		}
		defer func() { <-c.sem }()

		img, ok := c.renderer.RenderDiagram(ctx, q.ImageDescription)
		if !ok {
			c.log.Debug().Uint64("epoch", epoch).Int("question_id", q.ID).Msg("no diagram for question")
			return r
		}
		r.image = img
		return r
	})
}

func (c *Coordinator) record(data store.QuizEventData) {
	if err := c.events.AppendQuizEvent(context.Background(), data); err != nil {
		c.log.Warn().Err(err).Str("kind", data.Kind).Msg("failed to record quiz event")
	}
}
