package server

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abhisek/examgen/internal/attempt"
	"github.com/abhisek/examgen/internal/export"
	"github.com/abhisek/examgen/internal/quiz"
	"github.com/abhisek/examgen/internal/quizstate"
	"github.com/abhisek/examgen/internal/upload"
	"github.com/abhisek/examgen/internal/workspace"
)

// QuizHandler serves the quiz endpoints for one workspace.
type QuizHandler struct {
	ws        *workspace.Workspace
	maxUpload int64
	disabled  error
	log       zerolog.Logger
}

// NewQuizHandler creates a QuizHandler. When disabled is non-nil, starting
// a generation is refused with that reason.
func NewQuizHandler(ws *workspace.Workspace, maxUpload int64, disabled error, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{ws: ws, maxUpload: maxUpload, disabled: disabled, log: log}
}

// CreateQuizForm is the multipart form for POST /api/v1/quizzes.
type CreateQuizForm struct {
	AcademicLevel string `form:"academic_level" json:"academic_level" binding:"omitempty,academic_level"`
	Language      string `form:"language" json:"language" binding:"omitempty,language"`
	FocusTopics   string `form:"focus_topics" json:"focus_topics" binding:"max=500"`
}

// AnswerRequest is the body of PUT /api/v1/quiz/answers.
type AnswerRequest struct {
	QuestionID  *int `json:"question_id" binding:"required"`
	OptionIndex *int `json:"option_index" binding:"required,min=0"`
}

// QuizView is the JSON shape of the session state.
type QuizView struct {
	SessionID     string                  `json:"session_id"`
	Epoch         uint64                  `json:"epoch"`
	Status        quizstate.Status        `json:"status"`
	Error         string                  `json:"error,omitempty"`
	Material      *workspace.MaterialInfo `json:"material"`
	Config        quiz.GenerationConfig   `json:"config"`
	Quiz          *quiz.Quiz              `json:"quiz"`
	PendingImages []int                   `json:"pending_images"`
	Answers       map[int]int             `json:"answers"`
	Revealed      bool                    `json:"revealed"`
	CanReveal     bool                    `json:"can_reveal"`
	Score         *attempt.Result         `json:"score,omitempty"`
}

func newQuizView(v workspace.View) QuizView {
	out := QuizView{
		SessionID:     v.SessionID,
		Epoch:         v.State.Epoch,
		Status:        v.State.Status,
		Material:      v.Material,
		Config:        v.Config,
		Quiz:          v.State.Quiz,
		PendingImages: v.State.Pending,
		Answers:       v.Answers,
		Revealed:      v.Revealed,
		CanReveal:     v.CanReveal,
		Score:         v.Score,
	}
	if v.State.Err != nil {
		out.Error = v.State.Err.Error()
	}
	if out.PendingImages == nil {
		out.PendingImages = []int{}
	}
	return out
}

// CreateQuiz godoc
// POST /api/v1/quizzes
// Uploads a study document and starts generating a quiz from it.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	if h.disabled != nil {
		h.log.Warn().Err(h.disabled).Msg("generation requested without a provider")
		Fail(c, http.StatusServiceUnavailable, ErrGenerationDisabled)
		return
	}

	var form CreateQuizForm
	if err := c.ShouldBind(&form); err != nil {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, TranslateErrors(err))
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, ErrFileRequired)
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		Fail(c, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}
	material, err := upload.FromReader(header.Filename, file, h.maxUpload)
	if err != nil {
		h.fail(c, err)
		return
	}

	cfg := quiz.DefaultGenerationConfig()
	if form.AcademicLevel != "" {
		cfg.AcademicLevel, _ = quiz.ParseAcademicLevel(form.AcademicLevel)
	}
	if form.Language != "" {
		cfg.Language, _ = quiz.ParseLanguage(form.Language)
	}
	cfg.FocusTopics = form.FocusTopics

	epoch, err := h.ws.StartWith(c.Request.Context(), material, cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, http.StatusAccepted, gin.H{"epoch": epoch, "status": quizstate.StatusGenerating})
}

// GetQuiz godoc
// GET /api/v1/quiz
// Returns the current quiz, pending diagrams, answers and score.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	Success(c, http.StatusOK, newQuizView(h.ws.View()))
}

// SelectAnswer godoc
// PUT /api/v1/quiz/answers
// Records the chosen option for one question.
func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, TranslateErrors(err))
		return
	}
	if err := h.ws.Select(*req.QuestionID, *req.OptionIndex); err != nil {
		h.fail(c, err)
		return
	}
	Success(c, http.StatusOK, newQuizView(h.ws.View()))
}

// Reveal godoc
// POST /api/v1/quiz/reveal
// Freezes the answers and returns the score.
func (h *QuizHandler) Reveal(c *gin.Context) {
	result, err := h.ws.Reveal()
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, http.StatusOK, result)
}

// Retry godoc
// POST /api/v1/quiz/retry
// Clears answers and hides results, keeping the quiz.
func (h *QuizHandler) Retry(c *gin.Context) {
	h.ws.Retry()
	Success(c, http.StatusOK, newQuizView(h.ws.View()))
}

// Reset godoc
// DELETE /api/v1/quiz
// Starts a new assessment.
func (h *QuizHandler) Reset(c *gin.Context) {
	h.ws.Reset()
	Success(c, http.StatusOK, newQuizView(h.ws.View()))
}

// Export godoc
// GET /api/v1/quiz/export?answers=true
// Downloads the paper as PDF.
func (h *QuizHandler) Export(c *gin.Context) {
	answers, _ := strconv.ParseBool(c.DefaultQuery("answers", "false"))

	var buf bytes.Buffer
	name, err := h.ws.WriteExport(c.Request.Context(), &buf, answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Print godoc
// GET /api/v1/quiz/print?answers=true
// Returns the HTML print document.
func (h *QuizHandler) Print(c *gin.Context) {
	answers, _ := strconv.ParseBool(c.DefaultQuery("answers", "false"))

	q := h.ws.View().State.Quiz
	if q == nil {
		Fail(c, http.StatusNotFound, ErrNoQuiz)
		return
	}
	doc, err := export.Document(q, answers)
	if err != nil {
		h.fail(c, &export.ExportError{Stage: export.StageRender, Err: err})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// fail maps domain errors onto HTTP responses.
func (h *QuizHandler) fail(c *gin.Context, err error) {
	var exportErr *export.ExportError
	switch {
	case errors.Is(err, upload.ErrNoFile):
		Fail(c, http.StatusBadRequest, ErrFileRequired)
	case errors.Is(err, upload.ErrUnsupportedType):
		Fail(c, http.StatusUnsupportedMediaType, ErrUnsupportedFile)
	case errors.Is(err, upload.ErrFileTooLarge):
		Fail(c, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
	case errors.Is(err, workspace.ErrInvalidConfig):
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, quizstate.ErrGenerationInProgress):
		Fail(c, http.StatusConflict, ErrGenerationInProgress)
	case errors.Is(err, attempt.ErrNoQuiz), errors.Is(err, export.ErrNoQuiz):
		Fail(c, http.StatusNotFound, ErrNoQuiz)
	case errors.Is(err, attempt.ErrUnknownQuestion):
		Fail(c, http.StatusNotFound, ErrUnknownQuestion)
	case errors.Is(err, attempt.ErrOptionOutOfRange):
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"option_index": err.Error()})
	case errors.Is(err, attempt.ErrRevealed):
		Fail(c, http.StatusConflict, ErrResultsRevealed)
	case errors.Is(err, attempt.ErrIncomplete):
		Fail(c, http.StatusConflict, ErrQuizIncomplete)
	case errors.As(err, &exportErr):
		h.log.Error().Err(err).Msg("export failed")
		Fail(c, http.StatusInternalServerError, ErrExportFailed)
	default:
		h.log.Error().Err(err).Msg("request failed")
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}
