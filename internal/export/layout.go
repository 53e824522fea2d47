// Package export turns a quiz into a printable paper, with or without the
// answer key.
package export

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/examgen/internal/mathtext"
	"github.com/abhisek/examgen/internal/quiz"
)

// Banner heads every printed paper.
const Banner = "Evaluation Paper - AI Enhanced Assessment"

// BlockKind identifies one element of the print layout.
type BlockKind int

const (
	BlockBanner BlockKind = iota
	BlockTitle
	BlockMeta
	BlockQuestion
	BlockImage
	BlockOption
	BlockAnswer
	BlockExplanation
)

// Block is one laid-out element. Text is already math-normalized for
// plain output.
type Block struct {
	Kind  BlockKind
	Text  string
	Image *quiz.Image
}

// Layout flattens q into print order. Answer and explanation blocks are
// emitted only when includeAnswers is set.
func Layout(q *quiz.Quiz, includeAnswers bool) []Block {
	blocks := []Block{
		{Kind: BlockBanner, Text: Banner},
		{Kind: BlockTitle, Text: mathtext.Plain(q.Metadata.Title)},
		{Kind: BlockMeta, Text: metaLine(q.Metadata)},
	}

	for i, question := range q.Questions {
		blocks = append(blocks, Block{
			Kind: BlockQuestion,
			Text: "Q" + strconv.Itoa(i+1) + ". " + mathtext.Plain(question.Stem),
		})
		if question.Image != nil && len(question.Image.Data) > 0 {
			blocks = append(blocks, Block{Kind: BlockImage, Image: question.Image})
		}
		for j, opt := range question.Options {
			blocks = append(blocks, Block{
				Kind: BlockOption,
				Text: quiz.OptionLabel(j) + ") " + mathtext.Plain(opt),
			})
		}
		if !includeAnswers {
			continue
		}
		if letter := question.CorrectLetter(); letter != "" {
			blocks = append(blocks, Block{Kind: BlockAnswer, Text: "Correct Answer: " + letter})
		}
		if question.Explanation != "" {
			blocks = append(blocks, Block{
				Kind: BlockExplanation,
				Text: "Explanation: " + mathtext.Plain(question.Explanation),
			})
		}
	}
	return blocks
}

func metaLine(m quiz.Metadata) string {
	var parts []string
	for _, p := range [][2]string{
		{"Subject", m.Subject},
		{"Level", m.AcademicLevel},
		{"Language", m.Language},
	} {
		if p[1] != "" {
			parts = append(parts, p[0]+": "+p[1])
		}
	}
	return strings.Join(parts, " | ")
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	pathChars  = strings.NewReplacer("/", "-", `\`, "-")
)

// Filename derives the download name from the quiz title: whitespace runs
// become underscores and the mode is appended as _Answers or _Paper.
func Filename(title string, includeAnswers bool) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = "Exam"
	}
	base = pathChars.Replace(whitespace.ReplaceAllString(base, "_"))

	if includeAnswers {
		return base + "_Answers.pdf"
	}
	return base + "_Paper.pdf"
}
