package export

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/abhisek/examgen/internal/mathtext"
	"github.com/abhisek/examgen/internal/quiz"
)

// ImageMaxHeightPx bounds diagram height in the print document.
const ImageMaxHeightPx = 250

var documentTmpl = template.Must(template.New("paper").Funcs(template.FuncMap{
	"math":  func(s string) template.HTML { return template.HTML(mathtext.Markup(s)) },
	"label": quiz.OptionLabel,
	"inc":   func(i int) int { return i + 1 },
	"src":   func(img *quiz.Image) template.URL { return template.URL(img.DataURL()) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Quiz.Metadata.Title}}</title>
<style>
@page { size: A4 portrait; margin: 10mm; }
body { font-family: serif; color: #000; background: #fff; }
.question { break-inside: avoid; margin-bottom: 1.5em; }
.question img { max-height: {{.MaxHeight}}px; display: block; margin: 0.5em 0; }
.frac { display: inline-flex; flex-direction: column; vertical-align: middle; text-align: center; }
.frac .num { border-bottom: 1px solid; }
.math-raw { font-family: monospace; }
</style>
</head>
<body>
<header>
<p class="banner">` + Banner + `</p>
<h1>{{math .Quiz.Metadata.Title}}</h1>
<p class="meta">{{with .Quiz.Metadata}}Subject: {{.Subject}} | Level: {{.AcademicLevel}} | Language: {{.Language}}{{end}}</p>
</header>
{{range $i, $q := .Quiz.Questions}}<section class="question">
<p class="stem"><strong>Q{{inc $i}}.</strong> {{math $q.Stem}}</p>
{{with $q.Image}}<img src="{{src .}}" alt="Diagram for question {{inc $i}}">
{{end}}<ol class="options" type="A">
{{range $j, $opt := $q.Options}}<li>{{label $j}}) {{math $opt}}</li>
{{end}}</ol>
{{if $.Answers}}{{with $q.CorrectLetter}}<p class="answer">Correct Answer: {{.}}</p>
{{end}}{{if $q.Explanation}}<p class="explanation">Explanation: {{math $q.Explanation}}</p>
{{end}}{{end}}</section>
{{end}}</body>
</html>
`))

// Document serializes q as a self-contained HTML print document. Math is
// rendered with the same repair rules as the interactive view.
func Document(q *quiz.Quiz, includeAnswers bool) (string, error) {
	var buf bytes.Buffer
	err := documentTmpl.Execute(&buf, struct {
		Quiz      *quiz.Quiz
		Answers   bool
		MaxHeight string
	}{q, includeAnswers, strconv.Itoa(ImageMaxHeightPx)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
