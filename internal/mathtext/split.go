// Package mathtext recovers inline $...$ math emitted by the generation
// service and renders it for the terminal, the PDF writer and the HTML print
// document. Every surface goes through the same Split and Repair steps so
// on-screen and printed notation never diverge.
package mathtext

import (
	"regexp"
	"strings"
)

// Segment is one run of a split string. For math segments Text is the
// expression between the delimiters, before repair.
type Segment struct {
	Math bool
	Text string
}

// mathPattern matches a single non-empty $...$ pair. Empty pairs and a
// trailing unmatched $ never match and stay literal.
var mathPattern = regexp.MustCompile(`\$[^$]+\$`)

// Split breaks s into alternating text and math segments in original order.
// Joining the Text of all segments yields s with matched delimiters removed.
func Split(s string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range mathPattern.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Text: s[last:loc[0]]})
		}
		segs = append(segs, Segment{Math: true, Text: s[loc[0]+1 : loc[1]-1]})
		last = loc[1]
	}
	if last < len(s) {
		segs = append(segs, Segment{Text: s[last:]})
	}
	return segs
}

// HasMath reports whether s contains at least one math segment.
func HasMath(s string) bool {
	return mathPattern.MatchString(s)
}

// controlEscapes undo JSON decoding of backslash commands whose first
// letter doubles as a JSON escape (\frac arrives as form feed + "rac").
var controlEscapes = strings.NewReplacer(
	"\frac", `\frac`,
	"\text", `\text`,
	"\times", `\times`,
	"\theta", `\theta`,
	"\tan", `\tan`,
	"\beta", `\beta`,
	"\rightarrow", `\rightarrow`,
	"\neq", `\neq`,
	"\nu", `\nu`,
)

var (
	bareFrac = regexp.MustCompile(`(^|[^a-zA-Z\\])f?rac\{`)
	bareText = regexp.MustCompile(`(^|[^a-zA-Z\\])t?ext\{`)
	bareSqrt = regexp.MustCompile(`(^|[^a-zA-Z\\])sqrt([{\[])`)
	rootGlyph = regexp.MustCompile(`√\s*([{\[])?`)
)

// Repair restores command sequences the generation service is known to
// truncate or mis-escape. It is deterministic and idempotent.
func Repair(expr string) string {
	expr = controlEscapes.Replace(expr)
	expr = bareFrac.ReplaceAllString(expr, `${1}\frac{`)
	expr = bareText.ReplaceAllString(expr, `${1}\text{`)
	expr = bareSqrt.ReplaceAllString(expr, `${1}\sqrt${2}`)
	expr = rootGlyph.ReplaceAllStringFunc(expr, func(m string) string {
		if strings.HasSuffix(m, "{") || strings.HasSuffix(m, "[") {
			return `\sqrt` + m[len(m)-1:]
		}
		return `\sqrt `
	})
	return expr
}
