package mathtext

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format selects the output of a rendered expression.
type Format int

const (
	// FormatPlain renders Unicode text for the terminal and the PDF writer.
	FormatPlain Format = iota
	// FormatHTML renders inline markup for the print document.
	FormatHTML
)

// Render repairs and renders a single expression (without delimiters).
func Render(expr string, f Format) (string, error) {
	tree, err := parse(Repair(expr))
	if err != nil {
		return "", err
	}
	if f == FormatHTML {
		return renderHTML(tree), nil
	}
	return renderPlain(tree), nil
}

// Plain renders s for plain-text surfaces. Math that fails to render falls
// back to its raw expression.
func Plain(s string) string {
	var b strings.Builder
	for _, seg := range Split(s) {
		b.WriteString(renderSegment(seg, FormatPlain))
	}
	return b.String()
}

// Markup renders s as HTML with every math segment wrapped in a
// span.math element. Plain text is escaped.
func Markup(s string) string {
	var b strings.Builder
	for _, seg := range Split(s) {
		b.WriteString(renderSegment(seg, FormatHTML))
	}
	return b.String()
}

func renderSegment(seg Segment, f Format) string {
	if !seg.Math {
		if f == FormatHTML {
			return html.EscapeString(seg.Text)
		}
		return seg.Text
	}

	out, err := Render(seg.Text, f)
	if f == FormatPlain {
		if err != nil {
			return seg.Text
		}
		return out
	}
	if err != nil {
		return `<span class="math-raw">` + html.EscapeString(seg.Text) + `</span>`
	}
	return `<span class="math">` + out + `</span>`
}

// ─── Plain ───

func renderPlain(n *node) string {
	if n == nil {
		return ""
	}
	switch n.kind {
	case nodeText, nodeSpace:
		return n.text
	case nodeGroup:
		var b strings.Builder
		for _, c := range n.children {
			b.WriteString(renderPlain(c))
		}
		return b.String()
	case nodeFrac:
		return wrapComplex(renderPlain(n.a)) + "/" + wrapComplex(renderPlain(n.b))
	case nodeSqrt:
		return rootSign(renderPlain(n.b)) + wrapComplex(renderPlain(n.a))
	case nodeScript:
		out := renderPlain(n.a)
		if n.sub != nil {
			out += script(renderPlain(n.sub), subscripts, "_")
		}
		if n.sup != nil {
			out += script(renderPlain(n.sup), superscripts, "^")
		}
		return out
	case nodeStyled:
		return renderPlain(n.children[0])
	}
	return ""
}

func rootSign(index string) string {
	switch index {
	case "":
		return "√"
	case "3":
		return "∛"
	case "4":
		return "∜"
	}
	if s, ok := mapRunes(index, superscripts); ok {
		return s + "√"
	}
	return "(" + index + ")√"
}

// wrapComplex parenthesises operands longer than one alphanumeric run.
func wrapComplex(s string) string {
	if utf8.RuneCountInString(s) <= 1 {
		return s
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' {
			return "(" + s + ")"
		}
	}
	return s
}

func script(s string, table map[rune]rune, marker string) string {
	if s == "∘" && marker == "^" {
		return "°"
	}
	if mapped, ok := mapRunes(s, table); ok {
		return mapped
	}
	if utf8.RuneCountInString(s) == 1 {
		return marker + s
	}
	return marker + "(" + s + ")"
}

func mapRunes(s string, table map[rune]rune) (string, bool) {
	if s == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			return "", false
		}
		b.WriteRune(m)
	}
	return b.String(), true
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽',
	')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍',
	')': '₎', 'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'n': 'ₙ', 'i': 'ᵢ',
}

// ─── HTML ───

func renderHTML(n *node) string {
	if n == nil {
		return ""
	}
	switch n.kind {
	case nodeText, nodeSpace:
		return html.EscapeString(n.text)
	case nodeGroup:
		var b strings.Builder
		for _, c := range n.children {
			b.WriteString(renderHTML(c))
		}
		return b.String()
	case nodeFrac:
		return `<span class="frac"><span class="num">` + renderHTML(n.a) +
			`</span><span class="den">` + renderHTML(n.b) + `</span></span>`
	case nodeSqrt:
		var index string
		if n.b != nil {
			index = `<sup class="root-index">` + renderHTML(n.b) + `</sup>`
		}
		return index + `<span class="sqrt">√<span class="radicand">` + renderHTML(n.a) + `</span></span>`
	case nodeScript:
		out := renderHTML(n.a)
		if n.sub != nil {
			out += "<sub>" + renderHTML(n.sub) + "</sub>"
		}
		if n.sup != nil {
			sup := renderHTML(n.sup)
			if sup == "∘" {
				sup = "°"
			}
			out += "<sup>" + sup + "</sup>"
		}
		return out
	case nodeStyled:
		inner := renderHTML(n.children[0])
		switch n.text {
		case "mathbf", "textbf":
			return "<b>" + inner + "</b>"
		case "mathit", "textit":
			return "<i>" + inner + "</i>"
		}
		return `<span class="text">` + inner + `</span>`
	}
	return ""
}
