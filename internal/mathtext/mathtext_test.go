package mathtext

import (
	"reflect"
	"strings"
	"testing"
	"testing/quick"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []Segment
	}{
		{"", nil},
		{"no math", []Segment{{Text: "no math"}}},
		{"Solve $x^2 = 4$ now", []Segment{{Text: "Solve "}, {Math: true, Text: "x^2 = 4"}, {Text: " now"}}},
		{"$a$$b$", []Segment{{Math: true, Text: "a"}, {Math: true, Text: "b"}}},
		{"costs $5 only", []Segment{{Text: "costs $5 only"}}},
		{"empty $$ pair", []Segment{{Text: "empty $$ pair"}}},
		{"$a$ and $b", []Segment{{Math: true, Text: "a"}, {Text: " and $b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Split(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplit_CoversInput(t *testing.T) {
	stripPairs := func(s string) string {
		return mathPattern.ReplaceAllStringFunc(s, func(m string) string { return m[1 : len(m)-1] })
	}
	covers := func(s string) bool {
		var b strings.Builder
		for _, seg := range Split(s) {
			b.WriteString(seg.Text)
		}
		return b.String() == stripPairs(s)
	}
	if err := quick.Check(covers, nil); err != nil {
		t.Error(err)
	}

	for _, s := range []string{"$", "$$$", "a$b$c$d", "$\\frac{1}{2}$ of $x$"} {
		if !covers(s) {
			t.Errorf("segments of %q do not cover the input", s)
		}
	}
}

func TestRender_NeverPanics(t *testing.T) {
	f := func(s string) bool {
		_ = Plain(s)
		_ = Markup(s)
		_ = Plain("$" + s + "$")
		_ = Markup("$" + s + "$")
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestRepair_MatchesEscapedForm(t *testing.T) {
	tests := []struct {
		broken string
		proper string
	}{
		{"rac{1}{2}", `\frac{1}{2}`},
		{"frac{1}{2}", `\frac{1}{2}`},
		{"\frac{3}{4}", `\frac{3}{4}`},
		{"5 ext{cm}", `5 \text{cm}`},
		{"\text{kg}", `\text{kg}`},
		{"√{x}", `\sqrt{x}`},
		{"√x", `\sqrt{x}`},
		{"√[3]{8}", `\sqrt[3]{8}`},
		{"sqrt{2}", `\sqrt{2}`},
		{"2 \times 3", `2 \times 3`},
	}

	for _, tt := range tests {
		t.Run(tt.proper, func(t *testing.T) {
			for _, f := range []Format{FormatPlain, FormatHTML} {
				got, err := Render(tt.broken, f)
				if err != nil {
					t.Fatalf("Render(%q): %v", tt.broken, err)
				}
				want, err := Render(tt.proper, f)
				if err != nil {
					t.Fatalf("Render(%q): %v", tt.proper, err)
				}
				if got != want {
					t.Errorf("format %d: %q renders %q, want %q", f, tt.broken, got, want)
				}
			}
		})
	}
}

func TestRepair_Idempotent(t *testing.T) {
	for _, s := range []string{"rac{1}{2}", "√x + ext{m}", `\frac{\sqrt{2}}{2}`} {
		once := Repair(s)
		if twice := Repair(once); twice != once {
			t.Errorf("Repair not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Find $x^2$", "Find x²"},
		{"$\\frac{1}{2}$ of the cake", "1/2 of the cake"},
		{"$\\frac{a+b}{2}$", "(a+b)/2"},
		{"$\\sqrt{16} = 4$", "√16 = 4"},
		{"$\\sqrt[3]{8}$", "∛8"},
		{"$\\sqrt{x+1}$", "√(x+1)"},
		{"angle $90^\\circ$", "angle 90°"},
		{"$a_1 + a_{10}$", "a₁ + a₁₀"},
		{"$5\\text{cm}^2$", "5cm²"},
		{"$x^{ab}$", "x^(ab)"},
		{"$2 \\times 3 \\leq 7$", "2 × 3 ≤ 7"},
		{"$\\left( \\frac{1}{2} \\right)$", "( 1/2 )"},
		{"raw $\\unknown{x}$ stays", "raw \\unknown{x} stays"},
		{"unbalanced ${x$ stays", "unbalanced {x stays"},
		{"price $5", "price $5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Plain(tt.in); got != tt.want {
				t.Errorf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a < b", "a &lt; b"},
		{"$x<y$", `<span class="math">x&lt;y</span>`},
		{"$\\frac{1}{2}$", `<span class="math"><span class="frac"><span class="num">1</span><span class="den">2</span></span></span>`},
		{"$x^2$", `<span class="math">x<sup>2</sup></span>`},
		{"$\\mathbf{v}$", `<span class="math"><b>v</b></span>`},
		{"$\\bogus$", `<span class="math-raw">\bogus</span>`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Markup(tt.in); got != tt.want {
				t.Errorf("Markup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
