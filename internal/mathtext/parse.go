package mathtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	errUnbalanced = errors.New("unbalanced braces")
	errMissingArg = errors.New("missing argument")
)

type nodeKind int

const (
	nodeText nodeKind = iota
	nodeGroup
	nodeFrac
	nodeSqrt
	nodeScript
	nodeStyled
	nodeSpace
)

// node is one element of a parsed expression.
type node struct {
	kind     nodeKind
	text     string // nodeText, nodeStyled (style name), nodeSpace
	children []*node
	// nodeFrac: a=numerator b=denominator. nodeSqrt: a=radicand b=index.
	// nodeScript: a=base, sup, sub.
	a, b, sup, sub *node
}

type parser struct {
	src string
	pos int
}

// parse turns a repaired expression into a node tree.
func parse(expr string) (*node, error) {
	p := &parser{src: expr}
	list, err := p.list(false)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, errUnbalanced
	}
	return &node{kind: nodeGroup, children: list}, nil
}

func (p *parser) list(inGroup bool) ([]*node, error) {
	var out []*node
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '}':
			if !inGroup {
				return nil, errUnbalanced
			}
			return out, nil
		case '^', '_':
			p.pos++
			arg, err := p.argument()
			if err != nil {
				return nil, err
			}
			out = attachScript(out, c, arg)
			continue
		}

		n, err := p.atom()
		if err != nil {
			return nil, err
		}
		if n != nil {
			out = append(out, n)
		}
	}
	if inGroup {
		return nil, errUnbalanced
	}
	return out, nil
}

func attachScript(out []*node, c byte, arg *node) []*node {
	var base *node
	if len(out) > 0 && out[len(out)-1].kind != nodeSpace {
		base = out[len(out)-1]
		out = out[:len(out)-1]
	}
	if base == nil || base.kind != nodeScript {
		base = &node{kind: nodeScript, a: base}
	}
	if c == '^' {
		base.sup = arg
	} else {
		base.sub = arg
	}
	return append(out, base)
}

// atom parses one token. Whitespace collapses into a single space node.
func (p *parser) atom() (*node, error) {
	c := p.src[p.pos]
	switch {
	case c == '{':
		p.pos++
		children, err := p.list(true)
		if err != nil {
			return nil, err
		}
		p.pos++ // closing brace
		return &node{kind: nodeGroup, children: children}, nil
	case c == '\\':
		return p.command()
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		for p.pos < len(p.src) && strings.IndexByte(" \t\n\r", p.src[p.pos]) >= 0 {
			p.pos++
		}
		return &node{kind: nodeSpace, text: " "}, nil
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return &node{kind: nodeText, text: string(r)}, nil
}

// argument parses the operand of a command or script: a group or a single
// token, skipping leading whitespace.
func (p *parser) argument() (*node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] == '}' {
		return nil, errMissingArg
	}
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errMissingArg
	}
	return n, nil
}

// optional parses a bracketed [..] argument if present.
func (p *parser) optional() (*node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '[' {
		return nil, nil
	}
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return nil, errUnbalanced
	}
	inner, err := parse(p.src[p.pos+1 : p.pos+end])
	if err != nil {
		return nil, err
	}
	p.pos += end + 1
	return inner, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\n\r", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) commandName() string {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isLetter(p.src[end]) {
		end++
	}
	if end == start && end < len(p.src) {
		// Control symbol such as \, or \{.
		_, size := utf8.DecodeRuneInString(p.src[end:])
		end += size
	}
	p.pos = end
	return p.src[start:end]
}

func (p *parser) command() (*node, error) {
	name := p.commandName()
	switch name {
	case "":
		return nil, fmt.Errorf("dangling backslash")
	case "frac", "dfrac", "tfrac":
		num, err := p.argument()
		if err != nil {
			return nil, err
		}
		den, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeFrac, a: num, b: den}, nil
	case "sqrt":
		index, err := p.optional()
		if err != nil {
			return nil, err
		}
		body, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeSqrt, a: body, b: index}, nil
	case "text", "mathrm", "textrm", "mathbf", "textbf", "mathit", "textit", "operatorname":
		arg, err := p.argument()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeStyled, text: name, children: []*node{arg}}, nil
	case "left", "right":
		// Sizing is dropped; the delimiter itself is kept, "." means none.
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
		}
		return nil, nil
	case ",", ";", ":", "quad", "qquad", " ":
		return &node{kind: nodeSpace, text: " "}, nil
	case "!":
		return nil, nil
	}

	if sym, ok := symbols[name]; ok {
		return &node{kind: nodeText, text: sym}, nil
	}
	if _, ok := operators[name]; ok {
		return &node{kind: nodeText, text: name}, nil
	}
	return nil, fmt.Errorf("unknown command \\%s", name)
}

func isLetter(c byte) bool {
	return c < utf8.RuneSelf && unicode.IsLetter(rune(c))
}

// operators render as their own name.
var operators = map[string]struct{}{
	"sin": {}, "cos": {}, "tan": {}, "cot": {}, "sec": {}, "csc": {},
	"log": {}, "ln": {}, "lg": {}, "exp": {}, "lim": {}, "max": {}, "min": {},
	"det": {}, "gcd": {}, "mod": {},
}

var symbols = map[string]string{
	"times": "×", "div": "÷", "pm": "±", "mp": "∓", "cdot": "·", "ast": "∗",
	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "ne": "≠", "neq": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "propto": "∝",
	"infty": "∞", "degree": "°", "circ": "∘", "prime": "′", "partial": "∂",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "leftrightarrow": "↔", "Leftrightarrow": "⇔",
	"angle": "∠", "triangle": "△", "perp": "⊥", "parallel": "∥", "cong": "≅",
	"therefore": "∴", "because": "∵",
	"in": "∈", "notin": "∉", "subset": "⊂", "subseteq": "⊆", "cup": "∪", "cap": "∩",
	"emptyset": "∅", "forall": "∀", "exists": "∃",
	"sum": "∑", "prod": "∏", "int": "∫", "nabla": "∇",
	"ldots": "…", "dots": "…", "cdots": "⋯",
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "lambda": "λ",
	"mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ", "sigma": "σ",
	"tau": "τ", "phi": "φ", "varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Pi": "Π",
	"Sigma": "Σ", "Phi": "Φ", "Omega": "Ω",
	"%": "%", "{": "{", "}": "}", "$": "$", "&": "&", "#": "#", "_": "_",
	"\\": " ", "|": "‖",
}
