package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/abhisek/examgen/internal/quiz"
)

// Page geometry in millimetres.
const (
	marginMM         = 10.0
	imageMaxHeightMM = 66.0
	lineHeightMM     = 6.0
)

// Renderer writes a quiz in one output format.
type Renderer interface {
	Render(w io.Writer, q *quiz.Quiz, includeAnswers bool) error

	// Ext is the file extension including the dot, e.g. ".pdf".
	Ext() string
}

// PDFRenderer lays a quiz out on A4 pages with fpdf.
type PDFRenderer struct {
	// FontPath is an optional UTF-8 TrueType font. Without it the core
	// Helvetica font is used and text is limited to Windows-1252; scripts
	// such as Sinhala need a font here.
	FontPath string
}

func (r *PDFRenderer) Ext() string { return ".pdf" }

// latinFallbacks spells out math glyphs the core font cannot encode.
var latinFallbacks = strings.NewReplacer(
	"√", "sqrt", "∛", "cbrt", "∜", "4rt",
	"≠", "!=", "≤", "<=", "≥", ">=", "≈", "~",
	"π", "pi", "θ", "theta", "α", "alpha", "β", "beta", "γ", "gamma",
	"Δ", "Delta", "∆", "Delta", "λ", "lambda", "ν", "nu", "ω", "omega",
	"→", "->", "←", "<-", "∞", "inf", "⋅", "·", "−", "-",
	"⁰", "^0", "⁴", "^4", "⁵", "^5", "⁶", "^6", "⁷", "^7", "⁸", "^8", "⁹", "^9",
	"ⁿ", "^n", "⁺", "^+", "⁻", "^-",
	"₀", "_0", "₁", "_1", "₂", "_2", "₃", "_3", "₄", "_4", "ₙ", "_n",
)

func (r *PDFRenderer) Render(w io.Writer, q *quiz.Quiz, includeAnswers bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle(q.Metadata.Title, true)
	pdf.SetCreator("examgen", false)

	family := "Helvetica"
	text := func(s string) string { return s }
	if r.FontPath != "" {
		family = "body"
		pdf.AddUTF8Font(family, "", r.FontPath)
		pdf.AddUTF8Font(family, "B", r.FontPath)
		if pdf.Err() {
			return fmt.Errorf("load font %s: %w", r.FontPath, pdf.Error())
		}
	} else {
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		text = func(s string) string { return tr(latinFallbacks.Replace(s)) }
	}

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*marginMM

	images := 0
	for _, b := range Layout(q, includeAnswers) {
		switch b.Kind {
		case BlockBanner:
			pdf.SetFont(family, "", 9)
			pdf.MultiCell(contentW, 5, text(b.Text), "", "C", false)
		case BlockTitle:
			pdf.SetFont(family, "B", 16)
			pdf.MultiCell(contentW, 9, text(b.Text), "", "C", false)
		case BlockMeta:
			pdf.SetFont(family, "", 10)
			pdf.MultiCell(contentW, 5, text(b.Text), "", "C", false)
			y := pdf.GetY() + 2
			pdf.Line(marginMM, y, pageW-marginMM, y)
			pdf.Ln(6)
		case BlockQuestion:
			pdf.Ln(3)
			pdf.SetFont(family, "B", 11)
			pdf.MultiCell(contentW, lineHeightMM, text(b.Text), "", "L", false)
		case BlockImage:
			images++
			placeImage(pdf, "diagram"+strconv.Itoa(images), b.Image, contentW, pageH)
		case BlockOption:
			pdf.SetFont(family, "", 11)
			pdf.SetX(marginMM + 6)
			pdf.MultiCell(contentW-6, lineHeightMM, text(b.Text), "", "L", false)
		case BlockAnswer:
			pdf.SetFont(family, "B", 10)
			pdf.MultiCell(contentW, lineHeightMM, text(b.Text), "", "L", false)
		case BlockExplanation:
			pdf.SetFont(family, "", 10)
			pdf.MultiCell(contentW, 5, text(b.Text), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// placeImage draws img scaled to fit the content width and the maximum
// diagram height. Images the decoder cannot read are skipped so that one
// bad diagram never fails the whole paper.
func placeImage(pdf *fpdf.Fpdf, name string, img *quiz.Image, contentW, pageH float64) {
	imgType := fpdfImageType(img.MIMEType)
	if imgType == "" {
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return
	}

	h := imageMaxHeightMM
	w := h * float64(cfg.Width) / float64(cfg.Height)
	if w > contentW {
		w = contentW
		h = w * float64(cfg.Height) / float64(cfg.Width)
	}
	if pdf.GetY()+h > pageH-marginMM {
		pdf.AddPage()
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	pdf.ImageOptions(name, marginMM, pdf.GetY()+2, w, h, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + h + 4)
}

func fpdfImageType(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}

// HTMLRenderer writes the print document as HTML.
type HTMLRenderer struct{}

func (HTMLRenderer) Ext() string { return ".html" }

func (HTMLRenderer) Render(w io.Writer, q *quiz.Quiz, includeAnswers bool) error {
	doc, err := Document(q, includeAnswers)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}
