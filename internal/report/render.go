package report

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pkg/errors"
)

// DefaultTitle heads every rendered report.
const DefaultTitle = "Interview Training Report"

// Format identifies a document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat maps a user supplied format name to a Format. Blank selects def.
func ParseFormat(raw string, def Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return def, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	default:
		return "", errors.Errorf("unsupported report format %q", raw)
	}
}

// Document is the sanitized report content to lay out.
type Document struct {
	SessionID   string
	Title       string
	Body        string
	GeneratedAt time.Time
}

func (d Document) title() string {
	if strings.TrimSpace(d.Title) == "" {
		return DefaultTitle
	}
	return d.Title
}

// paragraphs returns the non-empty body lines in order.
func (d Document) paragraphs() []string {
	lines := strings.Split(d.Body, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Renderer lays a Document out in one format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	Extension() string
	ContentType() string
}

// PDFRenderer writes A4 PDF documents.
type PDFRenderer struct{}

func (PDFRenderer) Extension() string   { return "pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Render writes a centered 16pt title followed by one 12pt paragraph per
// non-empty line. Pages break automatically.
func (PDFRenderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(doc.title(), true)
	pdf.SetCreator("talent-coach", true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.title()), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range doc.paragraphs() {
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
		pdf.Ln(2)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "write pdf")
	}
	return nil
}

//go:embed templates/report.docx
var docxTemplate []byte

const docxPlaceholder = "<w:p><w:r><w:t>REPORT_BODY</w:t></w:r></w:p>"

// DOCXRenderer writes Word documents from an embedded template.
type DOCXRenderer struct{}

func (DOCXRenderer) Extension() string { return "docx" }
func (DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Render fills the template body with a centered title and one paragraph per
// non-empty line.
func (DOCXRenderer) Render(w io.Writer, doc Document) error {
	tpl, err := docx.ReadDocxFromMemory(bytes.NewReader(docxTemplate), int64(len(docxTemplate)))
	if err != nil {
		return errors.Wrap(err, "open docx template")
	}
	defer tpl.Close()

	var body strings.Builder
	body.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr>`)
	writeDocxText(&body, doc.title())
	body.WriteString(`</w:r></w:p>`)
	for _, line := range doc.paragraphs() {
		body.WriteString(`<w:p><w:r><w:rPr><w:sz w:val="24"/></w:rPr>`)
		writeDocxText(&body, line)
		body.WriteString(`</w:r></w:p>`)
	}

	editable := tpl.Editable()
	editable.ReplaceRaw(docxPlaceholder, body.String(), 1)
	if err := editable.Write(w); err != nil {
		return errors.Wrap(err, "write docx")
	}
	return nil
}

func writeDocxText(b *strings.Builder, text string) {
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t>`)
}

// RendererFor returns the renderer for format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatPDF, "":
		return PDFRenderer{}, nil
	case FormatDOCX:
		return DOCXRenderer{}, nil
	default:
		return nil, errors.Errorf("unsupported report format %q", format)
	}
}
