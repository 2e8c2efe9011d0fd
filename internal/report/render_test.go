package report_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/report"
)

func sampleDocument(lines int) report.Document {
	var body strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&body, "Observation %d: asked a focused follow-up question.\n\n", i+1)
	}
	return report.Document{
		SessionID:   "s-1",
		Body:        body.String(),
		GeneratedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.PDFRenderer{}.Render(&buf, sampleDocument(3)))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}

func TestPDFRendererPaginates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.PDFRenderer{}.Render(&buf, sampleDocument(120)))

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Greater(t, r.NumPage(), 1)
}

func TestDOCXRenderer(t *testing.T) {
	doc := report.Document{SessionID: "s-1", Body: "Strengths & gaps\n\n\nUse <STAR> prompts"}

	var buf bytes.Buffer
	require.NoError(t, report.DOCXRenderer{}.Render(&buf, doc))

	out, err := docx.ReadDocxFromMemory(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	defer out.Close()

	content := out.Editable().GetContent()
	assert.Contains(t, content, report.DefaultTitle)
	assert.Contains(t, content, "Strengths &amp; gaps")
	assert.Contains(t, content, "Use &lt;STAR&gt; prompts")
	assert.NotContains(t, content, "REPORT_BODY")
	assert.Equal(t, 3, strings.Count(content, "<w:p>"), "title plus two non-empty lines")
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("", report.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, report.FormatPDF, f)

	f, err = report.ParseFormat(" DOCX ", report.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, report.FormatDOCX, f)

	_, err = report.ParseFormat("html", report.FormatPDF)
	assert.Error(t, err)
}
