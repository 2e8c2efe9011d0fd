package extract_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/extract"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
)

func TestExtractPlainText(t *testing.T) {
	text, err := extract.Extract("text/plain; charset=utf-8", []byte("Senior Go engineer"))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer", text)
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.DOCXRenderer{}.Render(&buf, report.Document{
		Title: "Resume",
		Body:  "Jane Doe\nPlatform & infrastructure",
	}))

	text, err := extract.Extract(extract.MIMEDOCX, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Resume\nJane Doe\nPlatform & infrastructure", text)
}

func TestExtractPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.PDFRenderer{}.Render(&buf, report.Document{Body: "Jane Doe"}))

	_, err := extract.Extract(extract.MIMEPDF, buf.Bytes())
	assert.NoError(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := extract.Extract("image/png", []byte{0x89, 'P', 'N', 'G'})
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrUnsupportedType))
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := extract.Extract(extract.MIMEPDF, []byte("not a pdf"))
	assert.Error(t, err)
}

func TestExtractFileDetectsType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	text, err := extract.ExtractFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, extract.MIMEPDF, extract.DetectType("cv.PDF", nil))
	assert.Equal(t, extract.MIMEDOCX, extract.DetectType("cv.docx", nil))
	assert.Equal(t, extract.MIMEPlain, extract.DetectType("notes", []byte("plain words")))
}
