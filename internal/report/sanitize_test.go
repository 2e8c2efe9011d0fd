package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/talent-coach/backend/internal/report"
)

func TestTransforms(t *testing.T) {
	cases := []struct {
		name string
		fn   report.Transform
		in   string
		want string
	}{
		{"bold", report.StripBold, "a **strong** b **x**", "a strong b x"},
		{"italic", report.StripItalic, "an *emphasised* word", "an emphasised word"},
		{"headings", report.StripHeadings, "# Title\n## Sub\nbody #not", "Title\nSub\nbody #not"},
		{"backticks", report.StripBackticks, "run `go test` or ```sh```", "run go test or sh"},
		{"link labels", report.StripLinkLabels, "[COACH FEEDBACK]: solid", " solid"},
		{"latex with argument", report.StripLatex, `\textbf{Strong} finish`, "Strong finish"},
		{"latex bare", report.StripLatex, `line \newline next \section* end`, "line  next  end"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.fn(tc.in))
		})
	}
}

func TestSanitizeExample(t *testing.T) {
	in := "**Hi** \\section{Intro} plain"

	once := report.Sanitize(in)
	assert.Equal(t, "Hi Intro plain", once)
	assert.Equal(t, once, report.Sanitize(once))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"  # Heading with leading space",
		"***nested*** markers",
		"**unterminated bold",
		"*a* **b** `c` # d",
		"## Summary\n\n**[CANDIDATE RESPONSE]:** I led the migration.\n\n*Next:* ask about \\emph{impact}",
		"\\cmd*x* and \\textit{y} with [ref]: `code`",
		"` # `heading after backticks",
		"[\\a]: *\\b{c}*",
	}

	for _, in := range inputs {
		once := report.Sanitize(in)
		assert.Equal(t, once, report.Sanitize(once), "input %q", in)
	}
}

func TestSanitizeReport(t *testing.T) {
	in := "# Coaching Report\n\n## Strengths\n- **Clear** questions\n- Used `STAR` follow-ups\n\n[COACH FEEDBACK]: keep going"
	want := "Coaching Report\n\nStrengths\n- Clear questions\n- Used STAR follow-ups\n\n keep going"
	assert.Equal(t, want, report.Sanitize(in))
}
