package report

import (
	"regexp"
	"strings"
)

// Transform is a single text cleaning step.
type Transform func(string) string

var (
	boldPattern      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern    = regexp.MustCompile(`\*(.*?)\*`)
	headingPattern   = regexp.MustCompile(`(?m)^#+\s*`)
	backtickPattern  = regexp.MustCompile("`+")
	linkLabelPattern = regexp.MustCompile(`\[[^\]]*\]:`)
	latexArgPattern  = regexp.MustCompile(`\\[a-zA-Z]+\{([^}]*)\}`)
	latexBarePattern = regexp.MustCompile(`\\[a-zA-Z]+\*?`)
)

// StripBold unwraps **bold** spans.
func StripBold(s string) string { return boldPattern.ReplaceAllString(s, "$1") }

// StripItalic unwraps *italic* spans.
func StripItalic(s string) string { return italicPattern.ReplaceAllString(s, "$1") }

// StripHeadings drops leading # markers on every line.
func StripHeadings(s string) string { return headingPattern.ReplaceAllString(s, "") }

// StripBackticks removes inline and fenced code markers.
func StripBackticks(s string) string { return backtickPattern.ReplaceAllString(s, "") }

// StripLinkLabels removes reference labels such as "[COACH FEEDBACK]:".
func StripLinkLabels(s string) string { return linkLabelPattern.ReplaceAllString(s, "") }

// StripLatex keeps the argument of \cmd{arg} and drops bare \cmd and \cmd* commands.
func StripLatex(s string) string {
	s = latexArgPattern.ReplaceAllString(s, "$1")
	return latexBarePattern.ReplaceAllString(s, "")
}

// Pipeline is the fixed order the transforms run in.
var Pipeline = []Transform{
	StripBold,
	StripItalic,
	StripHeadings,
	StripBackticks,
	StripLinkLabels,
	StripLatex,
	strings.TrimSpace,
}

func applyPipeline(s string) string {
	for _, t := range Pipeline {
		s = t(s)
	}
	return s
}

// Sanitize strips lightweight markup from generated text. The pipeline is
// repeated until the text stops changing, so Sanitize(Sanitize(x)) == Sanitize(x).
// Every step only removes characters, which bounds the loop.
func Sanitize(s string) string {
	for {
		next := applyPipeline(s)
		if next == s {
			return next
		}
		s = next
	}
}
