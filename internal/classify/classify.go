// Package classify turns raw input — message text, call metadata — into a
// risk verdict with a human-readable explanation.
//
// The message path asks the generative model first and falls back to a local
// keyword heuristic when the model is unreachable, so a verdict is always
// produced with zero network dependency. The call path is offline-only.
package classify

import (
	"errors"
	"regexp"
	"strings"
)

// Errors
var (
	ErrEmptyMessage = errors.New("classify: message text is empty")
)

// Verdict is the three-way risk classification.
type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictScam       Verdict = "scam"
)

// MessageVerdict is the result of classifying a message.
type MessageVerdict struct {
	Verdict     Verdict `json:"verdict"`
	Explanation string  `json:"explanation"`
	// Source is "model" when the generative call produced the verdict,
	// "fallback" when the offline heuristic did.
	Source string `json:"source"`
}

// CallAssessment is the result of scoring call metadata.
type CallAssessment struct {
	RiskScore   int    `json:"riskScore"` // 0-100, higher = more dangerous
	Explanation string `json:"explanation"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips HTML-like tags so classified text can be echoed back to
// the UI without rendering injection.
func Sanitize(text string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(text, ""))
}
