package voiceprint

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tmnguyen/scamshield/internal/llm"
	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/metrics"
)

var ErrEmptySample = errors.New("voiceprint: empty audio sample")

const scanPrompt = `You are an audio forensics analyst. Listen to the attached
voice sample and decide whether it is a genuine human recording or
synthetically generated (voice cloning, text-to-speech, deepfake).

Respond with exactly one line in this format:
VERDICT | CONFIDENCE | short explanation

where VERDICT is one of AUTHENTIC, SYNTHETIC, UNSURE and CONFIDENCE is an
integer 0-100.`

// fallbackResult is returned whenever the model cannot produce a verdict.
// Scans never fail toward the caller.
func fallbackResult() ScanResult {
	return ScanResult{
		Verdict:     VerdictUnsure,
		Confidence:  0,
		Explanation: "Analysis unavailable right now. Please try again.",
		Source:      "fallback",
	}
}

// Scanner runs deepfake scans against the generative model.
type Scanner struct {
	model   llm.Client
	timeout time.Duration
}

// NewScanner creates a scanner. model may be nil, in which case every scan
// returns the inconclusive fallback.
func NewScanner(model llm.Client, timeout time.Duration) *Scanner {
	return &Scanner{model: model, timeout: timeout}
}

// Scan analyzes an audio clip for synthetic voice markers. Model failures
// degrade to the canned inconclusive result.
func (s *Scanner) Scan(ctx context.Context, audio []byte, mime string) (ScanResult, error) {
	if len(audio) == 0 {
		return ScanResult{}, ErrEmptySample
	}

	if s.model == nil {
		res := fallbackResult()
		metrics.DeepfakeScansTotal.WithLabelValues(string(res.Verdict)).Inc()
		return res, nil
	}

	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.model.Generate(mctx, llm.Request{
		Prompt:   scanPrompt,
		Media:    audio,
		MimeType: mime,
	})
	if err != nil {
		logging.L(ctx).Warn("deepfake scan model call failed, using fallback",
			"source", s.model.SourceName(), "error", err)
		res := fallbackResult()
		metrics.DeepfakeScansTotal.WithLabelValues(string(res.Verdict)).Inc()
		return res, nil
	}

	res := parseScanReply(raw)
	metrics.DeepfakeScansTotal.WithLabelValues(string(res.Verdict)).Inc()
	return res, nil
}

func parseScanReply(raw string) ScanResult {
	line := strings.TrimSpace(raw)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	parts := strings.SplitN(line, "|", 3)
	upper := strings.ToUpper(parts[0])

	var verdict Verdict
	switch {
	case strings.Contains(upper, "SYNTHETIC"):
		verdict = VerdictSynthetic
	case strings.Contains(upper, "AUTHENTIC"):
		verdict = VerdictAuthentic
	case strings.Contains(upper, "UNSURE"):
		verdict = VerdictUnsure
	default:
		return fallbackResult()
	}

	confidence := 0
	if len(parts) >= 2 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && n >= 0 && n <= 100 {
			confidence = n
		}
	}

	explanation := string(verdict)
	if len(parts) == 3 {
		if e := strings.TrimSpace(parts[2]); e != "" {
			explanation = e
		}
	}

	return ScanResult{
		Verdict:     verdict,
		Confidence:  confidence,
		Explanation: explanation,
		Source:      "model",
	}
}
