package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmnguyen/scamshield/internal/llm"
	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/metrics"
	"github.com/tmnguyen/scamshield/internal/traces"
)

const messagePrompt = `You are a scam-detection assistant for SMS and chat messages in Vietnam.
Classify the following message as exactly one of: SCAM, SUSPICIOUS, SAFE.
Respond with a single line in the format:
CATEGORY | one short sentence explaining the classification to the recipient

Message:
%s`

// genericCaution is used when the model's explanation is missing or mangled.
const genericCaution = "Be careful with this message. If it asks for money or codes, verify by calling the official number yourself."

// Scam-signal keywords for the offline fallback. Accented and unaccented
// Vietnamese forms are both listed because SMS often arrives stripped of
// diacritics.
var scamKeywords = []string{
	"chuyển tiền", "chuyen tien", "transfer money",
	"chuyển khoản", "chuyen khoan",
	"otp",
	"mật khẩu", "mat khau", "password",
	"trúng thưởng", "trung thuong", "prize", "you won",
	"tài khoản ngân hàng", "tai khoan ngan hang", "bank account",
	"nâng cấp sim", "nang cap sim", "sim upgrade",
	"khóa tài khoản", "khoa tai khoan", "account locked", "account will be locked",
	"công an", "cong an", "police",
	"khẩn cấp", "khan cap", "emergency",
}

var urgencyKeywords = []string{
	"urgent", "gấp", "gap",
	"ngay lập tức", "ngay lap tuc", "immediately",
	"trong 24h", "trong 24 giờ", "within 24",
}

// Classifier classifies message text.
type Classifier struct {
	model   llm.Client // nil = offline-only
	timeout time.Duration
}

// NewClassifier creates a message classifier. model may be nil, in which
// case every classification takes the offline fallback path.
func NewClassifier(model llm.Client, timeout time.Duration) *Classifier {
	return &Classifier{model: model, timeout: timeout}
}

// ClassifyMessage produces a verdict for a message. The model path is tried
// first with a bounded timeout; any failure degrades to the offline keyword
// heuristic. Empty input is rejected before anything else runs.
func (c *Classifier) ClassifyMessage(ctx context.Context, text string) (*MessageVerdict, error) {
	clean := Sanitize(text)
	if clean == "" {
		return nil, ErrEmptyMessage
	}

	ctx, span := traces.StartSpan(ctx, "classify.ClassifyMessage")
	defer span.End()

	if c.model != nil {
		modelCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.model.Generate(modelCtx, llm.Request{Prompt: fmt.Sprintf(messagePrompt, clean)})
		cancel()
		if err == nil {
			verdict := parseModelVerdict(resp)
			metrics.ClassificationsTotal.WithLabelValues("model", string(verdict.Verdict)).Inc()
			span.SetAttributes(traces.Verdict(string(verdict.Verdict)))
			return verdict, nil
		}
		logging.L(ctx).Warn("model classification failed, using offline fallback",
			"provider", c.model.SourceName(),
			"error", err,
		)
	}

	verdict := FallbackClassify(clean)
	metrics.ClassificationsTotal.WithLabelValues("fallback", string(verdict.Verdict)).Inc()
	span.SetAttributes(traces.Verdict(string(verdict.Verdict)))
	return verdict, nil
}

// parseModelVerdict parses the model's "CATEGORY | explanation" line.
// Category matching is deliberately loose — models decorate their answers.
func parseModelVerdict(resp string) *MessageVerdict {
	upper := strings.ToUpper(resp)

	verdict := VerdictSafe
	if strings.Contains(upper, "SCAM") {
		verdict = VerdictScam
	} else if strings.Contains(upper, "SUSPICIOUS") {
		verdict = VerdictSuspicious
	}

	explanation := genericCaution
	if _, after, found := strings.Cut(resp, "|"); found {
		if e := strings.TrimSpace(after); e != "" {
			explanation = e
		}
	}

	return &MessageVerdict{Verdict: verdict, Explanation: explanation, Source: "model"}
}

// FallbackClassify is the offline degradation path: keyword matching only,
// no network. Exported so the MCP surface can classify without a model key.
func FallbackClassify(text string) *MessageVerdict {
	lower := strings.ToLower(text)

	if kw := firstMatch(lower, scamKeywords); kw != "" {
		return &MessageVerdict{
			Verdict: VerdictSuspicious,
			Explanation: fmt.Sprintf(
				"Message contains a common scam keyword (%q). Do not transfer money or share codes — verify by calling the official number yourself.", kw),
			Source: "fallback",
		}
	}
	if kw := firstMatch(lower, urgencyKeywords); kw != "" {
		return &MessageVerdict{
			Verdict: VerdictSuspicious,
			Explanation: fmt.Sprintf(
				"Message pressures you to act fast (%q). Scammers manufacture urgency — verify by calling the official number before doing anything.", kw),
			Source: "fallback",
		}
	}

	return &MessageVerdict{
		Verdict:     VerdictSafe,
		Explanation: "No scam signals found. Stay cautious with requests for money or codes.",
		Source:      "fallback",
	}
}

func firstMatch(lower string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}
