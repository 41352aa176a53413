package classify

import "strings"

// Weighted term dictionaries for live in-call scoring. Positive weights are
// risk signals, negative weights are everyday-benign signals. Accented and
// unaccented Vietnamese forms both appear; speech-to-text output varies.
var riskTerms = map[string]int{
	"công an": 20, "cong an": 20, "police": 20,
	"chuyển tiền": 25, "chuyen tien": 25, "transfer money": 25,
	"chuyển khoản": 25, "chuyen khoan": 25,
	"mã otp": 30, "ma otp": 30, "otp code": 30,
	"bắt giữ": 20, "bat giu": 20, "arrest": 20,
	"trúng thưởng": 15, "trung thuong": 15, "prize": 15,
	"phong tỏa": 20, "phong toa": 20, "frozen account": 20,
	"bảo mật": 10, "bao mat": 10, "security check": 10,
}

var safeTerms = map[string]int{
	"shipper":   -10,
	"giao hàng": -10, "giao hang": -10,
	"đơn hàng": -5, "don hang": -5, "order": -5,
	"lịch hẹn": -5, "lich hen": -5, "appointment": -5,
}

// scoreFloor is the lowest a single delta can go — benign chatter cannot
// erase accumulated risk.
const scoreFloor = -10

// knownContactFactor dampens deltas for saved contacts (percent).
const knownContactFactor = 20

// ContextScorer computes incremental risk deltas from in-call transcript
// fragments. The caller accumulates the deltas into a running session score.
type ContextScorer struct{}

// NewContextScorer creates a scorer with the built-in dictionaries.
func NewContextScorer() *ContextScorer {
	return &ContextScorer{}
}

// Score returns the risk delta for a transcript fragment. All matched terms
// contribute their weights; the sum is floored at -10. For known contacts
// the delta is dampened to 20% of its raw value — a saved contact is never
// treated as highly risky no matter what words come up.
func (s *ContextScorer) Score(text string, knownContact bool) int {
	lower := strings.ToLower(text)

	delta := 0
	for term, weight := range riskTerms {
		if strings.Contains(lower, term) {
			delta += weight
		}
	}
	for term, weight := range safeTerms {
		if strings.Contains(lower, term) {
			delta += weight
		}
	}

	if delta < scoreFloor {
		delta = scoreFloor
	}
	if knownContact {
		delta = delta * knownContactFactor / 100
	}
	return delta
}
