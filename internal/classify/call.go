package classify

import "time"

// CallInfo is the metadata available for scoring a finished or in-progress call.
type CallInfo struct {
	Number      string
	ContactName string // non-empty when the number resolved to a saved contact
	Duration    time.Duration
}

// Duration boundaries for the offline call heuristic.
const (
	shortCallMax = 10 * time.Second
	longCallMin  = 300 * time.Second
)

// Risk scores assigned by the call heuristic.
const (
	scoreKnownContact = 5
	scoreShortUnknown = 75
	scoreLongUnknown  = 65
	scoreOtherUnknown = 40
)

// ClassifyCall scores call metadata with the offline heuristic. Known
// contacts are near-zero risk; unknown numbers are scored by duration —
// very short calls look like ring-and-hang probes, very long ones like
// staged scams.
func ClassifyCall(call CallInfo) CallAssessment {
	if call.ContactName != "" {
		return CallAssessment{
			RiskScore:   scoreKnownContact,
			Explanation: "Known contact.",
		}
	}

	switch {
	case call.Duration < shortCallMax:
		return CallAssessment{
			RiskScore:   scoreShortUnknown,
			Explanation: "Short call from an unknown number — possible ring-and-hang scam probe.",
		}
	case call.Duration >= longCallMin:
		return CallAssessment{
			RiskScore:   scoreLongUnknown,
			Explanation: "Unusually long call from an unknown number — possible staged scam.",
		}
	default:
		return CallAssessment{
			RiskScore:   scoreOtherUnknown,
			Explanation: "Unknown number, needs verification.",
		}
	}
}
