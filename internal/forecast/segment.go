// Package forecast turns upstream market data into the forecast result contract.
package forecast

// Segment selects the upstream provider for an identifier.
type Segment string

const (
	// SegmentDomestic identifiers are numeric exchange codes served by the Tushare gateway.
	SegmentDomestic Segment = "domestic"
	// SegmentForeign identifiers are ticker symbols served by Alpha Vantage.
	SegmentForeign Segment = "foreign"
)

// Classify returns SegmentDomestic iff the identifier starts with an ASCII digit.
// Empty input is foreign.
func Classify(identifier string) Segment {
	if identifier != "" && identifier[0] >= '0' && identifier[0] <= '9' {
		return SegmentDomestic
	}
	return SegmentForeign
}
