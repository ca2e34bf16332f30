// Package rules holds the format-legality boundary. The pricing and legality
// oracle is an external collaborator; the engine consumes it as a pure
// function and re-validates at commit time regardless of any earlier
// client-side check.
package rules

// Verdict is the oracle's answer for one character under one format.
type Verdict struct {
	IsLegal bool
	Cost    int
	Reason  string
}

// LegalityOracle validates a character against a competitive format and
// prices it. Implementations must be pure: same inputs, same verdict.
type LegalityOracle interface {
	Validate(characterID, formatID string) Verdict
}

// OracleFunc adapts a plain function to the LegalityOracle interface.
type OracleFunc func(characterID, formatID string) Verdict

func (f OracleFunc) Validate(characterID, formatID string) Verdict {
	return f(characterID, formatID)
}
