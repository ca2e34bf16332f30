package rules

// Format describes one competitive format: which characters are banned and
// what they cost to acquire. Costs fall back to DefaultCost when a character
// has no explicit price.
type Format struct {
	ID          string         `yaml:"id"`
	DefaultCost int            `yaml:"default_cost"`
	Banned      []string       `yaml:"banned"`
	Costs       map[string]int `yaml:"costs"`
}

// FormatOracle prices and validates characters from a static format table.
type FormatOracle struct {
	formats map[string]formatEntry
}

type formatEntry struct {
	defaultCost int
	banned      map[string]struct{}
	costs       map[string]int
}

func NewFormatOracle(formats []Format) *FormatOracle {
	table := make(map[string]formatEntry, len(formats))
	for _, f := range formats {
		entry := formatEntry{
			defaultCost: f.DefaultCost,
			banned:      make(map[string]struct{}, len(f.Banned)),
			costs:       f.Costs,
		}
		for _, id := range f.Banned {
			entry.banned[id] = struct{}{}
		}
		table[f.ID] = entry
	}
	return &FormatOracle{formats: table}
}

// Validate implements LegalityOracle. Unknown formats reject every character
// so a misconfigured draft cannot silently accept picks.
func (o *FormatOracle) Validate(characterID, formatID string) Verdict {
	entry, ok := o.formats[formatID]
	if !ok {
		return Verdict{IsLegal: false, Reason: "unknown format: " + formatID}
	}
	if _, banned := entry.banned[characterID]; banned {
		return Verdict{IsLegal: false, Reason: "banned in format: " + formatID}
	}
	cost, ok := entry.costs[characterID]
	if !ok {
		cost = entry.defaultCost
	}
	return Verdict{IsLegal: true, Cost: cost}
}

// Permissive returns an oracle that accepts every character at zero cost.
// Useful for casual drafts with no format restrictions.
func Permissive() LegalityOracle {
	return OracleFunc(func(characterID, formatID string) Verdict {
		return Verdict{IsLegal: true}
	})
}
