package dsl

import "strings"

// Leaderboard is the parsed form of a leaderboard definition: three guard
// Triggers (Start/Cancel/Submit) plus a Value expression (spec §3
// "Leaderboard", §4.B grammar "STA:…::CAN:…::SUB:…::VAL:…::").
type Leaderboard struct {
	Start  *Trigger
	Cancel *Trigger
	Submit *Trigger
	Value  *Value

	// ValueFromHits reports whether Value's yielded number comes from a
	// hit-count target rather than a Measured operand value, used to key
	// tracker-pool signatures (spec §4.E "Tracker sharing").
	ValueFromHits bool

	Source string
}

// ParseLeaderboard parses a "STA:…::CAN:…::SUB:…::VAL:…::" definition. The
// VAL segment may itself be an arithmetic expression of "_"-separated
// value-expression terms (spec §4.B); each term is parsed as its own Value
// and the leaderboard reports the maximum across non-paused terms, mirroring
// the multi-group Value semantics of spec §4.E.
func (p *Parser) ParseLeaderboard(text string) (*Leaderboard, error) {
	segs, err := splitSegments(text)
	if err != nil {
		return nil, err
	}

	lb := &Leaderboard{Source: text}

	lb.Start, err = p.ParseTrigger(segs["STA"])
	if err != nil {
		return nil, err
	}
	lb.Cancel, err = p.ParseTrigger(segs["CAN"])
	if err != nil {
		return nil, err
	}
	lb.Submit, err = p.ParseTrigger(segs["SUB"])
	if err != nil {
		return nil, err
	}

	val, fromHits, err := p.parseLeaderboardValue(segs["VAL"])
	if err != nil {
		return nil, err
	}
	lb.Value = val
	lb.ValueFromHits = fromHits

	return lb, nil
}

// splitSegments splits "STA:x::CAN:y::SUB:z::VAL:w::" into its four labelled
// parts, tolerating a missing trailing "::".
func splitSegments(text string) (map[string]string, error) {
	segs := map[string]string{"STA": "", "CAN": "", "SUB": "", "VAL": ""}
	for _, part := range strings.Split(text, "::") {
		if part == "" {
			continue
		}
		i := strings.IndexByte(part, ':')
		if i < 0 {
			return nil, newErr(0, InvalidOperator, "malformed leaderboard segment: "+part)
		}
		label, body := part[:i], part[i+1:]
		if _, ok := segs[label]; !ok {
			return nil, newErr(0, InvalidOperator, "unknown leaderboard segment label: "+label)
		}
		segs[label] = body
	}
	return segs, nil
}

// parseLeaderboardValue parses the VAL segment, which is either a plain
// value expression or a "_"-separated list of value-expression terms
// (spec §4.B: "the value may also be written as an arithmetic expression
// with '_' as term separator"). The reported value is the maximum of all
// non-paused terms each frame, same as a multi-group Value (spec §4.E).
func (p *Parser) parseLeaderboardValue(text string) (*Value, bool, error) {
	terms := strings.Split(text, "_")

	var merged Value
	merged.Source = text
	fromHits := false

	for _, term := range terms {
		v, err := p.ParseValue(term)
		if err != nil {
			return nil, false, err
		}
		merged.Groups = append(merged.Groups, v.Groups...)
		for _, g := range v.Groups {
			for _, cnd := range g.Conditions {
				if cnd.Kind == Measured && cnd.RequiredHits > 0 {
					fromHits = true
				}
			}
		}
	}

	return &merged, fromHits, nil
}
