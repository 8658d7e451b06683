package dsl

import (
	"strconv"
	"strings"
)

// LookupTable is a named integer→string table referenced by "@Lookup"
// tokens in a rich presence display string (spec §3 "Rich Presence").
type LookupTable struct {
	Name    string
	Entries map[int64]string
	// Default is returned for a value with no matching entry; "" if the
	// table declares none.
	Default string
}

// Lookup resolves v to its display string, falling back to Default.
func (t *LookupTable) Lookup(v int64) string {
	if s, ok := t.Entries[v]; ok {
		return s
	}
	return t.Default
}

// FormatKind is the numeric rendering applied by an "@Format" token.
type FormatKind int

const (
	FormatValue FormatKind = iota
	FormatScore
	FormatSeconds
	FormatMinutes
	FormatFrames
	FormatCentiseconds
)

// displayRule is one guarded line of a rich presence script: the guard
// Trigger must hold for text to be selected; the default (un-guarded) rule
// has a nil Guard and is always eligible.
type displayRule struct {
	Guard *Trigger
	Text  string // raw template, with @Lookup(mem)/@Format(mem) tokens intact
}

// RichPresence is the parsed form of a game's rich presence script: a set of
// named lookup tables plus an ordered list of guarded display templates
// (spec §3 "Rich Presence", §4.E "Rich presence").
type RichPresence struct {
	Lookups map[string]*LookupTable
	Formats map[string]FormatKind
	Rules   []displayRule
}

// ParseRichPresence parses a rich presence script of the form:
//
//	Lookup:Name
//	0=Foo
//	1=Bar
//
//	Format:Name
//	FormatType=SCORE
//
//	Display:
//	?Trigger?Guarded display text with @Lookup(0x 1234) and @Format(0x 2345)
//	Default display text
//
// grounded on the teacher's commandline-style line-oriented block parsers
// (each section is a run of non-blank lines introduced by a header line).
func (p *Parser) ParseRichPresence(text string) (*RichPresence, error) {
	rp := &RichPresence{
		Lookups: make(map[string]*LookupTable),
		Formats: make(map[string]FormatKind),
	}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		switch {
		case strings.HasPrefix(line, "Lookup:"):
			name := strings.TrimPrefix(line, "Lookup:")
			i++
			table := &LookupTable{Name: name, Entries: make(map[int64]string)}
			for i < len(lines) && lines[i] != "" {
				entry := strings.TrimRight(lines[i], "\r")
				eq := strings.IndexByte(entry, '=')
				if eq < 0 {
					i++
					continue
				}
				key, val := entry[:eq], entry[eq+1:]
				if key == "*" {
					table.Default = val
				} else if n, err := strconv.ParseInt(key, 10, 64); err == nil {
					table.Entries[n] = val
				}
				i++
			}
			rp.Lookups[name] = table

		case strings.HasPrefix(line, "Format:"):
			name := strings.TrimPrefix(line, "Format:")
			i++
			kind := FormatValue
			for i < len(lines) && lines[i] != "" {
				entry := strings.TrimRight(lines[i], "\r")
				if strings.HasPrefix(entry, "FormatType=") {
					kind = parseFormatKind(strings.TrimPrefix(entry, "FormatType="))
				}
				i++
			}
			rp.Formats[name] = kind

		case line == "Display:":
			i++
			for i < len(lines) && lines[i] != "" {
				entry := strings.TrimRight(lines[i], "\r")
				rule, err := p.parseDisplayLine(entry)
				if err != nil {
					return nil, err
				}
				rp.Rules = append(rp.Rules, rule)
				i++
			}

		default:
			i++
		}
	}

	return rp, nil
}

func parseFormatKind(s string) FormatKind {
	switch strings.ToUpper(s) {
	case "SCORE", "POINTS", "VALUE":
		return FormatScore
	case "SECS", "SECONDS", "TIME":
		return FormatSeconds
	case "MINUTES":
		return FormatMinutes
	case "FRAMES":
		return FormatFrames
	case "CENTISECS", "MILLISECS":
		return FormatCentiseconds
	default:
		return FormatValue
	}
}

// parseDisplayLine parses one "?Trigger?text" guarded line, or a bare "text"
// default line (no guard).
func (p *Parser) parseDisplayLine(line string) (displayRule, error) {
	if !strings.HasPrefix(line, "?") {
		return displayRule{Text: line}, nil
	}

	rest := line[1:]
	end := strings.IndexByte(rest, '?')
	if end < 0 {
		return displayRule{}, newErr(0, InvalidOperator, "unterminated rich presence guard")
	}
	guardText, body := rest[:end], rest[end+1:]

	guard, err := p.ParseTrigger(guardText)
	if err != nil {
		return displayRule{}, err
	}
	return displayRule{Guard: guard, Text: body}, nil
}
