package achieve

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jetsetilly/raclient/memref"
)

// tokenPattern matches "@Lookup(0x 1234)" / "@Format(0x 1234)" style tokens
// inside a rich presence display template; the operand between the
// parentheses is itself DSL address-spec or value-expression text.
var tokenPattern = regexp.MustCompile(`@(Lookup|Format)\(([^()]*)\)`)

// richPresenceMaxWidth bounds a rendered display string to a terminal-safe
// width, mirroring how the teacher's debugger output clips wide strings
// (mattn/go-runewidth) rather than truncating by byte/rune count.
const richPresenceMaxWidth = 64

var enPrinter = message.NewPrinter(language.English)

// evalRichPresence selects the first display rule whose guard Trigger is
// true (or the first unguarded rule), substitutes its @Lookup/@Format
// tokens, and clips the result to richPresenceMaxWidth (spec §4.E "Rich
// presence").
func (g *Game) evalRichPresence(read memref.ReadMemory) string {
	for _, rule := range g.RichPresence.Rules {
		if rule.Guard != nil {
			eng := NewTriggerEngine(rule.Guard)
			setValid, _, _, _ := eng.Step(g.Graph, g.frameID, read)
			if !setValid {
				continue
			}
		}
		return g.substituteTokens(rule.Text, read)
	}
	return ""
}

func (g *Game) substituteTokens(template string, read memref.ReadMemory) string {
	out := tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		if m == nil {
			return tok
		}
		kind, rawOperand := m[1], strings.TrimSpace(m[2])

		valExpr, err := g.Parser.ParseValue("M:" + rawOperand)
		if err != nil {
			return tok
		}
		eng := NewValueEngine(valExpr)
		n := eng.Step(g.Graph, g.frameID, read)

		switch kind {
		case "Lookup":
			// the token is replaced by the value in decimal; the lookup
			// tables in g.RichPresence.Lookups are not consulted here.
			return strconv.FormatInt(n.AsInt(), 10)
		case "Format":
			return enPrinter.Sprintf("%d", n.AsInt())
		}
		return tok
	})

	return runewidth.Truncate(out, richPresenceMaxWidth, "")
}
