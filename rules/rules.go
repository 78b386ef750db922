// Package rules decides what happens to an incoming message before rendering:
// whether it prints at all and which backend renders it. Decisions come from
// a small rule file, one rule per line:
//
//	# drop chatter at night
//	when priority < 0 skip
//	when app matches "(?i)grafana" use canvas
//	default use escpos
//
// The first matching rule wins; default is the fallthrough.
package rules

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"pushprint/pushover"
)

var (
	ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Number", Pattern: `-?\d+`},
		{Name: "Op", Pattern: `<=|>=|==|!=|<|>`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	})

	fileParser = participle.MustBuild[ruleFile](
		participle.Lexer(ruleLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

type ruleFile struct {
	Statements []*statement `parser:"Newline* ( @@ Newline* )*"`
}

type statement struct {
	When    *whenRule `parser:"  @@"`
	Default *action   `parser:"| 'default' @@"`
}

type whenRule struct {
	Field  string `parser:"'when' @('priority' | 'app' | 'title')"`
	Op     string `parser:"@(Op | 'matches')"`
	Number *int   `parser:"( @Number"`
	Text   string `parser:"| @String )"`
	Action action `parser:"@@"`
}

type action struct {
	Skip    bool   `parser:"  @'skip'"`
	Backend string `parser:"| 'use' @('canvas' | 'escpos')"`
}

// Decision is the outcome of evaluating a message against the rule set.
type Decision struct {
	Skip    bool
	Backend string // empty means "use the profile's default"
}

type rule struct {
	field   string
	op      string
	number  int
	text    string
	pattern *regexp.Regexp
	action  action
}

// Set is a parsed, validated rule file ready for evaluation.
type Set struct {
	rules    []rule
	fallback *action
}

// Parse reads and validates a rule file.
func Parse(r io.Reader) (*Set, error) {
	file, err := fileParser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	set := &Set{}
	for _, st := range file.Statements {
		if st.Default != nil {
			if set.fallback != nil {
				return nil, fmt.Errorf("parsing rules: more than one default")
			}
			set.fallback = st.Default
			continue
		}
		w := st.When
		rl := rule{field: w.Field, op: w.Op, text: w.Text, action: w.Action}
		if w.Number != nil {
			rl.number = *w.Number
		}
		switch w.Field {
		case "priority":
			if w.Number == nil {
				return nil, fmt.Errorf("parsing rules: priority compares against a number")
			}
			if w.Op == "matches" {
				return nil, fmt.Errorf("parsing rules: priority does not support matches")
			}
		default:
			if w.Number != nil {
				return nil, fmt.Errorf("parsing rules: %s compares against a string", w.Field)
			}
			switch w.Op {
			case "==", "!=":
			case "matches":
				rl.pattern, err = regexp.Compile(w.Text)
				if err != nil {
					return nil, fmt.Errorf("parsing rules: bad pattern %s: %w", strconv.Quote(w.Text), err)
				}
			default:
				return nil, fmt.Errorf("parsing rules: %s does not support %s", w.Field, w.Op)
			}
		}
		set.rules = append(set.rules, rl)
	}
	return set, nil
}

// Evaluate returns the decision for msg. With no matching rule and no
// default, everything prints on the profile's default backend.
func (s *Set) Evaluate(msg pushover.Message) Decision {
	for _, rl := range s.rules {
		if rl.matches(msg) {
			return decisionOf(rl.action)
		}
	}
	if s.fallback != nil {
		return decisionOf(*s.fallback)
	}
	return Decision{}
}

func decisionOf(a action) Decision {
	return Decision{Skip: a.Skip, Backend: a.Backend}
}

func (rl rule) matches(msg pushover.Message) bool {
	switch rl.field {
	case "priority":
		p := msg.Priority
		switch rl.op {
		case "<":
			return p < rl.number
		case "<=":
			return p <= rl.number
		case ">":
			return p > rl.number
		case ">=":
			return p >= rl.number
		case "==":
			return p == rl.number
		case "!=":
			return p != rl.number
		}
	case "app", "title":
		v := msg.AppName
		if rl.field == "title" {
			v = msg.Title
		}
		switch rl.op {
		case "==":
			return v == rl.text
		case "!=":
			return v != rl.text
		case "matches":
			return rl.pattern.MatchString(v)
		}
	}
	return false
}
