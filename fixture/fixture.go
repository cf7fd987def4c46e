// Package fixture implements C11: a small line-oriented textual DSL for
// authoring cashflows in tests and local experimentation, grounded on the
// teacher's participle-based directive grammar (parser/parser.go). This is
// deliberately not the external JSON schema boundary adapter — it is a
// convenience format that lowers directly onto cashflow.Cashflow and
// prefs.Preferences values.
//
// Example:
//
//	cashflow "30yr fixed" currency USD
//	pref round-balance bankers round-decimal-digits 2
//	event principal 2020-01-01 positive amount 100000.00
//	event interest  2020-01-01 rate 6% basis 30 freq 1-month eom
//	event principal 2020-01-01 decrease amount @target freq 1-month periods 360
//	rate 2020-01-01 USD EUR 0.92
package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/event"
	"github.com/amfn/engine/fx"
	"github.com/amfn/engine/money"
	"github.com/amfn/engine/prefs"
)

// Document is the root of a parsed fixture source: an ordered sequence of
// cashflow/pref/event statements. A fixture file may declare more than one
// cashflow; each cashflow statement opens a new one, and subsequent pref
// and event statements attach to the most recently opened cashflow until
// the next cashflow statement.
type Document struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement is the union of the four directive kinds this DSL supports.
type Statement struct {
	Cashflow *CashflowDecl `parser:"( @@"`
	Pref     *PrefDecl     `parser:"| @@"`
	Event    *EventDecl    `parser:"| @@"`
	Rate     *RateDecl     `parser:"| @@ )"`
}

// RateDecl records one exchange-rate hop: `rate 2020-01-01 USD EUR 0.92`.
// Rate statements are independent of whichever cashflow is currently
// open; they accumulate into a single shared fx.Graph for the whole
// document, since an exchange-rate table is not itself part of any one
// cashflow's event list.
type RateDecl struct {
	Date string `parser:"\"rate\" @Date"`
	From string `parser:"@Ident"`
	To   string `parser:"@Ident"`
	Rate string `parser:"@(Number | Percent)"`
}

// CashflowDecl opens a new cashflow: `cashflow "name" currency USD`.
type CashflowDecl struct {
	Name     string `parser:"\"cashflow\" @String"`
	Currency string `parser:"(\"currency\" @Ident)?"`
}

// PrefDecl sets one or more preference fields on the current cashflow:
// `pref round-balance bankers round-decimal-digits 2`.
type PrefDecl struct {
	Fields []*PrefField `parser:"\"pref\" @@+"`
}

// PrefField is a single key/value pair within a pref statement. A bare
// key with no following value token (detected during lowering, since the
// grammar always captures a value token) is not supported for pref
// fields; every preference key takes a value.
type PrefField struct {
	Key   string `parser:"@Ident"`
	Value string `parser:"@(Ident | String | Number | Percent | Freq)"`
}

// EventDecl declares one event: `event <kind> <date> <attr>...`.
type EventDecl struct {
	Kind  string       `parser:"\"event\" @Ident"`
	Date  string       `parser:"@Date"`
	Attrs []*AttrField `parser:"@@*"`
}

// AttrField is one attribute of an event. Value is nil for bare boolean
// flags (e.g. "eom", "positive", "principal-first"); otherwise it holds
// the attribute's literal token.
type AttrField struct {
	Key   string  `parser:"@Ident"`
	Value *string `parser:"(@(Ident | String | Number | Percent | Freq | Target))?"`
}

var lex = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}`},
	{Name: "Percent", Pattern: `[-+]?(\d*\.)?\d+%`},
	{Name: "Freq", Pattern: `\d+[A-Za-z-][0-9A-Za-z_-]*`},
	{Name: "Target", Pattern: `@target`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `[-+]?(\d*\.)?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z][0-9A-Za-z_-]*`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[[:space:]]+`},
})

var docParser = participle.MustBuild[Document](
	participle.Lexer(lex),
	participle.Unquote("String"),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses fixture source into one cashflow per `cashflow` statement
// it contains, in source order. Any rate statements present are parsed
// and validated but discarded; callers that also need the exchange-rate
// graph should use ParseAll instead.
func Parse(source string) ([]*cashflow.Cashflow, error) {
	cashflows, _, err := ParseAll(source)
	return cashflows, err
}

// ParseAll parses fixture source into its cashflows, in source order,
// plus a single fx.Graph accumulated from every rate statement in the
// document. Rate statements are independent of cashflow/pref/event
// statements and may appear anywhere in the source.
func ParseAll(source string) ([]*cashflow.Cashflow, *fx.Graph, error) {
	doc, err := docParser.ParseString("", source)
	if err != nil {
		return nil, nil, fmt.Errorf("fixture: %w", err)
	}
	return lower(doc)
}

type builder struct {
	cf         *cashflow.Cashflow
	prefFields map[string]string
}

func lower(doc *Document) ([]*cashflow.Cashflow, *fx.Graph, error) {
	var cashflows []*cashflow.Cashflow
	var cur *builder
	graph := fx.NewGraph()

	for _, stmt := range doc.Statements {
		switch {
		case stmt.Cashflow != nil:
			cur = &builder{
				cf: &cashflow.Cashflow{
					Name:     stmt.Cashflow.Name,
					Currency: stmt.Cashflow.Currency,
				},
				prefFields: map[string]string{},
			}
			cashflows = append(cashflows, cur.cf)

		case stmt.Pref != nil:
			if cur == nil {
				return nil, nil, fmt.Errorf("fixture: pref statement before any cashflow statement")
			}
			for _, f := range stmt.Pref.Fields {
				cur.prefFields[f.Key] = f.Value
			}
			if err := applyPrefFields(cur); err != nil {
				return nil, nil, err
			}

		case stmt.Event != nil:
			if cur == nil {
				return nil, nil, fmt.Errorf("fixture: event statement before any cashflow statement")
			}
			ev, err := lowerEvent(stmt.Event, len(cur.cf.Events))
			if err != nil {
				return nil, nil, err
			}
			cur.cf.Events = append(cur.cf.Events, ev)

		case stmt.Rate != nil:
			if err := lowerRate(graph, stmt.Rate); err != nil {
				return nil, nil, err
			}
		}
	}

	return cashflows, graph, nil
}

func lowerRate(graph *fx.Graph, decl *RateDecl) error {
	date, err := caldate.Parse(decl.Date)
	if err != nil {
		return fmt.Errorf("fixture: invalid rate date %q: %w", decl.Date, err)
	}
	raw := strings.TrimSuffix(decl.Rate, "%")
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("fixture: invalid rate %q: %w", decl.Rate, err)
	}
	if strings.HasSuffix(decl.Rate, "%") {
		rate = rate.Div(decimal.NewFromInt(100))
	}
	if err := graph.AddRate(date, decl.From, decl.To, rate); err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	return nil
}

func applyPrefFields(b *builder) error {
	p := &b.cf.Preferences
	for key, val := range b.prefFields {
		switch key {
		case "round-balance":
			p.RoundBalance = val
		case "round-decimal-digits":
			n, err := strconv.ParseInt(val, 10, 32)
			if err != nil {
				return fmt.Errorf("fixture: invalid round-decimal-digits %q: %w", val, err)
			}
			p.RoundDecimalDigits = int32(n)
		case "currency":
			p.Currency = val
		case "locale":
			p.Locale = val
		default:
			// Any other key is treated as a named evaluation parameter,
			// always typed as a float since the DSL carries no per-field
			// type tag the way the JSON boundary schema does.
			p.Parameters = append(p.Parameters, prefs.ParameterDoc{Name: key, Type: "float", Value: val})
		}
	}
	return nil
}

func lowerEvent(decl *EventDecl, originIndex int) (*event.Event, error) {
	date, err := caldate.Parse(decl.Date)
	if err != nil {
		return nil, fmt.Errorf("fixture: invalid event date %q: %w", decl.Date, err)
	}

	attrs := make(map[string]*string, len(decl.Attrs))
	for _, a := range decl.Attrs {
		attrs[a.Key] = a.Value
	}
	has := func(key string) bool { _, ok := attrs[key]; return ok }
	str := func(key string) string {
		if v := attrs[key]; v != nil {
			return *v
		}
		return ""
	}

	ev := &event.Event{
		Date:        date,
		Frequency:   caldate.Freq1Month,
		Intervals:   1,
		OriginIndex: originIndex,
	}

	if v, ok := attrs["freq"]; ok && v != nil {
		ev.Frequency = caldate.Frequency(*v)
	}
	if v, ok := attrs["intervals"]; ok && v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid intervals %q: %w", *v, err)
		}
		ev.Intervals = n
	}
	if v, ok := attrs["periods"]; ok && v != nil {
		if *v == "@target" {
			ev.PeriodsExpr = "@target"
		} else {
			n, err := strconv.Atoi(*v)
			if err != nil {
				return nil, fmt.Errorf("fixture: invalid periods %q: %w", *v, err)
			}
			ev.Periods = n
		}
	}
	if v, ok := attrs["sort-order"]; ok && v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid sort-order %q: %w", *v, err)
		}
		ev.SortOrder = n
	}
	if v, ok := attrs["skip-mask"]; ok && v != nil {
		n, err := strconv.ParseUint(*v, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid skip-mask %q: %w", *v, err)
		}
		ev.SkipMask = n
	}

	if err := lowerValue(ev, attrs); err != nil {
		return nil, err
	}

	ext, err := lowerExtension(decl.Kind, attrs, has, str)
	if err != nil {
		return nil, err
	}
	ev.Extension = ext

	return ev, nil
}

// lowerValue resolves the event's literal/expression value from whichever
// of "amount", "rate", or "value" the event attributes carry; at most one
// of these three is expected per event.
func lowerValue(ev *event.Event, attrs map[string]*string) error {
	for _, key := range []string{"amount", "rate", "value"} {
		v, ok := attrs[key]
		if !ok || v == nil {
			continue
		}
		if *v == "@target" {
			ev.ValueExpr = "@target"
			return nil
		}
		raw := strings.TrimSuffix(*v, "%")
		dec, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("fixture: invalid %s %q: %w", key, *v, err)
		}
		if strings.HasSuffix(*v, "%") {
			dec = dec.Div(decimal.NewFromInt(100))
		}
		ev.Value = dec
		return nil
	}
	return nil
}

func lowerExtension(kind string, attrs map[string]*string, has func(string) bool, str func(string) string) (event.Extension, error) {
	switch kind {
	case "principal":
		pt := event.PrincipalIncrease
		switch {
		case has("positive"):
			pt = event.PrincipalPositive
		case has("negative"):
			pt = event.PrincipalNegative
		case has("increase"):
			pt = event.PrincipalIncrease
		case has("decrease"):
			pt = event.PrincipalDecrease
		}
		return &event.PrincipalChange{
			Type:           pt,
			Auxiliary:      has("auxiliary"),
			Passive:        has("passive"),
			PrincipalFirst: has("principal-first"),
			Statistics:     has("statistics"),
			EOM:            has("eom"),
		}, nil

	case "interest":
		basis := caldate.BasisPeriodic
		if has("basis") {
			basis = caldate.Basis(str("basis"))
		}
		method := event.MethodActuarial
		if has("method") {
			method = event.InterestMethod(str("method"))
		}
		round := money.RoundBankers
		if has("round") {
			m, err := money.ParseRoundingMode(str("round"))
			if err != nil {
				return nil, fmt.Errorf("fixture: %w", err)
			}
			round = m
		}
		digits := int32(2)
		if has("digits") {
			n, err := strconv.ParseInt(str("digits"), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("fixture: invalid digits %q: %w", str("digits"), err)
			}
			digits = int32(n)
		}
		ic := &event.InterestChange{
			DayCountBasis:      basis,
			Method:             method,
			RoundBalance:       round,
			RoundDecimalDigits: digits,
		}
		if has("days-in-year") {
			n, err := strconv.Atoi(str("days-in-year"))
			if err != nil {
				return nil, fmt.Errorf("fixture: invalid days-in-year %q: %w", str("days-in-year"), err)
			}
			ic.DaysInYear = n
		}
		if has("statistics") {
			names := strings.Split(str("statistics"), ",")
			ic.Statistics = names
		}
		return ic, nil

	case "statistic":
		return &event.StatisticValue{
			Name:  str("name"),
			Final: has("final"),
			EOM:   has("eom"),
		}, nil

	case "current-value":
		return &event.CurrentValue{
			EOM:     has("eom"),
			Passive: has("passive"),
			Present: has("present"),
		}, nil

	default:
		return nil, fmt.Errorf("fixture: unknown event kind %q", kind)
	}
}
