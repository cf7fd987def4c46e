package expr

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/money"
)

// builtinArity is the minimum and maximum argument count accepted by a
// built-in function (variadic-free; the language has no varargs).
type builtinArity struct{ min, max int }

var builtinArities = map[string]builtinArity{
	"round":     {3, 3},
	"abs":       {1, 1},
	"min":       {2, 2},
	"max":       {2, 2},
	"if":        {3, 3},
	"date":      {3, 3},
	"date-diff": {3, 3},
	"date-add":  {5, 5},
	"fv":        {3, 4},
	"pv":        {3, 4},
	"pmt":       {3, 4},
	"nper":      {3, 4},
	"rate":      {3, 4},
	"format":    {2, 2},
}

func isBuiltin(name string) bool {
	_, ok := builtinArities[name]
	return ok
}

// callBuiltin dispatches a NodeCall to its implementation. args have
// already been evaluated by the caller (eval.go), except "if" which
// short-circuits and is special-cased there.
func callBuiltin(name string, args []Value, span Span) (Value, error) {
	switch name {
	case "round":
		return builtinRound(args, span)
	case "abs":
		return builtinAbs(args, span)
	case "min":
		return builtinMinMax(args, span, true)
	case "max":
		return builtinMinMax(args, span, false)
	case "date":
		return builtinDate(args, span)
	case "date-diff":
		return builtinDateDiff(args, span)
	case "date-add":
		return builtinDateAdd(args, span)
	case "fv":
		return builtinFV(args, span)
	case "pv":
		return builtinPV(args, span)
	case "pmt":
		return builtinPMT(args, span)
	case "nper":
		return builtinNPER(args, span)
	case "rate":
		return builtinRATE(args, span)
	case "format":
		return builtinFormat(args, span)
	}
	return Value{}, typeErr(span, "unknown function %q", name)
}

func typeErr(span Span, format string, args ...any) error {
	return &TypeError{Span: span, Message: fmt.Sprintf(format, args...)}
}

func arithErr(span Span, format string, args ...any) error {
	return &ArithError{Span: span, Message: fmt.Sprintf(format, args...)}
}

// TypeError and ArithError mirror amfnerr's ExprTypeError/ExprArithError
// kinds but stay within this package to avoid an import cycle; the
// cashflow layer wraps them with the owning event index.
type TypeError struct {
	Span    Span
	Message string
}

func (e *TypeError) Error() string { return e.Message }

type ArithError struct {
	Span    Span
	Message string
}

func (e *ArithError) Error() string { return e.Message }

func asDecimal(v Value, span Span, argPos int) (decimal.Decimal, error) {
	if v.Kind != KindDecimal {
		return decimal.Zero, typeErr(span, "argument %d: expected decimal, got %s", argPos, v.Kind)
	}
	return v.Dec, nil
}

func asDate(v Value, span Span, argPos int) (caldate.Date, error) {
	if v.Kind != KindDate {
		return caldate.Date{}, typeErr(span, "argument %d: expected date, got %s", argPos, v.Kind)
	}
	return v.Dt, nil
}

func asString(v Value, span Span, argPos int) (string, error) {
	if v.Kind != KindString {
		return "", typeErr(span, "argument %d: expected string, got %s", argPos, v.Kind)
	}
	return v.Str, nil
}

func builtinRound(args []Value, span Span) (Value, error) {
	x, err := asDecimal(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	n, err := asDecimal(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	modeStr, err := asString(args[2], span, 2)
	if err != nil {
		return Value{}, err
	}
	mode, err := money.ParseRoundingMode(modeStr)
	if err != nil {
		return Value{}, typeErr(span, "%v", err)
	}
	return DecimalValue(money.Round(x, int32(n.IntPart()), mode)), nil
}

func builtinAbs(args []Value, span Span) (Value, error) {
	x, err := asDecimal(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	return DecimalValue(x.Abs()), nil
}

func builtinMinMax(args []Value, span Span, wantMin bool) (Value, error) {
	a, err := asDecimal(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	b, err := asDecimal(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	if wantMin {
		if a.LessThanOrEqual(b) {
			return DecimalValue(a), nil
		}
		return DecimalValue(b), nil
	}
	if a.GreaterThanOrEqual(b) {
		return DecimalValue(a), nil
	}
	return DecimalValue(b), nil
}

func builtinDate(args []Value, span Span) (Value, error) {
	y, err := asDecimal(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	m, err := asDecimal(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	d, err := asDecimal(args[2], span, 2)
	if err != nil {
		return Value{}, err
	}
	return DateValue(caldate.New(int(y.IntPart()), int(m.IntPart()), int(d.IntPart()))), nil
}

func builtinDateDiff(args []Value, span Span) (Value, error) {
	a, err := asDate(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	b, err := asDate(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	basisStr, err := asString(args[2], span, 2)
	if err != nil {
		return Value{}, err
	}
	basis := caldate.Basis(basisStr)
	frac, err := caldate.Fraction(basis, a, b, 1, 0)
	if err != nil {
		return Value{}, typeErr(span, "%v", err)
	}
	return DecimalValue(decimal.NewFromFloat(frac)), nil
}

func builtinDateAdd(args []Value, span Span) (Value, error) {
	d, err := asDate(args[0], span, 0)
	if err != nil {
		return Value{}, err
	}
	n, err := asDecimal(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	freqStr, err := asString(args[2], span, 2)
	if err != nil {
		return Value{}, err
	}
	intervals, err := asDecimal(args[3], span, 3)
	if err != nil {
		return Value{}, err
	}
	eomVal := args[4]
	eom := boolOf(eomVal)

	freq := caldate.Frequency(freqStr)
	if !freq.Valid() {
		return Value{}, typeErr(span, "unsupported frequency %q", freqStr)
	}
	result, err := caldate.Step(d, freq, int(n.IntPart())*int(intervals.IntPart()), eom)
	if err != nil {
		return Value{}, arithErr(span, "%v", err)
	}
	return DateValue(result), nil
}

func builtinFormat(args []Value, span Span) (Value, error) {
	x := args[0]
	spec, err := asString(args[1], span, 1)
	if err != nil {
		return Value{}, err
	}
	switch x.Kind {
	case KindDecimal:
		digits := int32(2)
		if spec != "" {
			if n, convErr := decimal.NewFromString(spec); convErr == nil {
				digits = int32(n.IntPart())
			}
		}
		return StringValue(x.Dec.StringFixed(digits)), nil
	case KindString:
		return StringValue(x.Str), nil
	case KindDate:
		return StringValue(x.Dt.String()), nil
	case KindBool:
		if x.B {
			return StringValue("true"), nil
		}
		return StringValue("false"), nil
	}
	return Value{}, typeErr(span, "format: unsupported value kind %s", x.Kind)
}

// --- single-period time-value-of-money builtins ---
//
// fv/pv/pmt/nper analytically solve the ordinary-annuity equation
//   pv*(1+r)^n + pmt*((1+r)^n - 1)/r + fv = 0
// for the named unknown, with a zero-rate special case. rate has no
// general closed form for n > 1; it is analytical only at n == 1
// (rate = -(pv+pmt+fv)/pv) and otherwise falls back to a bounded secant
// search local to this function (distinct from the C9 solver package,
// which roots the whole cashflow evaluation rather than one formula).

func annuityFactor(r float64, n float64) float64 {
	if r == 0 {
		return n
	}
	return (math.Pow(1+r, n) - 1) / r
}

func builtinFV(args []Value, span Span) (Value, error) {
	r, n, pmt, pv, err := tvmArgs(args, span)
	if err != nil {
		return Value{}, err
	}
	fv := -(pv*math.Pow(1+r, n) + pmt*annuityFactor(r, n))
	return DecimalValue(decimal.NewFromFloat(fv)), nil
}

func builtinPV(args []Value, span Span) (Value, error) {
	r, n, pmt, fv, err := tvmArgs(args, span)
	if err != nil {
		return Value{}, err
	}
	pv := -(fv + pmt*annuityFactor(r, n)) / math.Pow(1+r, n)
	return DecimalValue(decimal.NewFromFloat(pv)), nil
}

func builtinPMT(args []Value, span Span) (Value, error) {
	r, n, pv, fv, err := tvmArgs(args, span)
	if err != nil {
		return Value{}, err
	}
	af := annuityFactor(r, n)
	if af == 0 {
		return Value{}, arithErr(span, "pmt: degenerate annuity factor")
	}
	pmt := -(pv*math.Pow(1+r, n) + fv) / af
	return DecimalValue(decimal.NewFromFloat(pmt)), nil
}

func builtinNPER(args []Value, span Span) (Value, error) {
	r, pmt, pv, fv, err := tvmArgsNper(args, span)
	if err != nil {
		return Value{}, err
	}
	if r == 0 {
		if pmt == 0 {
			return Value{}, arithErr(span, "nper: zero rate and zero payment")
		}
		return DecimalValue(decimal.NewFromFloat(-(pv + fv) / pmt)), nil
	}
	num := pmt - fv*r
	den := pmt + pv*r
	if den == 0 || num/den <= 0 {
		return Value{}, arithErr(span, "nper: no real solution for given arguments")
	}
	n := math.Log(num/den) / math.Log(1+r)
	return DecimalValue(decimal.NewFromFloat(n)), nil
}

func builtinRATE(args []Value, span Span) (Value, error) {
	n, pmt, pv, fv, err := tvmArgsRate(args, span)
	if err != nil {
		return Value{}, err
	}
	if n == 1 {
		if pv == 0 {
			return Value{}, arithErr(span, "rate: zero present value")
		}
		return DecimalValue(decimal.NewFromFloat(-(pv + pmt + fv) / pv)), nil
	}

	f := func(r float64) float64 {
		return pv*math.Pow(1+r, n) + pmt*annuityFactor(r, n) + fv
	}
	r0, r1 := 0.01, 0.02
	for i := 0; i < 64; i++ {
		f0, f1 := f(r0), f(r1)
		if f1 == f0 {
			break
		}
		r2 := r1 - f1*(r1-r0)/(f1-f0)
		if math.Abs(r2-r1) < 1e-12 {
			return DecimalValue(decimal.NewFromFloat(r2)), nil
		}
		r0, r1 = r1, r2
	}
	return Value{}, arithErr(span, "rate: no convergence")
}

func tvmArgs(args []Value, span Span) (r, n, x, y float64, err error) {
	rd, err := asDecimal(args[0], span, 0)
	if err != nil {
		return
	}
	nd, err := asDecimal(args[1], span, 1)
	if err != nil {
		return
	}
	xd, err := asDecimal(args[2], span, 2)
	if err != nil {
		return
	}
	yd := decimal.Zero
	if len(args) > 3 {
		yd, err = asDecimal(args[3], span, 3)
		if err != nil {
			return
		}
	}
	rf, _ := rd.Float64()
	nf, _ := nd.Float64()
	xf, _ := xd.Float64()
	yf, _ := yd.Float64()
	return rf, nf, xf, yf, nil
}

func tvmArgsNper(args []Value, span Span) (r, pmt, pv, fv float64, err error) {
	return tvmArgs(args, span)
}

func tvmArgsRate(args []Value, span Span) (n, pmt, pv, fv float64, err error) {
	return tvmArgs(args, span)
}
