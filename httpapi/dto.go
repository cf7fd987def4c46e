// Package httpapi implements C12: a thin HTTP façade over package
// cashflow's five language-neutral operations, grounded on the teacher's
// own chi-based api package (server.go's router/middleware wiring,
// handlers.go's writeJSON/writeError/ErrorResponse helpers). It decodes a
// minimal JSON envelope — not the external cashflow JSON schema, which
// spec.md §1 explicitly puts out of scope — built around the C11 fixture
// DSL, so a caller posts fixture text rather than a fully structured
// cashflow document.
package httpapi

import (
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amortize"
	"github.com/amfn/engine/caldate"
	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/compress"
)

// ErrorResponse is the structured error envelope every handler returns on
// failure, mirroring the teacher's api.ErrorResponse shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id"`
}

// EvaluateRequest carries the C11 fixture source for a single cashflow.
// If the fixture declares more than one `cashflow` statement, the first
// is used.
type EvaluateRequest struct {
	Fixture string `json:"fixture"`
}

type EvaluateResponse struct {
	TraceID      string        `json:"trace_id"`
	EvaluationID string        `json:"evaluation_id"`
	Elements     []ElementDTO  `json:"elements"`
	Runs         []RunDTO      `json:"runs"`
	Balance      BalanceDTO    `json:"balance"`
}

type ExpandRequest struct {
	Fixture string `json:"fixture"`
}

type ExpandResponse struct {
	TraceID  string       `json:"trace_id"`
	Elements []ElementDTO `json:"elements"`
	Balance  BalanceDTO   `json:"balance"`
}

type CompressRequest struct {
	Fixture string `json:"fixture"`
}

type CompressResponse struct {
	TraceID string   `json:"trace_id"`
	Runs    []RunDTO `json:"runs"`
}

// SolveRequest carries the fixture source (whose events reference
// `@target`) plus the target description.
type SolveRequest struct {
	Fixture string    `json:"fixture"`
	Target  TargetDTO `json:"target"`
}

type TargetDTO struct {
	Field         string `json:"field"`
	StatisticName string `json:"statistic_name,omitempty"`
	CurrentValue  bool   `json:"current_value,omitempty"`
	DesiredValue  string `json:"desired_value"`
	X0            string `json:"x0"`
	X1            string `json:"x1"`
	Lower         string `json:"lower,omitempty"`
	Upper         string `json:"upper,omitempty"`
	LowerSet      bool   `json:"lower_set,omitempty"`
	UpperSet      bool   `json:"upper_set,omitempty"`
	DecimalDigits int32  `json:"decimal_digits"`
}

type SolveResponse struct {
	TraceID    string `json:"trace_id"`
	X          string `json:"x"`
	Residual   string `json:"residual"`
	Iterations int    `json:"iterations"`
}

// ConvertRequest carries a small ad hoc exchange-rate graph (date/from/
// to/rate tuples) plus the conversion to perform, since the fixture DSL
// has no rate-table statement of its own.
type ConvertRequest struct {
	Rates  []RateDTO `json:"rates"`
	Date   string    `json:"date"`
	Amount string    `json:"amount"`
	From   string    `json:"from"`
	To     string    `json:"to"`
}

type RateDTO struct {
	Date string `json:"date"`
	From string `json:"from"`
	To   string `json:"to"`
	Rate string `json:"rate"`
}

type ConvertResponse struct {
	TraceID string `json:"trace_id"`
	Amount  string `json:"amount"`
}

type ElementDTO struct {
	Date           string `json:"date"`
	EventType      int    `json:"event_type"`
	Frequency      string `json:"frequency"`
	PeriodIndex    int    `json:"period_index"`
	Value          string `json:"value"`
	Balance        string `json:"balance"`
	AccruedBalance string `json:"accrued_balance"`
	Interest       string `json:"interest"`
	StatisticName  string `json:"statistic_name,omitempty"`
	Final          bool   `json:"final,omitempty"`
	Present        bool   `json:"present,omitempty"`
}

type RunDTO struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Periods        int    `json:"periods"`
	EventType      int    `json:"event_type"`
	Frequency      string `json:"frequency"`
	Intervals      int    `json:"intervals"`
	PrincipalDelta string `json:"principal_delta"`
	InterestDelta  string `json:"interest_delta"`
}

type BalanceDTO struct {
	FinalBalance           string `json:"final_balance"`
	FinalDate              string `json:"final_date"`
	AccruedBalance         string `json:"accrued_balance"`
	InterestTotal          string `json:"interest_total"`
	SLInterestTotal        string `json:"sl_interest_total"`
	PrincipalTotalIncrease string `json:"principal_total_increase"`
	PrincipalTotalDecrease string `json:"principal_total_decrease"`
	Positive               bool   `json:"positive"`
}

func toElementDTO(e *amortize.Element) ElementDTO {
	return ElementDTO{
		Date:           e.Date.String(),
		EventType:      int(e.EventType),
		Frequency:      string(e.Frequency),
		PeriodIndex:    e.PeriodIndex,
		Value:          e.Value.String(),
		Balance:        e.Balance.String(),
		AccruedBalance: e.AccruedBalance.String(),
		Interest:       e.Interest.String(),
		StatisticName:  e.StatisticName,
		Final:          e.Final,
		Present:        e.Present,
	}
}

func toElementDTOs(elements []*amortize.Element) []ElementDTO {
	out := make([]ElementDTO, len(elements))
	for i, e := range elements {
		out[i] = toElementDTO(e)
	}
	return out
}

func toRunDTO(r compress.Run) RunDTO {
	return RunDTO{
		StartDate:      r.StartDate.String(),
		EndDate:        r.EndDate.String(),
		Periods:        r.Periods,
		EventType:      int(r.EventType),
		Frequency:      string(r.Frequency),
		Intervals:      r.Intervals,
		PrincipalDelta: r.PrincipalDelta.String(),
		InterestDelta:  r.InterestDelta.String(),
	}
}

func toRunDTOs(runs []compress.Run) []RunDTO {
	out := make([]RunDTO, len(runs))
	for i, r := range runs {
		out[i] = toRunDTO(r)
	}
	return out
}

func toBalanceDTO(b amortize.BalanceResult) BalanceDTO {
	return BalanceDTO{
		FinalBalance:           b.FinalBalance.String(),
		FinalDate:              b.FinalDate.String(),
		AccruedBalance:         b.AccruedBalance.String(),
		InterestTotal:          b.InterestTotal.String(),
		SLInterestTotal:        b.SLInterestTotal.String(),
		PrincipalTotalIncrease: b.PrincipalTotalIncrease.String(),
		PrincipalTotalDecrease: b.PrincipalTotalDecrease.String(),
		Positive:               b.Positive,
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toTarget(dto TargetDTO) (cashflow.Target, error) {
	desired, err := parseDecimal(dto.DesiredValue)
	if err != nil {
		return cashflow.Target{}, err
	}
	x0, err := parseDecimal(dto.X0)
	if err != nil {
		return cashflow.Target{}, err
	}
	x1, err := parseDecimal(dto.X1)
	if err != nil {
		return cashflow.Target{}, err
	}
	lower, err := parseDecimal(dto.Lower)
	if err != nil {
		return cashflow.Target{}, err
	}
	upper, err := parseDecimal(dto.Upper)
	if err != nil {
		return cashflow.Target{}, err
	}

	return cashflow.Target{
		Field:         cashflow.TargetField(dto.Field),
		StatisticName: dto.StatisticName,
		CurrentValue:  dto.CurrentValue,
		DesiredValue:  desired,
		X0:            x0,
		X1:            x1,
		Lower:         lower,
		Upper:         upper,
		LowerSet:      dto.LowerSet,
		UpperSet:      dto.UpperSet,
		DecimalDigits: dto.DecimalDigits,
	}, nil
}

func parseRateDate(s string) (caldate.Date, error) {
	return caldate.Parse(s)
}
