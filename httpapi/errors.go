package httpapi

import (
	"errors"
	"net/http"

	"github.com/amfn/engine/amfnerr"
)

// statusForKind maps a closed amfnerr.Kind identifier to an HTTP status,
// matching spec.md §7's direction that the façade map kind to status
// without string-matching on Error(). Kinds rooted in malformed input
// (schema, expression parse/type, frequency, date, day-count problems)
// map to 400; kinds that only surface once evaluation is underway and the
// model itself cannot proceed (unresolved symbols, arithmetic or
// recursion failures, ordering conflicts, out-of-range rates, overflow,
// unreachable targets, no-convergence, no exchange rate) map to 422.
func statusForKind(k amfnerr.Kind) int {
	switch k {
	case amfnerr.KindSchemaInvalid,
		amfnerr.KindExprParse,
		amfnerr.KindExprTypeError,
		amfnerr.KindFrequencyInvalid,
		amfnerr.KindDateInvalid,
		amfnerr.KindDayCountUnsupported:
		return http.StatusBadRequest
	case amfnerr.KindExprUnresolved,
		amfnerr.KindExprArithError,
		amfnerr.KindExprRecursion,
		amfnerr.KindEventOrderingConflict,
		amfnerr.KindInterestRateOutOfRange,
		amfnerr.KindBalanceOverflow,
		amfnerr.KindSolverNoConvergence,
		amfnerr.KindSolverTargetUnreachable,
		amfnerr.KindNoExchangeRate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// statusForError inspects err for an *amfnerr.Error via errors.As and
// derives an HTTP status from its kind; any other error (fixture parse
// failure, malformed JSON, etc.) is treated as a 400.
func statusForError(err error) (int, string) {
	var amfnErr *amfnerr.Error
	if errors.As(err, &amfnErr) {
		return statusForKind(amfnerr.Kind(amfnErr.Kind())), amfnErr.Kind()
	}
	return http.StatusBadRequest, ""
}
