package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/amfn/engine/prefs"
)

func newTestRouter() http.Handler {
	return NewRouter(NewHandler(prefs.Default()))
}

const twoPaymentFixture = `
cashflow "two payment loan" currency USD

event principal 2020-01-01 positive amount 1000.00 principal-first
event interest  2020-01-01 rate 12% basis periodic
event principal 2020-02-01 decrease amount 200.00
event principal 2020-03-01 decrease amount 200.00
`

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEndpointReturnsElementsAndBalance(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/v1/evaluate", EvaluateRequest{Fixture: twoPaymentFixture})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp EvaluateResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, len(resp.Elements))
	assert.Equal(t, "618.10", resp.Balance.FinalBalance)
	assert.True(t, len(resp.EvaluationID) > 0)
}

func TestExpandEndpointReturnsElements(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/v1/expand", ExpandRequest{Fixture: twoPaymentFixture})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ExpandResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, len(resp.Elements))
}

func TestCompressEndpointReturnsRuns(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/v1/compress", CompressRequest{Fixture: twoPaymentFixture})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CompressResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, len(resp.Runs) > 0)
}

func TestEvaluateEndpointRejectsMalformedFixture(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/v1/evaluate", EvaluateRequest{Fixture: "not a fixture"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, len(resp.TraceID) > 0)
}

func TestSolveEndpointConverges(t *testing.T) {
	router := newTestRouter()
	fixtureSrc := `
cashflow "solve for payment"

event principal 2020-01-01 positive amount 1000 principal-first
event principal 2020-02-01 decrease amount @target freq 1-month periods 2
event current-value 2020-03-01 sort-order 1
`
	rec := postJSON(t, router, "/v1/solve", SolveRequest{
		Fixture: fixtureSrc,
		Target: TargetDTO{
			Field:         "value",
			CurrentValue:  true,
			DesiredValue:  "0",
			X0:            "0",
			X1:            "600",
			DecimalDigits: 6,
		},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp SolveResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, len(resp.X) > 0)
}

func TestConvertEndpointAppliesTransitiveRate(t *testing.T) {
	router := newTestRouter()
	rec := postJSON(t, router, "/v1/convert", ConvertRequest{
		Rates: []RateDTO{
			{Date: "2024-01-01", From: "USD", To: "EUR", Rate: "0.9"},
			{Date: "2024-01-01", From: "EUR", To: "JPY", Rate: "150"},
		},
		Date:   "2024-01-01",
		Amount: "10",
		From:   "USD",
		To:     "JPY",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	amount, err := decimal.NewFromString(resp.Amount)
	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1350).Equal(amount))
}
