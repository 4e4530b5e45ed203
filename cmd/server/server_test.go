package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/logger"
	"github.com/Simplici0/pouchquote/internal/metrics"
	"github.com/Simplici0/pouchquote/internal/pricing"
)

type testEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiErrorBody   `json:"error"`
}

func newTestServer(t *testing.T, opts pricing.Options) (http.Handler, *prometheus.Registry) {
	t.Helper()

	engine, err := pricing.NewEngine(pricing.DefaultRateCard(), catalog.Default(), opts)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	srv := &server{
		logger:        logger.Nop(),
		metrics:       metrics.NewQuoteMetrics(reg),
		defaultFXRate: 7.2,
	}
	srv.engine.Store(engine)
	return srv.routes(reg), reg
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

const standUpPET = `{
	"bag": {"type": "stand_up", "width": 190, "height": 300, "bottom_insert": 40},
	"layers": [{"material": "pet-12"}],
	"quantity": 30000
}`

func TestQuoteStandUpSingleLayer(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	rr := postJSON(t, h, "/quotes", standUpPET)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	env := decodeEnvelope(t, rr)
	var q quoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &q))

	assert.Equal(t, "stand_up", q.BagType)
	assert.Equal(t, "CNY", q.Currency)
	assert.Equal(t, "per_layer", q.PrintMode)
	assert.Equal(t, "amortized", q.FixedCostMode)
	assert.True(t, decimal.RequireFromString("0.1292").Equal(q.Breakdown.AreaM2), "area %s", q.Breakdown.AreaM2)
	assert.True(t, decimal.RequireFromString("0.0174").Equal(q.Breakdown.MaterialCost), "material %s", q.Breakdown.MaterialCost)
	assert.True(t, decimal.NewFromInt(1).Equal(q.Totals.Discount), "discount %s", q.Totals.Discount)
	assert.Empty(t, q.Joins)
	assert.Len(t, q.Passes, 1)
	require.Len(t, q.Breakdown.Layers, 1)
	assert.Equal(t, "film", q.Breakdown.Layers[0].Kind)
}

func TestQuoteAppliesDefaultStack(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	rr := postJSON(t, h, "/quotes", `{
		"bag": {"type": "three_side_seal", "width": 100, "height": 150, "rows": "double"},
		"quantity": 10000
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q quoteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &q))

	require.Len(t, q.Breakdown.Layers, 3)
	require.Len(t, q.Joins, 2)
	assert.Equal(t, "dry", q.Joins[0].Method)
	assert.Equal(t, "solvent_free", q.Joins[1].Method)
	assert.True(t, decimal.RequireFromString("7.2").Equal(q.FXRate))
	assert.True(t, q.Totals.OrderTotalFX.IsPositive())
	assert.True(t, decimal.RequireFromString("1.3").Equal(q.Totals.Discount))
}

func TestQuoteInchInputMatchesMillimetres(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	mm := postJSON(t, h, "/quotes", `{
		"bag": {"type": "center_seal", "width": 254, "height": 508, "back_seam": 25.4},
		"layers": [{"material": "bopp-20"}],
		"add_ons": {"foil_area": 645.16},
		"quantity": 50000
	}`)
	in := postJSON(t, h, "/quotes", `{
		"bag": {"type": "center_seal", "unit": "inch", "width": 10, "height": 20, "back_seam": 1},
		"layers": [{"material": "bopp-20"}],
		"add_ons": {"foil_area": 1},
		"quantity": 50000
	}`)
	require.Equal(t, http.StatusOK, mm.Code, mm.Body.String())
	require.Equal(t, http.StatusOK, in.Code, in.Body.String())

	var qmm, qin quoteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, mm).Data, &qmm))
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, in).Data, &qin))
	assert.True(t, qmm.Totals.UnitTotal.Equal(qin.Totals.UnitTotal), "mm=%s inch=%s", qmm.Totals.UnitTotal, qin.Totals.UnitTotal)
	assert.True(t, qmm.Breakdown.AddOnCost.Equal(qin.Breakdown.AddOnCost), "mm=%s inch=%s", qmm.Breakdown.AddOnCost, qin.Breakdown.AddOnCost)
	assert.True(t, qin.Breakdown.AddOnCost.IsPositive())
}

func TestQuoteLumpSumMode(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{FixedCostMode: pricing.FixedLumpSum})

	rr := postJSON(t, h, "/quotes", standUpPET)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q quoteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &q))
	assert.Equal(t, "lump_sum", q.FixedCostMode)
	assert.True(t, q.Breakdown.SetupPerUnit.IsZero())
	assert.True(t, q.Breakdown.PlatePerUnit.IsZero())
	assert.True(t, q.Totals.SetupTotal.IsPositive())
}

func TestQuoteRejectsInvalidInput(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "missing bag type",
			body:  `{"bag": {"width": 100, "height": 100}, "quantity": 1000}`,
			field: "bag.type",
		},
		{
			name:  "zero quantity",
			body:  `{"bag": {"type": "gusset", "width": 100, "height": 100, "back_seam": 10, "side_gusset": 30}, "quantity": 0}`,
			field: "quantity",
		},
		{
			name:  "negative width",
			body:  `{"bag": {"type": "gusset", "width": -1, "height": 100, "back_seam": 10, "side_gusset": 30}, "quantity": 10}`,
			field: "bag.width",
		},
		{
			name:  "missing width",
			body:  `{"bag": {"type": "three_side_seal", "height": 100, "rows": "single"}, "quantity": 10}`,
			field: "bag.width",
		},
		{
			name:  "zero height",
			body:  `{"bag": {"type": "three_side_seal", "width": 100, "height": 0, "rows": "single"}, "quantity": 10}`,
			field: "bag.height",
		},
		{
			name:  "too many layers",
			body:  `{"bag": {"type": "three_side_seal", "width": 100, "height": 100, "rows": "single"}, "layers": [{"material":"pet-12"},{"material":"pet-12"},{"material":"pet-12"},{"material":"pet-12"},{"material":"pet-12"}], "quantity": 10}`,
			field: "layers",
		},
		{
			name:  "layer without material",
			body:  `{"bag": {"type": "three_side_seal", "width": 100, "height": 100, "rows": "single"}, "layers": [{}], "quantity": 10}`,
			field: "layers[0].material",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h, "/quotes", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			env := decodeEnvelope(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, codeValidation, env.Error.Code)
			details, ok := env.Error.Details.(map[string]any)
			require.True(t, ok, "details: %#v", env.Error.Details)
			assert.Contains(t, details, tc.field)
		})
	}
}

func TestQuoteRejectsDomainErrors(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	cases := map[string]string{
		"unknown bag type":   `{"bag": {"type": "box", "width": 100, "height": 100}, "quantity": 10}`,
		"missing rows":       `{"bag": {"type": "three_side_seal", "width": 100, "height": 100}, "quantity": 10}`,
		"missing back seam":  `{"bag": {"type": "center_seal", "width": 100, "height": 100}, "quantity": 10}`,
		"easy tear stand up": `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30, "zipper": "easy_tear"}, "quantity": 10}`,
		"unknown unit":       `{"bag": {"type": "stand_up", "unit": "cubit", "width": 1, "height": 1, "bottom_insert": 1}, "quantity": 10}`,
		"unknown material":   `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30}, "layers": [{"material": "gold-leaf"}], "quantity": 10}`,
		"unknown coverage":   `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30}, "coverages": [75], "quantity": 10}`,
		"unknown lamination": `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30}, "joins": ["glue"], "quantity": 10}`,
		"unknown field":      `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30}, "quantity": 10, "colour": 3}`,
		"velcro three side":  `{"bag": {"type": "three_side_seal", "width": 100, "height": 100, "rows": "single", "zipper": "velcro"}, "quantity": 10}`,
		"quad rows stand up": `{"bag": {"type": "stand_up", "width": 100, "height": 100, "bottom_insert": 30, "rows": "quad"}, "quantity": 10}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := postJSON(t, h, "/quotes", body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			env := decodeEnvelope(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, codeValidation, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestQuoteCustomLayer(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	rr := postJSON(t, h, "/quotes", `{
		"bag": {"type": "eight_side_seal", "width": 120, "height": 200, "bottom_insert": 60, "side_gusset": 40, "zipper": "easy_tear"},
		"layers": [
			{"custom": {"name": "recycled kraft", "kind": "paper", "grammage_g_per_m2": 70, "price_per_kg": 6.5}},
			{"material": "pe-50", "thickness_microns": 70}
		],
		"quantity": 100000
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var q quoteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &q))
	require.Len(t, q.Breakdown.Layers, 2)
	assert.Equal(t, "recycled kraft", q.Breakdown.Layers[0].Name)
	assert.Equal(t, "paper", q.Breakdown.Layers[0].Kind)
	assert.True(t, decimal.RequireFromString("0.96").Equal(q.Totals.Discount))
}

func TestQuoteTextSummary(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	rr := postJSON(t, h, "/quotes/text", standUpPET)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	body := rr.Body.String()
	for _, expected := range []string{"Bag: stand_up", "Quantity: 30000", "Material: 0.0174 CNY", "Unit price:", "Total:"} {
		assert.True(t, strings.Contains(body, expected), "expected body to contain %q, got: %s", expected, body)
	}
}

func TestMaterialsAndRates(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{PrintMode: pricing.PrintSinglePass})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/materials", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var materials []materialResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &materials))
	require.Len(t, materials, len(catalog.DefaultPresets()))
	for _, m := range materials {
		if m.ID == "cpp-25" {
			assert.True(t, m.ThicknessAdjustable)
		}
		if m.ID == "pet-12" {
			assert.False(t, m.ThicknessAdjustable)
		}
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rates", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var rates ratesResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &rates))
	assert.Equal(t, "single_pass", rates.PrintMode)
	assert.Equal(t, pricing.DefaultRateCard(), rates.Rates)
}

func TestHealthzAndRequestID(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-123", rr.Header().Get(requestIDHeader))
}

func TestMetricsEndpointCountsQuotes(t *testing.T) {
	h, _ := newTestServer(t, pricing.Options{})

	require.Equal(t, http.StatusOK, postJSON(t, h, "/quotes", standUpPET).Code)
	require.Equal(t, http.StatusBadRequest, postJSON(t, h, "/quotes", `{"bag": {"type": "box"}, "quantity": 1}`).Code)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `quotes_total{bag_type="stand_up",outcome="ok"} 1`)
	assert.Contains(t, body, `quotes_total{bag_type="unknown",outcome="rejected"} 1`)
	assert.Contains(t, body, `quote_unit_price_cny_count{bag_type="stand_up"} 1`)
}
