package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestRecordCorrection(t *testing.T) {
	rm := NewRosterMetrics()

	rm.RecordCorrection("frostpike")
	rm.RecordCorrection("frostpike")
	rm.RecordCorrection("harborwolves")

	if got := testutil.ToFloat64(rm.CorrectionsTotal.WithLabelValues("frostpike")); got != 2 {
		t.Errorf("frostpike corrections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rm.CorrectionsTotal.WithLabelValues("harborwolves")); got != 1 {
		t.Errorf("harborwolves corrections = %v, want 1", got)
	}
}

func TestRecordRequest(t *testing.T) {
	rm := NewRosterMetrics()

	rm.RecordRequest("POST", "/api/lines/generate", "200", 0.03)
	rm.RecordRequest("POST", "/api/lines/generate", "200", 0.05)
	rm.RecordRequest("GET", "/api/roster", "404", 0.001)

	if got := testutil.ToFloat64(rm.RequestsTotal.WithLabelValues("POST", "/api/lines/generate", "200")); got != 2 {
		t.Errorf("generate requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rm.RequestsTotal.WithLabelValues("GET", "/api/roster", "404")); got != 1 {
		t.Errorf("roster 404s = %v, want 1", got)
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() must hand back the same instance")
	}
}

func TestDecimalToFloat64(t *testing.T) {
	if got := DecimalToFloat64(decimal.NewFromFloat(7.5)); got != 7.5 {
		t.Errorf("DecimalToFloat64(7.5) = %v", got)
	}
}
