package tron

import (
	"reflect"
	"testing"
)

func TestScoreEmptyTelemetry(t *testing.T) {
	a := Score("TAddr", Telemetry{})
	if a.Score != 0 {
		t.Fatalf("expected score 0, got %d", a.Score)
	}
	if a.Risk != RiskLow {
		t.Fatalf("expected low risk, got %s", a.Risk)
	}
	if len(a.Reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", a.Reasons)
	}
}

func TestScoreMidTierAccount(t *testing.T) {
	payload := Telemetry{
		"totalTransactionCount": float64(1200),
		"balance":               "250000000000",
		"transactions_in":       make([]any, 5),
		"transactions_out":      make([]any, 10),
		"trc20token_balances": []any{
			map[string]any{"amount": float64(150000)},
		},
	}

	a := Score("TXYZ", payload)
	if a.Score != 40 {
		t.Fatalf("expected score 40, got %d (%v)", a.Score, a.Reasons)
	}
	if a.Risk != RiskMedium {
		t.Fatalf("expected medium risk, got %s", a.Risk)
	}
	if a.Stats["transaction_count"] != 1200 {
		t.Fatalf("expected transaction_count 1200, got %v", a.Stats["transaction_count"])
	}
	if a.Stats["trx_balance"] != 250000 {
		t.Fatalf("expected trx_balance 250000, got %v", a.Stats["trx_balance"])
	}
}

func TestScoreTransactionTiersAreExclusive(t *testing.T) {
	a := Score("T", Telemetry{"totalTransactionCount": float64(60000)})
	if a.Score != 50 {
		t.Fatalf("expected only the top tier to fire, got score %d", a.Score)
	}
}

func TestScoreHighRiskAccount(t *testing.T) {
	payload := Telemetry{
		"totalTransactionCount": float64(60000),
		"balance":               float64(2_000_000 * sunPerTRX),
		"witness":               true,
	}

	a := Score("T", payload)
	if a.Score != 95 {
		t.Fatalf("expected score 95, got %d (%v)", a.Score, a.Reasons)
	}
	if a.Risk != RiskHigh {
		t.Fatalf("expected high risk, got %s", a.Risk)
	}
}

func TestScoreFlagRules(t *testing.T) {
	a := Score("T", Telemetry{
		"allowExchange":  false,
		"addressTagLogo": "https://example.com/logo.png",
	})
	if a.Score != 20 {
		t.Fatalf("expected score 20, got %d (%v)", a.Score, a.Reasons)
	}

	// allowExchange present and true must not add points.
	a = Score("T", Telemetry{"allowExchange": true})
	if a.Score != 0 {
		t.Fatalf("allowExchange=true scored %d, want 0", a.Score)
	}
}

func TestScoreRecentActivity(t *testing.T) {
	a := Score("T", Telemetry{
		"transactions_in":  make([]any, 11),
		"transactions_out": make([]any, 10),
	})
	if a.Score != 10 {
		t.Fatalf("expected score 10, got %d", a.Score)
	}
	if a.Stats["recent_in"] != 11 || a.Stats["recent_out"] != 10 {
		t.Fatalf("unexpected stats: %v", a.Stats)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	payload := Telemetry{
		"totalTransactionCount": float64(12000),
		"balance":               float64(500_000 * sunPerTRX),
		"witness":               float64(1),
	}
	first := Score("T", payload)
	second := Score("T", payload)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scoring is not deterministic: %v vs %v", first, second)
	}
}

func TestAsFloatCoercions(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{float64(3.5), 3.5},
		{int(7), 7},
		{int64(9), 9},
		{" 42 ", 42},
		{"not a number", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := asFloat(tc.in); got != tc.want {
			t.Errorf("asFloat(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
