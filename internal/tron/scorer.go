package tron

import (
	"strconv"
	"strings"
)

// sunPerTRX converts the chain's smallest unit (sun) to whole TRX.
const sunPerTRX = 1_000_000

// Score converts raw account telemetry into a risk assessment. It is a pure
// function of its input: no I/O, no hidden state, identical telemetry always
// yields an identical assessment. Each satisfied rule adds its points and
// appends its reason; transaction-count and balance tiers are mutually
// exclusive (only the highest matching tier fires).
func Score(address string, payload Telemetry) *Assessment {
	score := 0
	var reasons []string

	txCount := asInt(payload["totalTransactionCount"])
	switch {
	case txCount > 50_000:
		score += 50
		reasons = append(reasons, "Extremely high transaction volume")
	case txCount > 10_000:
		score += 30
		reasons = append(reasons, "High transaction volume")
	case txCount > 1_000:
		score += 15
		reasons = append(reasons, "Active address with many transfers")
	}

	trxBalance := asFloat(payload["balance"]) / sunPerTRX
	switch {
	case trxBalance > 1_000_000:
		score += 25
		reasons = append(reasons, "TRX balance exceeds 1M tokens")
	case trxBalance > 100_000:
		score += 10
		reasons = append(reasons, "TRX balance exceeds 100k tokens")
	}

	tokenCount := 0
	if tokens, ok := payload["trc20token_balances"].([]any); ok {
		tokenCount = len(tokens)
		large := 0
		for _, tok := range tokens {
			if m, ok := tok.(map[string]any); ok && asFloat(m["amount"]) > 100_000 {
				large++
			}
		}
		if large > 0 {
			score += 15
			reasons = append(reasons, "Large holdings in TRC-20 assets")
		}
	}

	if v, ok := payload["allowExchange"].(bool); ok && !v {
		score += 10
		reasons = append(reasons, "Exchange permissions disabled")
	}

	if truthy(payload["witness"]) {
		score += 20
		reasons = append(reasons, "Witness account")
	}

	if truthy(payload["addressTagLogo"]) {
		score += 10
		reasons = append(reasons, "Address is tagged in TronScan")
	}

	recentIn := listLen(payload["transactions_in"])
	recentOut := listLen(payload["transactions_out"])
	if recentIn+recentOut > 20 {
		score += 10
		reasons = append(reasons, "High short-term transaction activity")
	}

	risk := RiskLow
	switch {
	case score >= 60:
		risk = RiskHigh
	case score >= 30:
		risk = RiskMedium
	}

	return &Assessment{
		Address: address,
		Risk:    risk,
		Score:   score,
		Reasons: reasons,
		Stats: map[string]float64{
			"transaction_count": float64(txCount),
			"trx_balance":       trxBalance,
			"recent_in":         float64(recentIn),
			"recent_out":        float64(recentOut),
			"trc20_tokens":      float64(tokenCount),
		},
		Raw: Sanitize(payload),
	}
}

// asInt coerces a JSON value to int; unparseable values count as zero.
func asInt(v any) int {
	return int(asFloat(v))
}

// asFloat coerces a JSON value to float64. The explorer API reports some
// numeric fields as strings; missing or non-numeric values normalize to 0.
func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// truthy mirrors the loose flag semantics of the explorer payload: booleans,
// nonzero numbers, and non-empty strings/lists all count as set.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return false
	}
}

func listLen(v any) int {
	if l, ok := v.([]any); ok {
		return len(l)
	}
	return 0
}
