package signals

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region derive

// Derive computes ctr, cpa, message-to-order rate and cancel rate.
func Derive(raw RawCounters) Metrics {
	m := Metrics{CPA: evidence.Undefined()}

	if raw.Impressions > 0 {
		m.CTR = round(raw.Clicks/raw.Impressions*100, 2)
	}
	if raw.OrdersPlaced > 0 {
		m.CPA = evidence.Defined(round(raw.Spend/raw.OrdersPlaced, 2))
	}
	if raw.MessagesReceived > 0 {
		m.MessageToOrderRate = round(raw.OrdersPlaced/raw.MessagesReceived, 3)
	}

	placedForCancel := raw.OrdersPlaced
	if placedForCancel == 0 {
		placedForCancel = raw.OrdersDelivered + raw.OrdersCanceled
	}
	if placedForCancel == 0 {
		placedForCancel = 1
	}
	m.CancelRate = round(raw.OrdersCanceled/placedForCancel*100, 2)

	return m
}

// #endregion derive

// #region counters-from-map

// RawCountersFromMap reads counters from a loosely typed payload. Absent or
// non-numeric values count as 0.
func RawCountersFromMap(in map[string]any) RawCounters {
	return RawCounters{
		Spend:            numeric(in["spend"]),
		HoursElapsed:     numeric(in["hours_elapsed"]),
		Impressions:      numeric(in["impressions"]),
		Clicks:           numeric(in["clicks"]),
		MessagesReceived: numeric(in["messages_received"]),
		OrdersPlaced:     numeric(in["orders_placed"]),
		OrdersDelivered:  numeric(in["orders_delivered"]),
		OrdersCanceled:   numeric(in["orders_canceled"]),
	}
}

// RawCountersFromCheckpoint builds counters from one checkpoint's readings.
func RawCountersFromCheckpoint(records []evidence.SignalRecord) RawCounters {
	in := make(map[string]any, len(records)+1)
	for _, r := range records {
		in[r.MetricName] = r.Value
		in["hours_elapsed"] = r.HoursElapsed
	}
	return RawCountersFromMap(in)
}

// #endregion counters-from-map

// #region helpers

func numeric(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// #endregion helpers
