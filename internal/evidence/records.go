package evidence

import "sort"

// #region checkpoints
// LatestCheckpoint returns the records of experimentID at the greatest
// HoursElapsed, in log order.
func LatestCheckpoint(records []SignalRecord, experimentID string) []SignalRecord {
	latest := -1.0
	for _, r := range records {
		if r.ExperimentID == experimentID && r.HoursElapsed > latest {
			latest = r.HoursElapsed
		}
	}
	if latest < 0 {
		return nil
	}
	var out []SignalRecord
	for _, r := range records {
		if r.ExperimentID == experimentID && r.HoursElapsed == latest {
			out = append(out, r)
		}
	}
	return out
}

// Series returns (hours, value) pairs of one metric for an experiment,
// ordered by hours. A checkpoint with several readings keeps the last one.
func Series(records []SignalRecord, experimentID, metric string) (hours, values []float64) {
	byHour := make(map[float64]float64)
	for _, r := range records {
		if r.ExperimentID == experimentID && r.MetricName == metric {
			byHour[r.HoursElapsed] = r.Value
		}
	}
	hours = make([]float64, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Float64s(hours)
	values = make([]float64, len(hours))
	for i, h := range hours {
		values[i] = byHour[h]
	}
	return hours, values
}

// ResultsFromCheckpoint rebuilds experiment results from one checkpoint's
// readings. Unknown metric names are ignored.
func ResultsFromCheckpoint(records []SignalRecord) ExperimentResults {
	var r ExperimentResults
	for _, rec := range records {
		v := rec.Value
		switch rec.MetricName {
		case "spend":
			r.Spend = &v
		case "impressions":
			r.Impressions = &v
		case "clicks":
			r.Clicks = &v
		case "messages_received":
			r.MessagesReceived = &v
		case "orders":
			r.Orders = &v
		case "orders_placed":
			r.OrdersPlaced = &v
		case "orders_delivered":
			r.OrdersDelivered = &v
		case "orders_canceled":
			r.OrdersCanceled = &v
		case "cpa":
			r.CPA = &v
		case "ctr":
			r.CTR = &v
		case "message_to_order_rate":
			r.MessageToOrderRate = &v
		case "cancel_rate":
			r.CancelRate = &v
		}
	}
	return r
}

// #endregion checkpoints

// #region decisions
// LatestDecision returns the last decision recorded for experimentID.
func LatestDecision(decisions []DecisionRecord, experimentID string) (DecisionRecord, bool) {
	for i := len(decisions) - 1; i >= 0; i-- {
		if decisions[i].ExperimentID == experimentID {
			return decisions[i], true
		}
	}
	return DecisionRecord{}, false
}

// EffectiveResults returns the experiment's recorded results, or the latest
// signal checkpoint when none were recorded on the experiment itself.
func EffectiveResults(exp ExperimentRecord, signals []SignalRecord) ExperimentResults {
	if !exp.Results.Empty() {
		return exp.Results
	}
	return ResultsFromCheckpoint(LatestCheckpoint(signals, exp.ID))
}

// #endregion decisions
