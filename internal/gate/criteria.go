package gate

import (
	"regexp"
	"strings"

	"github.com/phousanysw11-oss/pmf-machine-sub000/internal/evidence"
)

// #region matcher-interface

// CriteriaMatcher compares results with an experiment's success and failure
// criteria. The keyword heuristic can be swapped for a structured format
// without touching gates or recommendations.
type CriteriaMatcher interface {
	Match(criteria evidence.Criteria, results evidence.ExperimentResults) CriteriaVerdict
}

// #endregion matcher-interface

// #region keyword-matcher

var (
	digitPattern      = regexp.MustCompile(`\d`)
	zeroOrdersPattern = regexp.MustCompile(`\bzero orders\b|(?:^|[^\d.])0 orders\b`)
)

// KeywordMatcher is the free-text heuristic: keywords in the criteria select
// which numeric check decides whether the text is satisfied.
type KeywordMatcher struct {
	config GateConfig
}

// NewKeywordMatcher uses the gate thresholds for its numeric checks.
func NewKeywordMatcher(config GateConfig) *KeywordMatcher {
	return &KeywordMatcher{config: config}
}

// Match returns SUCCESS, FAILURE, CONTRADICTORY when both texts are
// satisfied, or AMBIGUOUS when neither is (or there is no text at all).
func (k *KeywordMatcher) Match(criteria evidence.Criteria, results evidence.ExperimentResults) CriteriaVerdict {
	success := strings.ToLower(strings.TrimSpace(criteria.Success))
	failure := strings.ToLower(strings.TrimSpace(criteria.Failure))
	if success == "" && failure == "" {
		return CriteriaAmbiguous
	}

	successMet := success != "" && k.successSatisfied(success, results)
	failureMet := failure != "" && k.failureSatisfied(failure, results)

	switch {
	case successMet && failureMet:
		return CriteriaContradictory
	case successMet:
		return CriteriaSuccess
	case failureMet:
		return CriteriaFailure
	default:
		return CriteriaAmbiguous
	}
}

func (k *KeywordMatcher) successSatisfied(text string, r evidence.ExperimentResults) bool {
	if strings.Contains(text, "orders") && digitPattern.MatchString(text) && r.OrderCount() >= k.config.MinOrders {
		return true
	}
	if (strings.Contains(text, "cpa") || strings.Contains(text, "cost per")) && r.ResolvedCPA().AtMost(k.config.MaxCPA) {
		return true
	}
	if (strings.Contains(text, "ctr") || strings.Contains(text, "click")) && r.ResolvedCTR() >= k.config.MinCTRPct {
		return true
	}
	if (strings.Contains(text, "message") || strings.Contains(text, "conversion")) &&
		r.ResolvedMessageToOrderRate()*100 >= k.config.MinMessageToOrderPct {
		return true
	}
	return false
}

func (k *KeywordMatcher) failureSatisfied(text string, r evidence.ExperimentResults) bool {
	return zeroOrdersPattern.MatchString(text) && r.OrderCount() == 0
}

// #endregion keyword-matcher
