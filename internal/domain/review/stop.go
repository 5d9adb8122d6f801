package review

import (
	"fmt"
	"strings"
)

// StopRule decides, after a batch is appended, whether the review is done.
type StopRule interface {
	Name() string
	Done(p Progress, isLabeled func(id int) bool) bool
}

type allRelevant struct{ ids []int }

// AllRelevantFound stops once every id in ids is labeled. An empty ids would
// be satisfied before any work is done, so it returns ErrNoRelevantRecords.
func AllRelevantFound(ids []int) (StopRule, error) {
	if len(ids) == 0 {
		return nil, ErrNoRelevantRecords
	}
	return allRelevant{ids: append([]int(nil), ids...)}, nil
}

func (r allRelevant) Name() string { return "all_relevant" }

func (r allRelevant) Done(_ Progress, isLabeled func(int) bool) bool {
	for _, id := range r.ids {
		if !isLabeled(id) {
			return false
		}
	}
	return true
}

type maxLabeled int

// MaxLabeled stops once n records were labeled after the priors.
func MaxLabeled(n int) StopRule { return maxLabeled(n) }

func (r maxLabeled) Name() string { return fmt.Sprintf("max_labeled(%d)", int(r)) }

func (r maxLabeled) Done(p Progress, _ func(int) bool) bool { return p.NonPrior >= int(r) }

type maxCycles int

// MaxCycles stops after n cycles.
func MaxCycles(n int) StopRule { return maxCycles(n) }

func (r maxCycles) Name() string { return fmt.Sprintf("max_cycles(%d)", int(r)) }

func (r maxCycles) Done(p Progress, _ func(int) bool) bool { return p.Cycle >= int(r) }

type exhausted struct{}

// Exhausted stops when no unlabeled record is left.
func Exhausted() StopRule { return exhausted{} }

func (exhausted) Name() string { return "exhaust" }

func (exhausted) Done(p Progress, _ func(int) bool) bool { return p.Unlabeled == 0 }

type anyRule []StopRule

// Any stops as soon as one of rules does.
func Any(rules ...StopRule) StopRule {
	if len(rules) == 1 {
		return rules[0]
	}
	return anyRule(rules)
}

func (r anyRule) Name() string {
	names := make([]string, len(r))
	for i, rule := range r {
		names[i] = rule.Name()
	}
	return "any(" + strings.Join(names, ",") + ")"
}

func (r anyRule) Done(p Progress, isLabeled func(int) bool) bool {
	for _, rule := range r {
		if rule.Done(p, isLabeled) {
			return true
		}
	}
	return false
}
