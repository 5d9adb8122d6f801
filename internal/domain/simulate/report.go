package simulate

import (
	"fmt"
	"math"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/review"
	"github.com/okian/alscreen/internal/domain/state"
)

// rrfShare is the share of the pool read for RRF.
const rrfShare = 0.10

// Point is one step of the recall curve.
type Point struct {
	Read  int `json:"read"`
	Found int `json:"found"`
}

// Report holds screening metrics over the non-prior part of a review.
// Priors are excluded from the pool and from the relevant count. WSS values
// are nil when the review stopped before reaching that recall.
type Report struct {
	Records  int `json:"records"`
	Pool     int `json:"pool"`
	Relevant int `json:"relevant"`
	Priors   int `json:"priors"`
	Cycles   int `json:"cycles"`
	Read     int `json:"records_read"`
	Found    int `json:"relevant_found"`

	Recall []Point  `json:"recall_curve"`
	WSS95  *float64 `json:"wss_95,omitempty"`
	WSS100 *float64 `json:"wss_100,omitempty"`
	RRF10  float64  `json:"rrf_10"`
	ATD    float64  `json:"average_time_to_discovery"`
}

// RecallAt returns the recall reached after reading n pool records.
func (r Report) RecallAt(n int) float64 {
	if r.Relevant == 0 || n <= 0 || len(r.Recall) == 0 {
		return 0
	}
	if n > len(r.Recall) {
		n = len(r.Recall)
	}
	return float64(r.Recall[n-1].Found) / float64(r.Relevant)
}

// Evaluate computes the report of st, using the ground truth of c for the
// number of relevant records.
func Evaluate(st *state.State, c *corpus.Corpus) (Report, error) {
	if !c.Matches(st.Corpus()) {
		return Report{}, review.ErrCorpusMismatch
	}
	if !c.HasTruth() {
		return Report{}, fmt.Errorf("%w: corpus %q is not fully labeled", ErrNoGroundTruth, c.Name())
	}

	priors := st.Priors()
	priorRelevant := 0
	for _, ev := range priors {
		if ev.Label == model.Relevant {
			priorRelevant++
		}
	}
	rep := Report{
		Records:  c.Len(),
		Pool:     c.Len() - len(priors),
		Relevant: len(c.WithTruth(model.Relevant)) - priorRelevant,
		Priors:   len(priors),
		Cycles:   st.Cycle(),
	}

	events := st.Events()[len(priors):]
	rep.Recall = make([]Point, 0, len(events))
	var discovery int
	for i, ev := range events {
		if ev.Label == model.Relevant {
			rep.Found++
			discovery += i + 1
		}
		rep.Recall = append(rep.Recall, Point{Read: i + 1, Found: rep.Found})
	}
	rep.Read = len(events)
	if rep.Found > 0 {
		rep.ATD = float64(discovery) / float64(rep.Found)
	}
	if rep.Relevant == 0 || rep.Pool == 0 {
		return rep, nil
	}

	rep.WSS95 = rep.wss(0.95)
	rep.WSS100 = rep.wss(1)
	rep.RRF10 = rep.RecallAt(int(math.Ceil(rrfShare * float64(rep.Pool))))
	return rep, nil
}

// wss returns the work saved over sampling at recall level, nil if the
// level was never reached.
func (r Report) wss(level float64) *float64 {
	need := int(math.Ceil(level*float64(r.Relevant) - 1e-9))
	for _, p := range r.Recall {
		if p.Found >= need {
			v := (1 - float64(p.Read)/float64(r.Pool)) - (1 - level)
			return &v
		}
	}
	return nil
}
