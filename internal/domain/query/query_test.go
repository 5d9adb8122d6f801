package query_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/okian/alscreen/internal/domain/query"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMax(t *testing.T) {
	Convey("Given the max strategy", t, func() {
		ctx := context.Background()
		q := query.NewMax()
		candidates := []int{10, 11, 12, 13}
		scores := []float64{0.2, 0.9, 0.5, 0.7}

		Convey("When selecting with scores", func() {
			got, err := q.Select(ctx, candidates, scores, 1, 3)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []int{11, 13, 12})
		})

		Convey("When n exceeds the candidates", func() {
			got, err := q.Select(ctx, candidates, scores, 1, 10)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 4)
		})

		Convey("When scores tie", func() {
			tied := []float64{0.5, 0.5, 0.5, 0.5}
			a, _ := q.Select(ctx, candidates, tied, 3, 4)
			b, _ := q.Select(ctx, candidates, tied, 3, 4)

			Convey("Then the order should depend only on the seed", func() {
				So(a, ShouldResemble, b)
				sorted := append([]int(nil), a...)
				sort.Ints(sorted)
				So(sorted, ShouldResemble, candidates)
			})
		})

		Convey("When no model is trained", func() {
			a, err := q.Select(ctx, candidates, nil, 9, 2)
			So(err, ShouldBeNil)
			b, _ := query.NewRandom().Select(ctx, candidates, nil, 9, 2)
			So(a, ShouldResemble, b)
		})

		Convey("When scores do not match candidates", func() {
			_, err := q.Select(ctx, candidates, []float64{1}, 1, 1)
			So(errors.Is(err, query.ErrShapeMismatch), ShouldBeTrue)

			_, err = q.Select(ctx, candidates, scores, 1, -1)
			So(errors.Is(err, query.ErrInvalidBatchSize), ShouldBeTrue)
		})
	})
}

func TestRandom(t *testing.T) {
	Convey("Given the random strategy", t, func() {
		ctx := context.Background()
		candidates := []int{1, 2, 3, 4, 5, 6, 7, 8}
		a, err := query.NewRandom().Select(ctx, candidates, nil, 42, 8)
		So(err, ShouldBeNil)
		b, _ := query.NewRandom().Select(ctx, candidates, nil, 42, 8)
		So(a, ShouldResemble, b)

		sorted := append([]int(nil), a...)
		sort.Ints(sorted)
		So(sorted, ShouldResemble, candidates)
	})
}

func TestUncertainty(t *testing.T) {
	Convey("Given the uncertainty strategy", t, func() {
		got, err := query.NewUncertainty().Select(context.Background(),
			[]int{1, 2, 3}, []float64{0.99, 0.48, 0.1}, 0, 2)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, []int{2, 3})
	})
}

func TestMaxRandom(t *testing.T) {
	Convey("Given the max_random strategy", t, func() {
		ctx := context.Background()
		candidates := make([]int, 20)
		scores := make([]float64, 20)
		for i := range candidates {
			candidates[i] = i
			scores[i] = float64(i) / 20
		}

		Convey("When the ratio is one", func() {
			got, _ := query.NewMaxRandom(query.WithMixRatio(1)).Select(ctx, candidates, scores, 1, 3)
			So(got, ShouldResemble, []int{19, 18, 17})
		})

		Convey("When half the batch is random", func() {
			got, err := query.NewMaxRandom(query.WithMixRatio(0.5)).Select(ctx, candidates, scores, 1, 4)

			Convey("Then the top half is by score and the rest distinct", func() {
				So(err, ShouldBeNil)
				So(got[:2], ShouldResemble, []int{19, 18})
				seen := map[int]bool{}
				for _, id := range got {
					So(seen[id], ShouldBeFalse)
					seen[id] = true
				}
				So(got[2], ShouldBeLessThan, 18)
				So(got[3], ShouldBeLessThan, 18)
			})
		})

		Convey("When the default ratio rounds to a full max batch", func() {
			got, _ := query.NewMaxRandom().Select(ctx, candidates, scores, 1, 1)
			So(got, ShouldResemble, []int{19})
		})
	})
}
