package balance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/alscreen/internal/domain/balance"
	"github.com/okian/alscreen/internal/domain/feature"
	"github.com/okian/alscreen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rows(n int) feature.Matrix {
	m := feature.Matrix{Rows: make([]feature.Vector, n), Dim: 1}
	for i := range m.Rows {
		m.Rows[i] = feature.Dense([]float64{float64(i)})
	}
	return m
}

func labels(rel, irr int) []model.Label {
	y := make([]model.Label, 0, rel+irr)
	for i := 0; i < irr; i++ {
		y = append(y, model.Irrelevant)
	}
	for i := 0; i < rel; i++ {
		y = append(y, model.Relevant)
	}
	return y
}

func TestSimple(t *testing.T) {
	Convey("Given the simple strategy", t, func() {
		s, err := balance.NewSimple().Rebalance(context.Background(), rows(3), labels(1, 2), 1)
		So(err, ShouldBeNil)
		So(s.Indices, ShouldResemble, []int{0, 1, 2})
		So(s.Weights, ShouldResemble, []float64{1, 1, 1})
	})
}

func TestWeighted(t *testing.T) {
	Convey("Given the weighted strategy", t, func() {
		y := labels(1, 3)
		s, err := balance.NewWeighted().Rebalance(context.Background(), rows(4), y, 1)

		Convey("Then each class should carry half of the total weight", func() {
			So(err, ShouldBeNil)
			var rel, irr float64
			for i, l := range y {
				if l == model.Relevant {
					rel += s.Weights[i]
				} else {
					irr += s.Weights[i]
				}
			}
			So(rel, ShouldAlmostEqual, 2.0, 1e-12)
			So(irr, ShouldAlmostEqual, 2.0, 1e-12)
		})
	})
}

func TestUndersample(t *testing.T) {
	Convey("Given the undersample strategy", t, func() {
		ctx := context.Background()
		y := labels(2, 10)
		u := balance.NewUndersample()

		Convey("When rebalancing a skewed training set", func() {
			s, err := u.Rebalance(ctx, rows(len(y)), y, 7)

			Convey("Then every relevant row and a matching number of irrelevant rows are kept", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, 4)
				So(s.Indices, ShouldContain, 10)
				So(s.Indices, ShouldContain, 11)
				for k := 1; k < s.Len(); k++ {
					So(s.Indices[k], ShouldBeGreaterThan, s.Indices[k-1])
				}
			})

			Convey("Then the same seed should give the same sample", func() {
				again, _ := u.Rebalance(ctx, rows(len(y)), y, 7)
				So(again, ShouldResemble, s)
			})
		})

		Convey("When the ratio covers every irrelevant row", func() {
			s, err := balance.NewUndersample(balance.WithRatio(10)).Rebalance(ctx, rows(len(y)), y, 7)
			So(err, ShouldBeNil)
			So(s.Len(), ShouldEqual, len(y))
		})
	})
}

func TestDouble(t *testing.T) {
	Convey("Given the double strategy", t, func() {
		ctx := context.Background()
		y := labels(2, 20)
		d := balance.NewDouble()

		Convey("When rebalancing a skewed training set", func() {
			s, err := d.Rebalance(ctx, rows(len(y)), y, 3)

			Convey("Then the sample keeps the training size and repeats relevant rows", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, len(y))
				rel := 0
				for _, i := range s.Indices {
					if i >= 20 {
						rel++
					}
				}
				So(rel, ShouldBeBetweenOrEqual, 14, 15)
				for k := 1; k < s.Len(); k++ {
					So(s.Indices[k], ShouldBeGreaterThanOrEqualTo, s.Indices[k-1])
				}
			})

			Convey("Then the same seed should give the same sample", func() {
				again, _ := d.Rebalance(ctx, rows(len(y)), y, 3)
				So(again, ShouldResemble, s)
			})
		})

		Convey("When only one class is present", func() {
			one := labels(0, 5)
			s, err := d.Rebalance(ctx, rows(len(one)), one, 3)
			So(err, ShouldBeNil)
			So(s.Indices, ShouldResemble, []int{0, 1, 2, 3, 4})
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given malformed training data", t, func() {
		ctx := context.Background()
		_, err := balance.NewSimple().Rebalance(ctx, rows(2), labels(1, 0), 0)
		So(errors.Is(err, balance.ErrShapeMismatch), ShouldBeTrue)

		_, err = balance.NewWeighted().Rebalance(ctx, rows(0), nil, 0)
		So(errors.Is(err, balance.ErrEmptyTraining), ShouldBeTrue)

		_, err = balance.NewUndersample().Rebalance(ctx, rows(1), []model.Label{0}, 0)
		So(errors.Is(err, model.ErrInvalidLabel), ShouldBeTrue)
	})
}
