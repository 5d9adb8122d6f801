package corpus_test

import (
	"errors"
	"testing"

	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() []model.Record {
	return []model.Record{
		{ID: 2, Title: "c", Truth: model.LabelPtr(model.Irrelevant)},
		{ID: 0, Title: "a", Truth: model.LabelPtr(model.Relevant)},
		{ID: 1, Title: "b", Truth: model.LabelPtr(model.Irrelevant)},
	}
}

func TestCorpus(t *testing.T) {
	Convey("Given a corpus built from unordered records", t, func() {
		c, err := corpus.New("sample.csv", sample())
		So(err, ShouldBeNil)

		Convey("Then records should be ordered by id", func() {
			So(c.IDs(), ShouldResemble, []int{0, 1, 2})
			So(c.Len(), ShouldEqual, 3)
			r, ok := c.Record(1)
			So(ok, ShouldBeTrue)
			So(r.Title, ShouldEqual, "b")
		})

		Convey("Then ground truth should be queryable", func() {
			So(c.HasTruth(), ShouldBeTrue)
			So(c.WithTruth(model.Relevant), ShouldResemble, []int{0})
			So(c.WithTruth(model.Irrelevant), ShouldResemble, []int{1, 2})
			l, ok := c.Truth(2)
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, model.Irrelevant)
		})

		Convey("Then the fingerprint should ignore truth and record order", func() {
			recs := sample()
			for i := range recs {
				recs[i].Truth = nil
			}
			recs[0], recs[2] = recs[2], recs[0]
			other, err := corpus.New("other.csv", recs)
			So(err, ShouldBeNil)
			So(other.Fingerprint(), ShouldEqual, c.Fingerprint())
			So(c.Matches(other.Ref()), ShouldBeTrue)
			So(other.HasTruth(), ShouldBeFalse)
		})

		Convey("Then a payload change should change the fingerprint", func() {
			recs := sample()
			recs[1].Abstract = "changed"
			other, err := corpus.New("sample.csv", recs)
			So(err, ShouldBeNil)
			So(other.Fingerprint(), ShouldNotEqual, c.Fingerprint())
		})
	})

	Convey("Given invalid input", t, func() {
		_, err := corpus.New("x", nil)
		So(errors.Is(err, corpus.ErrEmpty), ShouldBeTrue)

		_, err = corpus.New("x", []model.Record{{ID: 1}, {ID: 1}})
		So(errors.Is(err, corpus.ErrDuplicateRecord), ShouldBeTrue)

		_, err = corpus.New("x", []model.Record{{ID: -1}})
		So(errors.Is(err, corpus.ErrInvalidRecordID), ShouldBeTrue)
	})
}

func TestLabels(t *testing.T) {
	Convey("Given a label view", t, func() {
		c, err := corpus.New("sample.csv", sample())
		So(err, ShouldBeNil)
		labels := corpus.NewLabels(c)

		Convey("When labeling records", func() {
			So(labels.Set(0, model.Relevant), ShouldBeNil)
			So(labels.Set(2, model.Irrelevant), ShouldBeNil)

			Convey("Then counts and unlabeled ids should follow", func() {
				So(labels.Count(), ShouldEqual, 2)
				So(labels.Relevant(), ShouldEqual, 1)
				So(labels.Unlabeled(), ShouldResemble, []int{1})
				So(labels.Remaining(), ShouldEqual, 1)
			})

			Convey("Then relabeling should be rejected", func() {
				err := labels.Set(0, model.Irrelevant)
				So(errors.Is(err, corpus.ErrAlreadyLabeled), ShouldBeTrue)
			})

			Convey("Then unset should restore the record", func() {
				labels.Unset(0)
				So(labels.IsLabeled(0), ShouldBeFalse)
				So(labels.Relevant(), ShouldEqual, 0)
			})
		})

		Convey("When labeling unknown records", func() {
			err := labels.Set(42, model.Relevant)
			So(errors.Is(err, corpus.ErrUnknownRecord), ShouldBeTrue)
		})
	})
}
