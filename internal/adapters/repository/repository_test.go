package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/alscreen/internal/adapters/repository"
	"github.com/okian/alscreen/internal/domain/corpus"
	"github.com/okian/alscreen/internal/domain/model"
	"github.com/okian/alscreen/internal/domain/state"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleState() *state.State {
	s := model.Settings{
		Classifier: model.RoleConfig{Name: "logistic", Params: map[string]any{"epochs": 5.0}},
		Query:      model.RoleConfig{Name: "max"},
		Balance:    model.RoleConfig{Name: "simple"},
		Feature:    model.RoleConfig{Name: "tfidf"},
		Seed:       42,
		NInstances: 1,
	}
	st := state.New(corpus.Ref{Name: "demo", Records: 5, Fingerprint: "abc"}, s, epoch)
	So(st.AppendPriors([]model.LabelEvent{
		{RecordID: 0, Label: model.Relevant, Origin: model.OriginPrior, Timestamp: epoch},
		{RecordID: 4, Label: model.Irrelevant, Origin: model.OriginPrior, Timestamp: epoch},
	}), ShouldBeNil)
	So(st.AppendBatch([]model.LabelEvent{{
		RecordID: 2, Label: model.Relevant, Origin: model.OriginModel, Cycle: 1,
		Timestamp: epoch.Add(time.Second), QueryStrategy: "max", Classifier: "logistic",
		FeatureExtractor: "tfidf", BalanceStrategy: "simple", Trained: true,
	}}), ShouldBeNil)
	st.ChangeSettings(s)
	return st
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for _, ext := range []string{".json", ".db"} {
		Convey("Given a "+ext+" store", t, func() {
			path := filepath.Join(t.TempDir(), "project"+ext)
			store, err := repository.Open(path)
			So(err, ShouldBeNil)
			defer store.Close()

			Convey("When nothing has been saved", func() {
				_, err := store.Load(ctx)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When saving and loading a state", func() {
				st := sampleState()
				So(store.Save(ctx, st), ShouldBeNil)
				back, err := store.Load(ctx)

				Convey("Then the state should come back unchanged", func() {
					So(err, ShouldBeNil)
					So(back.Snapshot(), ShouldResemble, st.Snapshot())
					So(store.Path(), ShouldEqual, path)
				})
			})

			Convey("When saving twice", func() {
				st := sampleState()
				So(store.Save(ctx, st), ShouldBeNil)
				_, err := st.UndoLastBatch()
				So(err, ShouldBeNil)
				So(store.Save(ctx, st), ShouldBeNil)

				Convey("Then only the latest state should remain", func() {
					back, err := store.Load(ctx)
					So(err, ShouldBeNil)
					So(back.Cycle(), ShouldEqual, 0)
					So(back.Len(), ShouldEqual, 2)
				})
			})

			Convey("When deleting the state", func() {
				So(store.Save(ctx, sampleState()), ShouldBeNil)
				So(store.Delete(ctx), ShouldBeNil)
				_, err := store.Load(ctx)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	}
}

func TestOpen(t *testing.T) {
	Convey("Given an unknown extension", t, func() {
		_, err := repository.Open(filepath.Join(t.TempDir(), "state.txt"))
		So(errors.Is(err, repository.ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func TestDocument(t *testing.T) {
	Convey("Given the JSON document codec", t, func() {
		st := sampleState()

		Convey("When encoding the same state twice", func() {
			a, err := repository.Encode(st)
			So(err, ShouldBeNil)
			b, _ := repository.Encode(st)

			Convey("Then the bytes should be identical and versioned", func() {
				So(string(a), ShouldEqual, string(b))
				So(string(a), ShouldContainSubstring, `"format_version": 1`)
			})
		})

		Convey("When the version is from the future", func() {
			_, err := repository.Decode([]byte(`{"format_version": 2}`))
			So(errors.Is(err, repository.ErrUnsupportedVersion), ShouldBeTrue)
		})

		Convey("When the document is not JSON", func() {
			_, err := repository.Decode([]byte(`{`))
			So(errors.Is(err, repository.ErrCorrupt), ShouldBeTrue)
		})
	})
}

func TestFileStoreAtomicity(t *testing.T) {
	Convey("Given a file store whose directory is gone", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "project.json")
		store := repository.NewFileStore(path)
		So(store.Save(context.Background(), sampleState()), ShouldBeNil)
		before, err := os.ReadFile(path)
		So(err, ShouldBeNil)

		Convey("When a save fails", func() {
			bad := repository.NewFileStore(filepath.Join(dir, "missing", "project.json"))
			err := bad.Save(context.Background(), sampleState())

			Convey("Then the error should be a persistence error", func() {
				So(errors.Is(err, repository.ErrPersist), ShouldBeTrue)
			})

			Convey("Then no temp files should be left behind", func() {
				entries, _ := os.ReadDir(dir)
				So(entries, ShouldHaveLength, 1)
				after, _ := os.ReadFile(path)
				So(string(after), ShouldEqual, string(before))
			})
		})
	})
}
