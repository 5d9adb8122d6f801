package config_test

import (
	"errors"
	"testing"

	"github.com/okian/alscreen/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Classifier, convey.ShouldEqual, "nb")
			convey.So(cfg.QueryStrategy, convey.ShouldEqual, "max_random")
			convey.So(cfg.BalanceStrategy, convey.ShouldEqual, "weighted")
			convey.So(cfg.FeatureExtraction, convey.ShouldEqual, "tfidf")
			convey.So(cfg.NInstances, convey.ShouldEqual, 20)
			convey.So(cfg.NPriorIncluded, convey.ShouldEqual, 10)
			convey.So(cfg.NPriorExcluded, convey.ShouldEqual, 10)
			convey.So(cfg.WriteInterval, convey.ShouldEqual, 0)
			convey.So(cfg.StopRule, convey.ShouldEqual, config.StopExhaust)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Settings should carry the model choice", func() {
			cfg.Seed = 7
			cfg.ClassifierParams = map[string]any{"alpha": 1.5}
			s := cfg.Settings()
			convey.So(s.Classifier.Name, convey.ShouldEqual, "nb")
			convey.So(s.Classifier.Params["alpha"], convey.ShouldEqual, 1.5)
			convey.So(s.Seed, convey.ShouldEqual, 7)
			convey.So(s.NInstances, convey.ShouldEqual, 20)

			s.Classifier.Params["alpha"] = 9.0
			convey.So(cfg.ClassifierParams["alpha"], convey.ShouldEqual, 1.5)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"log level", func(c *config.Config) { c.LogLevel = "loud" }},
			{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"state path", func(c *config.Config) { c.StatePath = "state.txt" }},
			{"resume no path", func(c *config.Config) { c.StatePath = ""; c.Resume = true }},
			{"empty model", func(c *config.Config) { c.Classifier = " " }},
			{"n instances", func(c *config.Config) { c.NInstances = 0 }},
			{"priors", func(c *config.Config) { c.NPriorExcluded = -1 }},
			{"write interval", func(c *config.Config) { c.WriteInterval = -2 }},
			{"workers", func(c *config.Config) { c.Workers = -1 }},
			{"n queries", func(c *config.Config) { c.NQueries = -1 }},
			{"stop rule", func(c *config.Config) { c.StopRule = "never" }},
			{"stop value", func(c *config.Config) { c.StopRule = config.StopMaxCycles }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name+" is wrong", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When several fields are wrong", func() {
			cfg := config.New()
			cfg.NInstances = 0
			cfg.StopRule = "never"
			err := cfg.Validate()

			convey.Convey("Then every problem should be reported", func() {
				convey.So(err.Error(), convey.ShouldContainSubstring, "n_instances")
				convey.So(err.Error(), convey.ShouldContainSubstring, "stop_rule")
			})
		})
	})
}
