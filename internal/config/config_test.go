package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/prscore/internal/config"
	"github.com/okian/prscore/internal/domain/rules"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it carries the service defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.LedgerBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.FactsSource, convey.ShouldEqual, config.FactsLedger)
			convey.So(cfg.EnforceUniqueAwards, convey.ShouldBeFalse)
			convey.So(cfg.NegativeRules, convey.ShouldResemble, []string{rules.NegativeActivity})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the catalog resolves the reference table", func() {
			cat, err := cfg.Catalog()
			convey.So(err, convey.ShouldBeNil)
			pts, err := cat.Resolve(rules.TierGold, rules.StageFirst, rules.ModeOnline)
			convey.So(err, convey.ShouldBeNil)
			convey.So(pts, convey.ShouldEqual, 800)
			convey.So(cat.IsNegative(rules.NegativeActivity), convey.ShouldBeTrue)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty addr", func(c *config.Config) { c.Addr = "" }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
		{"zero leaderboard limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }},
		{"unknown backend", func(c *config.Config) { c.LedgerBackend = "redis" }},
		{"sqlite without path", func(c *config.Config) { c.LedgerBackend = config.BackendSQLite; c.SQLitePath = "" }},
		{"postgres without dsn", func(c *config.Config) { c.LedgerBackend = config.BackendPostgres }},
		{"unknown facts source", func(c *config.Config) { c.FactsSource = "api" }},
		{"file facts without path", func(c *config.Config) { c.FactsSource = config.FactsFile }},
		{"negative rate", func(c *config.Config) { c.AwardRateLimit = -1 }},
		{"rate without burst", func(c *config.Config) { c.AwardBurst = 0 }},
		{"negative table cell", func(c *config.Config) {
			c.PointsTable = map[string]map[string]map[string]int{"gold": {"first": {"online": -1}}}
		}},
		{"unknown tier", func(c *config.Config) {
			c.PointsTable = map[string]map[string]map[string]int{"platinum": {"first": {"online": 1}}}
		}},
	}

	convey.Convey("Given invalid configurations", t, func() {
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					err := cfg.Validate()
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})

	convey.Convey("Given a disabled rate limiter", t, func() {
		cfg := config.New()
		cfg.AwardRateLimit = 0
		cfg.AwardBurst = 0

		convey.Convey("Then the burst is not required", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
