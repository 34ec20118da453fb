package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/luma-sync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LUMASYNC_ADDR", ":8080")
			_ = os.Setenv("LUMASYNC_FETCH_TIMEOUT", "15s")
			_ = os.Setenv("LUMASYNC_AUTO_PUBLISH", "false")
			_ = os.Setenv("LUMASYNC_CALENDARS", "cdmx,gdl")
			_ = os.Setenv("LUMASYNC_DEFAULT_TIMEZONE", "Europe/Berlin")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchTimeout, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.AutoPublish, convey.ShouldBeFalse)
				convey.So(cfg.Calendars, convey.ShouldResemble, []string{"cdmx", "gdl"})
				convey.So(cfg.DefaultTimezone, convey.ShouldEqual, "Europe/Berlin")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store_driver: sqlite
store_dsn: "file:events.db"
queue_size: 8
calendars:
  - cdmx
  - ai-builders
cover_image_width: 800
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LUMASYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:events.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.Calendars, convey.ShouldResemble, []string{"cdmx", "ai-builders"})
				convey.So(cfg.CoverImageWidth, convey.ShouldEqual, 800)
				convey.So(cfg.CoverImageHeight, convey.ShouldEqual, 630) // default
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LUMASYNC_CONFIG", tmpFile)
			_ = os.Setenv("LUMASYNC_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LUMASYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("LUMASYNC_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("LUMASYNC_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("LUMASYNC_STORE_DRIVER", "mongo")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("LUMASYNC_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"LUMASYNC_CONFIG",
		"LUMASYNC_ADDR",
		"LUMASYNC_FETCH_TIMEOUT",
		"LUMASYNC_AUTO_PUBLISH",
		"LUMASYNC_CALENDARS",
		"LUMASYNC_DEFAULT_TIMEZONE",
		"LUMASYNC_STORE_DRIVER",
		"LUMASYNC_QUEUE_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "lumasync-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
