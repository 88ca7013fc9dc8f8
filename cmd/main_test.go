package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/edurate/internal/adapters/http/api"
	"github.com/okian/edurate/internal/adapters/http/swagger"
	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/config"
	"github.com/okian/edurate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given store configurations", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		convey.Convey("When the driver is file", func() {
			store, err := openStore(ctx, config.StoreConfig{Driver: "file", Path: filepath.Join(dir, "blobs")})

			convey.Convey("Then the directory is created", func() {
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = store.Close() }()
				_, err := os.Stat(filepath.Join(dir, "blobs"))
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the driver is sqlite", func() {
			store, err := openStore(ctx, config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "db", "edurate.db")})

			convey.Convey("Then the database opens", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the driver is unknown", func() {
			_, err := openStore(ctx, config.StoreConfig{Driver: "tape"})

			convey.Convey("Then it fails", func() {
				convey.So(errors.Is(err, errUnknownDriver), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNewCompleter(t *testing.T) {
	convey.Convey("Given text generation settings", t, func() {
		cfg := config.New(context.Background()).TextGen

		convey.Convey("Then no key means no client", func() {
			convey.So(newCompleter(cfg, logger.Get()), convey.ShouldBeNil)
		})

		convey.Convey("Then a key builds a client for the configured model", func() {
			cfg.APIKey = "test-key"
			c := newCompleter(cfg, logger.Get())
			convey.So(c, convey.ShouldNotBeNil)
			convey.So(c.Model(), convey.ShouldEqual, "llama-3.3-70b-versatile")
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}

func TestApplicationWiring(t *testing.T) {
	convey.Convey("Given a service wired like main", t, func() {
		ctx := context.Background()
		store, err := openStore(ctx, config.StoreConfig{Driver: "file", Path: t.TempDir()})
		convey.So(err, convey.ShouldBeNil)

		svc := service.New(service.WithStore(store), service.WithCheckpointSchedule(""))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		api.NewServer(svc, svc, leaderboardMaxLimit).Register(ctx, mux)

		convey.Convey("Then the API and docs routes respond", func() {
			for _, path := range []string{"/api/health", "/stats", "/leaderboard", "/openapi.yaml", "/healthz"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then a forecast sums the posted task xp and minutes", func() {
			body := `{"student":{"student_id":"STU001","exam":72},` +
				`"tasks":[{"title":"a","xp":50,"time_estimate_minutes":90},{"title":"b"}]}`
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var resp struct {
				Prediction struct {
					Features struct {
						TotalXP    float64 `json:"total_xp"`
						NTasks     int     `json:"n_tasks"`
						EstMinutes float64 `json:"est_minutes"`
					} `json:"features"`
				} `json:"prediction"`
			}
			convey.So(json.Unmarshal(w.Body.Bytes(), &resp), convey.ShouldBeNil)
			convey.So(resp.Prediction.Features.TotalXP, convey.ShouldEqual, 50)
			convey.So(resp.Prediction.Features.NTasks, convey.ShouldEqual, 2)
			convey.So(resp.Prediction.Features.EstMinutes, convey.ShouldEqual, 120)
		})
	})
}
