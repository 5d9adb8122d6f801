package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/alscreen/internal/adapters/http/api"
	"github.com/okian/alscreen/pkg/logger"
	"github.com/okian/alscreen/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		stats := &mockStatsProvider{stats: map[string]interface{}{"phase": "running", "cycle": 4}}
		server := api.NewServer(stats)
		mux := http.NewServeMux()
		server.Register(mux)

		Convey("When calling the health endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should report ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
			})
		})

		Convey("When calling the stats endpoint", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the provider's stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var body map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["phase"], ShouldEqual, "running")
				So(body["cycle"], ShouldEqual, 4)
			})
		})

		Convey("When posting to the stats endpoint", func() {
			req := httptest.NewRequest(http.MethodPost, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Body.String(), ShouldContainSubstring, "method_not_allowed")
			})
		})

		Convey("When scraping metrics", func() {
			metrics.RecordUndo()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the review metrics should be exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "alscreen_review_undo_batches_total")
			})
		})
	})
}

func TestServer_ListenAndServe(t *testing.T) {
	Convey("Given a server on a random port", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		server := api.NewServer(&mockStatsProvider{stats: map[string]interface{}{}})
		addrCh := make(chan net.Addr, 1)
		done := make(chan error, 1)
		go func() {
			done <- server.ListenAndServe(ctx, "127.0.0.1:0", logger.Nop(), func(a net.Addr) { addrCh <- a })
		}()
		addr := <-addrCh

		Convey("When requesting health and then cancelling", func() {
			client := &http.Client{Timeout: 2 * time.Second}
			resp, err := client.Get("http://" + addr.String() + "/healthz")
			So(err, ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			cancel()

			Convey("Then it should answer and shut down cleanly", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(strings.Contains(string(body), `"status":"ok"`), ShouldBeTrue)
				So(<-done, ShouldBeNil)
			})
		})
	})

	Convey("Given an address that cannot be bound", t, func() {
		server := api.NewServer(&mockStatsProvider{})
		err := server.ListenAndServe(context.Background(), "256.0.0.1:bad", logger.Nop(), nil)
		So(err, ShouldNotBeNil)
	})
}
