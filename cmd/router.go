package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/angeloszaimis/hamster/internal/handler"
	"github.com/angeloszaimis/hamster/internal/metrics"
)

func setupRouter(site *handler.SiteHandler, collector *metrics.Collector, pages handler.Pages, basePath, dir string) *mux.Router {
	r := mux.NewRouter()
	base := strings.TrimSuffix(basePath, "/")

	r.HandleFunc(pages.Hamster, site.Hamster).Methods(http.MethodGet)
	r.HandleFunc("/metrics", collector.Handler()).Methods(http.MethodGet)

	r.Handle("/", http.RedirectHandler(base+"/", http.StatusMovedPermanently))
	r.Handle(base, http.RedirectHandler(base+"/", http.StatusMovedPermanently))

	static := http.StripPrefix(base, http.FileServer(http.Dir(dir)))
	r.PathPrefix(base + "/").Handler(site.Gate(static)).Methods(http.MethodGet, http.MethodHead)

	return r
}

// withMiddleware adds panic recovery and an Apache combined access log.
func withMiddleware(router http.Handler, log *slog.Logger) http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(log.Handler(), slog.LevelError)),
	)
	return handlers.CombinedLoggingHandler(os.Stdout, recovery(router))
}
