package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/types/maybe"
)

func NewObservationsHandler(logger *slog.Logger, db *database.Database, tm *TemplateManager, task func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/html")

			city := r.URL.Query().Get("city")
			if city == "" {
				rows, err := db.GetLatestObservations(r.Context())
				if err != nil {
					logger.Error("handling observations request", slog.Any("error", err))
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				if err := tm.ExecuteToWriter("observations.html", rows, &w); err != nil {
					logger.Error("handling observations request", slog.Any("error", err))
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}

			hours := intOrDefault(r.URL, "hours", 48)
			since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
			rows, err := db.GetObservations(r.Context(), city, maybe.Some(since))
			if err != nil {
				logger.Error("handling observations request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if err := tm.ExecuteToWriter("observations.html", rows, &w); err != nil {
				logger.Error("handling observations request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}

		case http.MethodPost:
			go task()
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
