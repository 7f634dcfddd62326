package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

func NewForecastHandler(logger *slog.Logger, db *database.Database, tm *TemplateManager, loc *time.Location, task func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/html")

			rows, err := db.GetForecastFrom(r.Context(), dates.Today(loc))
			if err != nil {
				logger.Error("handling forecast request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if err := tm.ExecuteToWriter("forecast.html", rows, &w); err != nil {
				logger.Error("handling forecast request", slog.Any("error", err))
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
