package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/dates"
)

func NewEventsHandler(logger *slog.Logger, db *database.Database, tm *TemplateManager, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		from := dates.Today(loc).Sub(intOrDefault(r.URL, "days", 30))

		rows, err := db.GetEventsFrom(r.Context(), from)
		if err != nil {
			logger.Error("handling events request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := tm.ExecuteToWriter("events.html", rows, &w); err != nil {
			logger.Error("handling events request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
