package www

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/task"
)

type Server struct {
	logger *slog.Logger
	config config.AppConfigWww
	db     *database.Database
	hub    *Hub
	tm     *TemplateManager
}

//go:embed static
var embeddedStaticDir embed.FS

func StartServer(db *database.Database, tasks *task.Tasks, cnfg *config.AppConfig) *Server {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.Www.WwwDir)
	if err != nil {
		logger.Error("template manager initialization error", slog.Any("error", err))
	}

	// Date windows must use the same timezone the transform buckets by,
	// otherwise "today" can disagree with the stored dates around midnight.
	loc, err := time.LoadLocation(cnfg.Transform.GetTimezone())
	if err != nil {
		loc = time.UTC
	}

	s := &Server{
		logger: logger,
		config: cnfg.Www,
		db:     db,
		hub:    NewHub(logger),
		tm:     tm,
	}

	go s.hub.Run()

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	http.Handle("/", staticFilesHandler(cnfg.Www.WwwDir))

	http.Handle("/observations", logReqMW(NewObservationsHandler(
		logger.With(slog.String("handler", "observations")),
		s.db,
		s.tm,
		tasks.ExtractTask)))

	http.Handle("/forecast", logReqMW(NewForecastHandler(
		logger.With(slog.String("handler", "forecast")),
		s.db,
		s.tm,
		loc,
		tasks.ExtractTask)))

	http.Handle("/daily_aggregates", logReqMW(NewDailyAggregatesHandler(
		logger.With(slog.String("handler", "daily_aggregates")),
		s.db,
		s.tm,
		loc,
		tasks.TransformTask)))

	http.Handle("/anomalies", logReqMW(NewAnomaliesHandler(
		logger.With(slog.String("handler", "anomalies")),
		s.db,
		s.tm,
		loc)))

	http.Handle("/events", logReqMW(NewEventsHandler(
		logger.With(slog.String("handler", "events")),
		s.db,
		s.tm,
		loc)))

	http.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		s.db,
		s.tm)))

	http.Handle("/chart", logReqMW(NewChartHandler(
		logger.With(slog.String("handler", "chart")),
		s.db,
		loc)))

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
	})

	return s
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "address", s.config.Address, "port", s.config.Port)
	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	// Keeping state to avoid spamming logs
	fetchObservationsErrorState := false

	for {
		select {
		case err := <-srvErrors:
			if err != nil {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			if err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return

		case <-ticker.C:
			observations, err := s.db.GetLatestObservations(ctx)
			if err != nil {
				if !fetchObservationsErrorState {
					fetchObservationsErrorState = true
					s.logger.Warn("failed to get latest observations", slog.Any("error", err))
				}
				continue
			}
			fetchObservationsErrorState = false

			buf, err := s.tm.Execute("latest_readings.html", observations)
			if err != nil {
				s.logger.Error("template execution failed", slog.Any("error", err))
				continue
			}

			s.hub.Broadcast <- buf.Bytes()
		}
	}
}

func staticFilesHandler(extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
