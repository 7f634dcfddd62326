package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/amitesh0109/weather-data-pipeline/alert"
	"github.com/amitesh0109/weather-data-pipeline/config"
	"github.com/amitesh0109/weather-data-pipeline/database"
	"github.com/amitesh0109/weather-data-pipeline/logging"
	"github.com/amitesh0109/weather-data-pipeline/owm"
	"github.com/amitesh0109/weather-data-pipeline/task"
	"github.com/amitesh0109/weather-data-pipeline/www"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// The API key is normally kept out of the config file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Sprintf("failed to load .env file: %v", err))
	}

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if cnfg.Extract.ApiKey == "" {
		cnfg.Extract.ApiKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	}

	if err := cnfg.Validate(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, cfgErr.Error())
			os.Exit(1)
		}
		panic(fmt.Sprintf("failed to validate config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("weather pipeline is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	provider := owm.New(cnfg.Extract.ApiKey, cnfg.Extract.BaseUrl, cnfg.Extract.GetTimeout())

	var alerts *alert.Publisher
	if cnfg.Alert.Enabled() {
		alerts = alert.NewPublisher(cnfg.Alert)
		if err := alerts.Connect(); err != nil {
			logger.Error("alert broker connection failed, alerts disabled", slog.Any("error", err))
			alerts = nil
		} else {
			defer alerts.Disconnect()
		}
	}

	tasks := task.NewTasks(db, provider, alerts, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server := www.StartServer(db, tasks, cnfg)
	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
