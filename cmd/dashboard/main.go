package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"NiftyLevels/internal/calendar"
	"NiftyLevels/internal/chart"
	"NiftyLevels/internal/classifier"
	"NiftyLevels/internal/config"
	"NiftyLevels/internal/dashboard"
	"NiftyLevels/internal/loader"
	"NiftyLevels/internal/scheduler"
	"NiftyLevels/internal/server"
	"NiftyLevels/internal/store"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfgFlag := flag.String("config", "", "path to config.yaml (overrides CONFIG_PATH)")
	dateFlag := flag.String("date", "", "print the dashboard view of YYYY-MM-DD as JSON and exit")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	if *cfgFlag != "" {
		cfgPath = *cfgFlag
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := config.InitLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("NiftyLevels starting...")

	loc, _ := cfg.Location()
	sessionOpen, sessionClose, _ := cfg.SessionBounds()

	// Init store
	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath, cfg.Instrument.IndexSymbol, loc, log)
	if err != nil {
		return fmt.Errorf("init sqlite store: %w", err)
	}
	defer st.Close()

	// Init classifier
	var cls classifier.Classifier
	switch cfg.Classifier.Mode {
	case "regex":
		rc, err := classifier.NewRegexClassifier(cfg.Classifier.CallRegex, cfg.Classifier.PutRegex)
		if err != nil {
			return fmt.Errorf("init classifier: %w", err)
		}
		cls = rc
	default:
		cls = classifier.NewPatternClassifier(cfg.Classifier.CallPatterns, cfg.Classifier.PutPatterns)
	}
	log.WithField("mode", cfg.Classifier.Mode).Info("option classifier ready")

	catalog := calendar.NewCatalog(st, log)
	svc := dashboard.NewService(catalog, loader.NewLoader(st, cfg.Instrument.IndexSymbol, log), cls, dashboard.Options{
		IndexTitle:       cfg.Instrument.IndexTitle,
		IndexHeight:      cfg.Chart.IndexHeight,
		OptionHeight:     cfg.Chart.OptionHeight,
		ShowLevels:       *cfg.Chart.ShowLevels,
		ShowUnclassified: cfg.Dashboard.ShowUnclassified,
		Session:          chart.Session{Open: sessionOpen, Close: sessionClose},
		Location:         loc,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *dateFlag != "" {
		if err := printView(ctx, svc, *dateFlag); err != nil {
			return fmt.Errorf("build dashboard: %w", err)
		}
		return nil
	}

	if err := catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if _, ok := catalog.Latest(); !ok {
		return dashboard.ErrNoDates
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, catalog, log)
	if err := sched.Register(cfg.Catalog.RefreshCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if lvl := log.GetLevel(); lvl < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(cfg.Server.Addr, cfg.Server.AllowedOrigins, svc, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log.Info("NiftyLevels is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case serveErr = <-errCh:
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	cancel()
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	log.Info("NiftyLevels stopped")
	return nil
}

func printView(ctx context.Context, svc *dashboard.Service, raw string) error {
	date, err := svc.ResolveDate(ctx, raw)
	if err != nil {
		return err
	}
	view, err := svc.Build(ctx, date)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
