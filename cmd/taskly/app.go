package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/changefeed"
	"github.com/sandeepkv93/taskly/internal/config"
	"github.com/sandeepkv93/taskly/internal/filter"
	"github.com/sandeepkv93/taskly/internal/logging"
	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/notify"
	"github.com/sandeepkv93/taskly/internal/reminder"
	"github.com/sandeepkv93/taskly/internal/settings"
	"github.com/sandeepkv93/taskly/internal/storage"
	"github.com/sandeepkv93/taskly/internal/tasks"
	"github.com/sandeepkv93/taskly/internal/update"
)

// app holds the components shared by the UI and the one-shot commands.
type app struct {
	cfg      *config.Config
	session  model.Session
	logger   *zap.Logger
	bus      changefeed.Bus
	store    *storage.SQLiteStore
	settings *settings.FileStore
	engine   *filter.Engine
	closers  []func()
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.userID) != "" {
		cfg.User.ID = strings.TrimSpace(opts.userID)
	}

	logger, closeLog, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		session:  model.Session{UserID: cfg.User.ID},
		logger:   logger.With(zap.String("user_id", cfg.User.ID)),
		settings: settings.NewFileStore(cfg.Settings.Path),
		closers:  []func(){closeLog},
	}

	if cfg.Changefeed.NATSURL != "" {
		bus, err := changefeed.ConnectNATS(cfg.Changefeed.NATSURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.bus = bus
	} else {
		bus, err := changefeed.WatchFile(cfg.Storage.Path, changefeed.WithWatchLogger(a.logger))
		if err != nil {
			a.logger.Warn("watch database failed, other processes' writes will not show until restart", zap.Error(err))
			a.bus = changefeed.NewMemoryBus()
		} else {
			a.bus = bus
		}
	}
	a.closers = append(a.closers, func() { _ = a.bus.Close() })

	store, err := storage.OpenSQLite(cfg.Storage.Path, a.bus, storage.WithLogger(a.logger))
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	loc, err := cfg.Location()
	if err != nil {
		a.close()
		return nil, err
	}
	cal, err := filter.CalendarForLocale(cfg.Calendar.Locale, loc)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = filter.NewEngine(cal, time.Now)
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// oneShotService is a task service without a reminder dispatcher.
func (a *app) oneShotService(ctx context.Context) (*tasks.Service, error) {
	svc, err := tasks.NewService(a.session, a.store, tasks.NoReminders{}, a.engine, tasks.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	s, err := a.settings.Load()
	if err != nil {
		return nil, err
	}
	svc.SetCategories(s.Categories)
	if _, err := svc.Refresh(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	dispatcher := notify.NewLocalDispatcher(a.cfg.Notifications.Buffer)
	dispatcher.Start()
	defer dispatcher.Stop()

	sched := reminder.NewScheduler(dispatcher,
		reminder.WithLogger(a.logger),
		reminder.WithMetrics(reminder.NewMetrics(reg)),
	)
	sched.Start()
	defer sched.Stop()

	svc, err := tasks.NewService(a.session, a.store, sched, a.engine,
		tasks.WithLogger(a.logger),
		tasks.WithMetrics(tasks.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	prefs, err := a.settings.Load()
	if err != nil {
		a.logger.Warn("load settings failed", zap.Error(err))
	} else if prefs.DailyReminder {
		sched.EnableDaily()
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}

	var notifier notify.DesktopNotifier = notify.NoopDesktopNotifier{}
	if a.cfg.Notifications.Desktop {
		notifier = notify.ExecDesktopNotifier{}
	}

	m := update.NewModel(update.Deps{
		Context:   ctx,
		Tasks:     svc,
		Settings:  a.settings,
		Daily:     sched,
		Engine:    a.engine,
		Reminders: dispatcher.C(),
		Notifier:  notifier,
		Logger:    a.logger,
	})
	a.logger.Info("starting ui", zap.String("storage", a.cfg.Storage.Path))
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
