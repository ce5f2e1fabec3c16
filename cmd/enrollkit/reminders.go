package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/enrollkit/enrollkit/pkg/alert"
	"github.com/enrollkit/enrollkit/pkg/billing"
	"github.com/enrollkit/enrollkit/pkg/config"
	"github.com/enrollkit/enrollkit/pkg/logger"
	"github.com/enrollkit/enrollkit/pkg/pg"
)

func runReminders(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		appCfg   appConfig
		pgCfg    pg.Config
		alertCfg alert.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&alertCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "enrollkit-reminders"))
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	opts := []billing.ScannerOption{}
	if alertCfg.URL != "" {
		notifier, err := alert.NewNotifier(alertCfg, alert.WithSource("enrollkit-reminders"))
		if err != nil {
			return fmt.Errorf("configure alert notifier: %w", err)
		}
		opts = append(opts, billing.WithScannerNotifier(notifier))
	}

	scanner := billing.NewReminderScanner(billing.NewPgStore(pool), log, opts...)
	summary, err := scanner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(summary.String())
	return nil
}
