package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"medicart/internal/config"
	"medicart/internal/repos"
	"medicart/internal/scheduler"
	"medicart/internal/server"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	app, deps := server.New(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Month-end report generation
	job := scheduler.NewReportJob(deps.Reports, cfg.ReportCheckInterval)
	done := job.Start(ctx)

	go func() {
		<-ctx.Done()
		log.Printf("[server] shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] listen: %v", err)
	}
	stop()
	<-done
}
