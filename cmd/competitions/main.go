package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/andrei73/pushup-counter/internal/app"
	"github.com/andrei73/pushup-counter/internal/config"
	"github.com/andrei73/pushup-counter/internal/platform/logging"
	"github.com/andrei73/pushup-counter/internal/usecase"
)

type cli struct {
	Create       createCmd       `cmd:"" help:"Create monthly competitions."`
	UpdateStatus updateStatusCmd `cmd:"" name:"update-status" help:"Recompute the status of every non-completed competition."`
	Current      currentCmd      `cmd:"" help:"Show the competition running today."`
}

type runContext struct {
	ctx      context.Context
	services *app.Services
	out      io.Writer
}

type createCmd struct {
	Year   int `help:"First year (default: current year)."`
	Month  int `help:"First month (default: current month)."`
	Months int `default:"1" help:"Number of consecutive months to create."`
}

func (c createCmd) Run(rc *runContext) error {
	result, err := rc.services.Competitions.EnsureMonthlyCompetitions(rc.ctx, usecase.EnsureCompetitionsInput{
		Year:   c.Year,
		Month:  c.Month,
		Months: c.Months,
	})
	if err != nil {
		return err
	}

	for _, item := range result.Items {
		if item.Created {
			fmt.Fprintf(rc.out, "created: %s (%s)\n", item.Name, item.Status)
			continue
		}
		fmt.Fprintf(rc.out, "already exists: %s (%s)\n", item.Name, item.Status)
	}
	fmt.Fprintf(rc.out, "\nsummary:\n  created: %d\n  already existed: %d\n", result.CreatedCount, result.ExistingCount)

	return printCurrent(rc, false)
}

type updateStatusCmd struct{}

func (updateStatusCmd) Run(rc *runContext) error {
	result, err := rc.services.Competitions.RefreshCompetitions(rc.ctx)
	if err != nil {
		return err
	}

	for _, item := range result.Items {
		switch {
		case item.Message != "":
			fmt.Fprintf(rc.out, "failed %s: %s\n", item.Name, item.Message)
		case item.From == item.To && item.WinnerAssigned:
			fmt.Fprintf(rc.out, "winner set %s: %s with %d\n", item.Name, item.WinnerUserID, item.WinnerTotal)
		case item.From == item.To:
		case item.WinnerUserID != "":
			fmt.Fprintf(rc.out, "updated %s: %s -> %s, winner %s with %d\n", item.Name, item.From, item.To, item.WinnerUserID, item.WinnerTotal)
		default:
			fmt.Fprintf(rc.out, "updated %s: %s -> %s\n", item.Name, item.From, item.To)
		}
	}
	fmt.Fprintf(rc.out, "status update complete: checked %d, transitioned %d, failed %d\n",
		result.CheckedCount, result.TransitionedCount, result.FailedCount)

	if result.FailedCount > 0 {
		return fmt.Errorf("%d competition(s) failed to refresh", result.FailedCount)
	}
	return nil
}

type currentCmd struct{}

func (currentCmd) Run(rc *runContext) error {
	return printCurrent(rc, true)
}

func printCurrent(rc *runContext, reportMissing bool) error {
	current, ok, err := rc.services.Competitions.GetCurrentCompetition(rc.ctx)
	if err != nil {
		return err
	}
	if !ok {
		if reportMissing {
			fmt.Fprintln(rc.out, "no competition is running today")
		}
		return nil
	}
	fmt.Fprintf(rc.out, "current competition: %s (%d days remaining)\n",
		current.Name, rc.services.Competitions.DaysRemaining(current))
	return nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var args cli
	kctx := kong.Parse(&args,
		kong.Name("competitions"),
		kong.Description("Create and maintain monthly pushup competitions."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.FormatConsole, Output: os.Stderr})
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}

	runErr := kctx.Run(&runContext{ctx: ctx, services: services, out: os.Stdout})
	if err := services.Close(); err != nil {
		logger.Warn("close storage", "error", err)
	}
	if runErr != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", runErr)
		os.Exit(1)
	}
}
