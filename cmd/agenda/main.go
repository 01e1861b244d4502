package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kmmanagement/agenda/internal/config"
	"github.com/kmmanagement/agenda/internal/dashboard"
	"github.com/kmmanagement/agenda/internal/metrics"
	"github.com/kmmanagement/agenda/internal/period"
	"github.com/kmmanagement/agenda/internal/schedule"
	"github.com/kmmanagement/agenda/internal/store"
	"github.com/kmmanagement/agenda/internal/task"
)

var (
	app = kingpin.New("agenda", "Appointment agenda and financial dashboard")

	timezone    = app.Flag("timezone", "Zone used for dates and scheduled times").Envar("AGENDA_TIMEZONE").Default("Local").String()
	storageType = app.Flag("storage", "Storage backend (local, s3, postgres)").Envar("AGENDA_STORAGE_TYPE").Default(store.TypeLocal).Enum(store.TypeLocal, store.TypeS3, store.TypePostgres)
	dataDir     = app.Flag("data-dir", "Base directory of local storage").Envar("AGENDA_STORAGE_BASE_DIR").Default(".agenda/data").String()
	s3Bucket    = app.Flag("s3-bucket", "S3 bucket").Envar("AGENDA_S3_BUCKET").String()
	s3Prefix    = app.Flag("s3-prefix", "S3 key prefix").Envar("AGENDA_S3_PREFIX").Default("agenda/").String()
	s3Region    = app.Flag("s3-region", "S3 region").Envar("AGENDA_S3_REGION").Default("sa-east-1").String()
	databaseURL = app.Flag("database-url", "Postgres connection URL").Envar("AGENDA_DATABASE_URL").String()

	periodCmd    = app.Command("period", "Print the bounds of a reporting period")
	periodName   = periodCmd.Flag("period", "day, week or month").Short('p').Default(string(period.DefaultPeriod)).String()
	periodAnchor = periodCmd.Flag("date", "Anchor date (YYYY-MM-DD), today when empty").Short('d').String()

	dashboardCmd    = app.Command("dashboard", "Compute the dashboard for a period")
	dashboardPeriod = dashboardCmd.Flag("period", "day, week or month").Short('p').Default(string(period.DefaultPeriod)).String()
	dashboardAnchor = dashboardCmd.Flag("date", "Anchor date (YYYY-MM-DD), today when empty").Short('d').String()

	slotCmd = app.Command("slot", "Check whether a time slot is free")
	slotAt  = slotCmd.Arg("at", "Scheduled time (YYYY-MM-DD HH:MM)").Required().String()
)

// errSlotTaken makes the slot command exit non-zero once its store is closed.
var errSlotTaken = errors.New("slot taken")

var (
	label = color.New(color.FgCyan).SprintFunc()
	good  = color.New(color.FgGreen).SprintFunc()
	bad   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := config.ScheduleEnv{Timezone: *timezone}
	loc, err := sched.Location()
	app.FatalIfError(err, "")

	switch command {
	case periodCmd.FullCommand():
		err = runPeriod(loc)
	case dashboardCmd.FullCommand():
		err = runDashboard(ctx, loc)
	case slotCmd.FullCommand():
		err = runSlot(ctx, loc)
		if errors.Is(err, errSlotTaken) {
			stop()
			os.Exit(1)
		}
	}
	app.FatalIfError(err, "%s", command)
}

func anchorDate(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := period.ParseDate(raw, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func openStore(ctx context.Context) (*store.Repositories, error) {
	return store.Open(ctx, &config.StorageEnv{
		Type:        *storageType,
		BaseDir:     *dataDir,
		S3Bucket:    *s3Bucket,
		S3Prefix:    *s3Prefix,
		S3Region:    *s3Region,
		DatabaseURL: *databaseURL,
	})
}

func runPeriod(loc *time.Location) error {
	anchor, err := anchorDate(*periodAnchor, loc)
	if err != nil {
		return err
	}
	day := time.Now().In(loc)
	if anchor != nil {
		day = *anchor
	}
	p := period.Parse(*periodName)
	b := period.Resolve(day, p)
	fmt.Printf("%s %s\n", label("period:"), p)
	fmt.Printf("%s  %s\n", label("start:"), b.Start.Format(time.RFC3339Nano))
	fmt.Printf("%s    %s\n", label("end:"), b.End.Format(time.RFC3339Nano))
	return nil
}

func runDashboard(ctx context.Context, loc *time.Location) error {
	anchor, err := anchorDate(*dashboardAnchor, loc)
	if err != nil {
		return err
	}
	repos, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer repos.Close()

	report, err := dashboard.NewService(repos.Tasks, loc, metrics.Nop{}).Get(ctx, period.Parse(*dashboardPeriod), anchor)
	if err != nil {
		return err
	}
	s := report.Stats
	fmt.Printf("%s %s (%s .. %s)\n", label("period:"), report.Period,
		report.Bounds.Start.Format(period.DateLayout), report.Bounds.End.Format(period.DateLayout))
	fmt.Printf("%s %d (new %d, recurring %d)\n", label("tasks:"), s.TotalCount, s.NewClientCount, s.RecurringClientCount)
	fmt.Printf("%s %s\n", label("expected:"), s.ExpectedAmount.StringFixed(2))
	fmt.Printf("%s %s\n", label("collected:"), good(s.CollectedAmount.StringFixed(2)))
	fmt.Printf("%s %s\n", label("outstanding:"), bad(s.OutstandingAmount.StringFixed(2)))
	return nil
}

func runSlot(ctx context.Context, loc *time.Location) error {
	at, err := task.ParseSlot(*slotAt, loc)
	if err != nil {
		return err
	}
	repos, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer repos.Close()

	taken, err := schedule.NewChecker(repos.Tasks).HasConflict(ctx, at)
	if err != nil {
		return err
	}
	slot := task.FormatSlot(at, loc)
	if taken {
		fmt.Printf("%s %s\n", slot, bad("taken"))
		return errSlotTaken
	}
	fmt.Printf("%s %s\n", slot, good("free"))
	return nil
}
