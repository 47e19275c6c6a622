// seatctl is the operator CLI for the seat inventory.  It talks to the
// same database as the server, configured through the same environment.
//
//	seatctl provision --name "Opening night" --date 2025-09-01 [--layout venue.yaml] [--block A5,B3]
//	seatctl report --event 1
//	seatctl export --event 1 [--out seats.csv]
//	seatctl reset --event 1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iliyamo/seat-inventory/internal/config"
	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/queue"
	"github.com/iliyamo/seat-inventory/internal/service"
	"github.com/iliyamo/seat-inventory/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	catalog *service.EventCatalog
	engine  *service.InventoryEngine
	reports *service.ReportAggregator
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return nil
	}
	cmd, rest := args[0], args[1:]

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	notifier, closeNotifier := notifierFor(cfg, logger)
	defer closeNotifier()
	a := newApp(st, logger, notifier)

	switch cmd {
	case "provision":
		return a.provision(ctx, rest, out)
	case "report":
		return a.report(ctx, rest, out)
	case "export":
		return a.export(ctx, rest, out)
	case "reset":
		return a.reset(ctx, rest, out)
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newApp(st storage.Stores, logger *slog.Logger, notifier service.Notifier) app {
	opts := []service.Option{service.WithLogger(logger)}
	if notifier != nil {
		opts = append(opts, service.WithNotifier(notifier))
	}
	return app{
		catalog: service.NewEventCatalog(st.Events, st.Seats, opts...),
		engine:  service.NewInventoryEngine(st.Seats, st.Events, opts...),
		reports: service.NewReportAggregator(st.Seats, st.Events, opts...),
	}
}

// notifierFor returns the seat change publisher when SEAT_EVENTS_ENABLED
// is set.  The returned func flushes queued events before exit.
func notifierFor(cfg config.Config, logger *slog.Logger) (service.Notifier, func()) {
	if !cfg.SeatEventsEnabled {
		return nil, func() {}
	}
	pub := queue.NewPublisher(cfg.AMQPURL, logger)
	return pub, func() { _ = pub.Close() }
}

func (a app) provision(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("provision", pflag.ContinueOnError)
	name := fs.String("name", "", "event name")
	date := fs.String("date", "", "event date, YYYY-MM-DD")
	layoutPath := fs.String("layout", "", "YAML venue layout (default: built-in auditorium)")
	blocks := fs.StringSlice("block", nil, "seats to block after provisioning, e.g. A5,B3")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var layout model.SeatLayout
	if *layoutPath != "" {
		var err error
		if layout, err = config.LoadLayout(*layoutPath); err != nil {
			return err
		}
	}

	ev, err := a.catalog.CreateEvent(ctx, service.CreateEventInput{Name: *name, Date: *date, Layout: layout})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created event %d %q on %s\n", ev.ID, ev.Name, ev.DateString())

	for _, raw := range *blocks {
		seatID := strings.ToUpper(strings.TrimSpace(raw))
		seat, err := a.engine.ToggleBlock(ctx, ev.ID, seatID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidTransition) {
				fmt.Fprintf(out, "skip %s: %v\n", seatID, err)
				continue
			}
			return err
		}
		fmt.Fprintf(out, "%s %s\n", seat.ID, seat.Status)
	}
	return nil
}

func (a app) report(ctx context.Context, args []string, out io.Writer) error {
	id, err := parseEventFlag("report", args)
	if err != nil {
		return err
	}
	counts, err := a.reports.StatusCounts(ctx, id)
	if err != nil {
		return err
	}
	rows, err := a.reports.RowSummary(ctx, id)
	if err != nil {
		return err
	}
	writeReport(out, counts, rows)
	return nil
}

func (a app) export(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	id := fs.Int64("event", 0, "event id")
	path := fs.StringP("out", "o", "", "write CSV to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seats, err := a.engine.ListSeats(ctx, *id)
	if err != nil {
		return err
	}
	if *path == "" {
		return service.WriteSeatsCSV(out, seats)
	}
	f, err := os.Create(*path)
	if err != nil {
		return err
	}
	if err := service.WriteSeatsCSV(f, seats); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (a app) reset(ctx context.Context, args []string, out io.Writer) error {
	id, err := parseEventFlag("reset", args)
	if err != nil {
		return err
	}
	n, err := a.catalog.ResetEvent(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "reset %d seats of event %d to available\n", n, id)
	return nil
}

func parseEventFlag(name string, args []string) (int64, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	id := fs.Int64("event", 0, "event id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *id <= 0 {
		return 0, errors.New("--event is required")
	}
	return *id, nil
}

// writeReport prints statuses in canonical order, then one line per row.
func writeReport(out io.Writer, counts model.StatusCounts, rows []model.RowSummary) {
	statuses := make([]model.SeatStatus, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	rank := make(map[model.SeatStatus]int, len(model.AllStatuses))
	for i, s := range model.AllStatuses {
		rank[s] = i
	}
	sort.Slice(statuses, func(i, j int) bool { return rank[statuses[i]] < rank[statuses[j]] })

	for _, s := range statuses {
		fmt.Fprintf(out, "%-10s %d\n", s, counts[s])
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-4s %5s %5s %9s\n", "row", "total", "sold", "validated")
	for _, r := range rows {
		fmt.Fprintf(out, "%-4s %5d %5d %9d\n", r.Row, r.Total, r.Sold, r.Validated)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `seatctl manages events and seats directly in the inventory database.

Usage:
  seatctl provision --name NAME --date YYYY-MM-DD [--layout FILE] [--block A5,B3]
  seatctl report --event ID
  seatctl export --event ID [--out FILE]
  seatctl reset --event ID

Configuration is read from .env and the environment (DB_DRIVER, DB_*, DATABASE_URL).
Seat changes are published to RabbitMQ unless SEAT_EVENTS_ENABLED=false.
`)
}
