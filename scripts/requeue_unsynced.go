package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"empdesk/internal/models"
	"empdesk/internal/outbox"
	"empdesk/internal/store"

	"github.com/rs/zerolog"
)

// Maintenance tool: scans every collection for records stuck unsynced
// without a pending action and re-enqueues them. The services run the
// same repair on reads; this covers stores that are only drained
// headlessly.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	dbPath := flag.String("db", "./data/empdesk.db", "path to the local store")
	dryRun := flag.Bool("dry-run", false, "report orphaned records without enqueuing")
	flag.Parse()

	s, err := store.Open(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	queue := outbox.NewQueue(s, outbox.NewRegistry(), nil, 0, &logger)

	total := 0

	punches, err := store.Punches(s).All(ctx)
	if err != nil {
		return err
	}
	for _, p := range punches {
		if p.Synced {
			continue
		}
		n, err := requeue(ctx, s, queue, models.ActionPunch, "id", p.ID, p, *dryRun)
		if err != nil {
			return err
		}
		total += n
	}

	leaves, err := store.Leaves(s).All(ctx)
	if err != nil {
		return err
	}
	for _, l := range leaves {
		if l.Synced {
			continue
		}
		n, err := requeue(ctx, s, queue, models.ActionLeave, "leave_id", l.LeaveID, l, *dryRun)
		if err != nil {
			return err
		}
		total += n
	}

	moods, err := store.Moods(s).All(ctx)
	if err != nil {
		return err
	}
	for _, m := range moods {
		if m.Synced {
			continue
		}
		n, err := requeue(ctx, s, queue, models.ActionMood, "id", m.ID, m, *dryRun)
		if err != nil {
			return err
		}
		total += n
	}

	tickets, err := store.Tickets(s).All(ctx)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if t.Synced {
			continue
		}
		n, err := requeue(ctx, s, queue, models.ActionTicket, "ticket_id", t.TicketID, t, *dryRun)
		if err != nil {
			return err
		}
		total += n
	}

	depth, err := queue.Depth(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("requeued", total).Int("queue_depth", depth).Bool("dry_run", *dryRun).Msg("Repair scan complete")
	return nil
}

func requeue(ctx context.Context, s *store.Store, queue *outbox.Queue, kind models.ActionKind, field, id string, record any, dryRun bool) (int, error) {
	queued, err := s.HasActionForPayloadID(ctx, kind, field, id)
	if err != nil {
		return 0, err
	}
	if queued {
		return 0, nil
	}

	if dryRun {
		raw, _ := json.Marshal(record)
		fmt.Printf("orphaned %s %s: %s\n", kind, id, raw)
		return 1, nil
	}

	if _, err := queue.Enqueue(ctx, kind, record); err != nil {
		return 0, fmt.Errorf("enqueue %s %s: %w", kind, id, err)
	}
	return 1, nil
}
