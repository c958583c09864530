package syncx

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/mind-engage/satportal/internal/metrics"
)

type Outbox interface {
	Pending(ctx context.Context, limit int) ([]Event, error)
	MarkDelivered(ctx context.Context, seq int64) error
}

type Sender interface {
	Publish(ctx context.Context, e Event) error
}

// Relay moves outbox rows to the broker on a cron schedule.
type Relay struct {
	outbox Outbox
	sender Sender
	batch  int
	cron   *cron.Cron
}

func NewRelay(outbox Outbox, sender Sender, batch int) *Relay {
	if batch <= 0 {
		batch = 100
	}
	return &Relay{outbox: outbox, sender: sender, batch: batch}
}

// RunOnce publishes one batch in order and stops at the first failure so
// events are never delivered out of sequence.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.outbox.Pending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, e := range events {
		err := r.sender.Publish(ctx, e)
		metrics.EventRelayed(err)
		if err != nil {
			return sent, err
		}
		if err := r.outbox.MarkDelivered(ctx, e.Seq); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Start schedules RunOnce, e.g. spec "@every 30s".
func (r *Relay) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := r.RunOnce(context.Background())
		if err != nil {
			log.Printf("[EVENT-RELAY] relayed %d event(s), stopped on error: %v", n, err)
			return
		}
		if n > 0 {
			log.Printf("[EVENT-RELAY] relayed %d event(s)", n)
		}
	})
	if err != nil {
		return err
	}
	r.cron = c
	c.Start()
	log.Printf("[EVENT-RELAY] started (%s)", spec)
	return nil
}

func (r *Relay) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
