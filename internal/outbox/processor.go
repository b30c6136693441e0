package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	"chatter-server/pkg/logger"
)

// Processor drains pending outbox rows and publishes them to Redis.
// Events are scanned in creation order by a single loop, which is what
// keeps the realtime channel in commit order per project. A failed
// publish increments the retry count and the row is picked up again on
// the next tick; the originating write is never affected.
type Processor struct {
	repo      repository.OutboxRepository
	publisher events.Publisher
	resolver  events.ChannelResolver
	log       *logger.Logger
	batchSize int
	interval  time.Duration
}

func NewProcessor(repo repository.OutboxRepository, publisher events.Publisher, resolver events.ChannelResolver, log *logger.Logger, batchSize int, interval time.Duration) *Processor {
	return &Processor{
		repo:      repo,
		publisher: publisher,
		resolver:  resolver,
		log:       log,
		batchSize: batchSize,
		interval:  interval,
	}
}

func DefaultProcessor(repo repository.OutboxRepository, publisher events.Publisher, log *logger.Logger) *Processor {
	return NewProcessor(repo, publisher, events.NewScopedChannelResolver(), log, 100, 500*time.Millisecond)
}

func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// Start launches the processing loop in the background.
func (p *Processor) Start(ctx context.Context) {
	go p.Run(ctx)
}

func (p *Processor) processBatch(ctx context.Context) {
	batch, err := p.repo.GetPending(ctx, p.batchSize)
	if err != nil {
		p.log.Errorf("outbox: fetch pending: %v", err)
		return
	}

	for _, e := range batch {
		env := events.Envelope{
			EventType:     e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			ProjectID:     e.ProjectID,
			RecipientID:   e.RecipientID,
			OccurredAt:    e.CreatedAt.UTC(),
			Payload:       json.RawMessage(e.Payload),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			if mErr := p.repo.MarkFailed(ctx, e.ID, err.Error()); mErr != nil {
				p.log.Errorf("outbox: mark failed %s: %v", e.ID, mErr)
			}
			continue
		}

		published := true
		for _, channel := range p.resolver.ResolveChannels(env) {
			if err := p.publisher.Publish(ctx, channel, payload); err != nil {
				published = false
				p.log.Errorf("outbox: publish %s to %s: %v", e.EventType, channel, err)
				if mErr := p.repo.MarkFailed(ctx, e.ID, err.Error()); mErr != nil {
					p.log.Errorf("outbox: mark failed %s: %v", e.ID, mErr)
				}
				break
			}
		}
		if !published {
			continue
		}

		if err := p.repo.MarkCompleted(ctx, e.ID); err != nil {
			p.log.Errorf("outbox: mark completed %s: %v", e.ID, err)
			continue
		}
		p.log.Logger.Debug("outbox event published",
			zap.String("event_type", e.EventType),
			zap.String("aggregate_id", e.AggregateID))
	}
}
