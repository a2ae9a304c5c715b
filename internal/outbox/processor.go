package outbox

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Canis-Ignem/total-keepers-be/internal/infrastructure/kafka"
	"github.com/Canis-Ignem/total-keepers-be/internal/repository/outbox_repo"
)

// Processor drains the transactional outbox: order events are written to the
// outbox table in the same transaction as the state change, and this loop
// publishes them to Kafka afterwards. Each drain claims its batch with
// FOR UPDATE SKIP LOCKED inside one transaction, so concurrent instances
// never publish the same message twice in a tick. Delivery is still
// at-least-once across crashes; consumers deduplicate on message ID.
type Processor struct {
	db           *sql.DB
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka.Producer,
	pollInterval, pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor", zap.Duration("poll_interval", p.pollInterval))
	go func() {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.drain(ctx)
			case <-p.stop:
				p.logger.Info("Outbox processor stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

func (p *Processor) drain(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(pollCtx, nil)
	if err != nil {
		p.logger.Error("Failed to begin outbox drain transaction", zap.Error(err))
		return
	}
	defer tx.Rollback()

	messages, err := p.outboxRepo.GetUnsentMessagesTx(pollCtx, tx)
	if err != nil {
		p.logger.Error("Failed to claim unsent outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Debug("Draining outbox", zap.Int("count", len(messages)))
	for _, msg := range messages {
		if err := p.producer.Produce(pollCtx, msg.Topic, []byte(msg.ID), msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			// Leave the message pending; the whole batch stays claimed
			// until commit, so nothing else races on it meanwhile.
			continue
		}
		if err := p.outboxRepo.MarkMessageSentTx(pollCtx, tx, msg.ID); err != nil {
			p.logger.Error("Failed to mark outbox message sent",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		p.logger.Error("Failed to commit outbox drain", zap.Error(err))
	}
}
