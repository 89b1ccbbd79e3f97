package job

import (
	"context"
	"log"
	"time"

	"trxmining/internal/infrastructure/mq"
	"trxmining/internal/repository"
)

const outboxBatchSize = 100

// OutboxSender ships pending outbox rows to Kafka on a timer. A row is
// marked SENT only after the broker acknowledged it; delivery is therefore
// at-least-once and consumers dedupe on the message key.
type OutboxSender struct {
	outbox   *repository.OutboxRepository
	interval time.Duration
	maxRetry int
}

func NewOutboxSender(outbox *repository.OutboxRepository, interval time.Duration, maxRetry int) *OutboxSender {
	return &OutboxSender{outbox: outbox, interval: interval, maxRetry: maxRetry}
}

func (j *OutboxSender) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		log.Println("[OutboxSender] started")
		for {
			select {
			case <-ctx.Done():
				log.Println("[OutboxSender] stopped")
				return
			case <-ticker.C:
				j.runOnce()
			}
		}
	}()
}

func (j *OutboxSender) runOnce() {
	messages, err := j.outbox.GetPending(nil, outboxBatchSize)
	if err != nil {
		log.Printf("[OutboxSender] fetch pending failed: %v", err)
		return
	}
	for _, msg := range messages {
		if err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload); err != nil {
			log.Printf("[OutboxSender] send id=%d failed: %v", msg.ID, err)
			if err := j.outbox.MarkRetry(nil, msg.ID, j.maxRetry); err != nil {
				log.Printf("[OutboxSender] mark retry id=%d failed: %v", msg.ID, err)
			}
			continue
		}
		if err := j.outbox.MarkSent(nil, msg.ID); err != nil {
			log.Printf("[OutboxSender] mark sent id=%d failed: %v", msg.ID, err)
		}
	}
}
