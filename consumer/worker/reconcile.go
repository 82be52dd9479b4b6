package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cinevault/cinevault/entity"
	"github.com/cinevault/cinevault/infra"
	"github.com/cinevault/cinevault/infra/produce"
	"github.com/cinevault/cinevault/repository"
	"github.com/cinevault/cinevault/service"
)

// staleSessionAge is how long a session may sit in a non-terminal
// state before the periodic sweep treats it as abandoned.
const staleSessionAge = 24 * time.Hour

// staleSweepInterval is how often the periodic sweep runs.
const staleSweepInterval = time.Hour

// ReconcileConsumer cleans up after failed uploads. It removes partial
// objects under the reserved movie prefix, deletes the dead session
// row, and verifies that committed uploads actually left both assets
// in storage.
type ReconcileConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

func NewReconcileConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *ReconcileConsumer {
	return &ReconcileConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

func (c *ReconcileConsumer) Start(ctx context.Context) error {
	if err := c.startReconcileConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start reconcile consumer: %w", err)
	}
	if err := c.startUploadedConsumer(ctx); err != nil {
		return fmt.Errorf("failed to start uploaded consumer: %w", err)
	}
	go c.runStaleSweep(ctx)
	return nil
}

func (c *ReconcileConsumer) startReconcileConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.ReconcileUploadQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register reconcile consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Started listening on queue: %s", produce.ReconcileUploadQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Reconcile Consumer] Channel closed")
					return
				}
				c.handleReconcile(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ReconcileConsumer) handleReconcile(ctx context.Context, msg amqp.Delivery) {
	var payload produce.ReconcileUploadMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	uploadID, err := uuid.Parse(payload.UploadID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Invalid upload ID: %s", payload.UploadID)
		_ = msg.Nack(false, false)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Reconcile Consumer] Sweeping upload %s (reason: %s)", uploadID, payload.Reason)

	if err := c.sweepUpload(ctx, uploadID, payload.StoragePrefix); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Reconcile Consumer] Failed to sweep upload %s: %v", uploadID, err)
		// Requeue once; a poisoned message is dropped on redelivery.
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	_ = msg.Ack(false)
}

// sweepUpload removes everything under the reserved prefix and the
// session row. A committed movie record means the failure signal was
// stale and the sweep must not touch the assets.
func (c *ReconcileConsumer) sweepUpload(ctx context.Context, uploadID uuid.UUID, prefix string) error {
	if _, err := c.repository.MovieRepo.FindByID(uploadID); err == nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Reconcile Consumer] Upload %s has a committed record, skipping sweep", uploadID)
		_ = c.repository.UploadSessionRepo.UpdateStatus(uploadID, entity.UploadStatusCompleted)
		return nil
	}

	if err := c.infra.Minio.RemovePrefix(ctx, prefix); err != nil {
		return fmt.Errorf("failed to remove objects under %s: %w", prefix, err)
	}

	if err := c.repository.UploadSessionRepo.Delete(uploadID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", uploadID, err)
	}

	return nil
}

func (c *ReconcileConsumer) startUploadedConsumer(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.MovieUploadedQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register uploaded consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Uploaded Consumer] Started listening on queue: %s", produce.MovieUploadedQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Uploaded Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Uploaded Consumer] Channel closed")
					return
				}
				c.handleUploaded(ctx, msg)
			}
		}
	}()

	return nil
}

// handleUploaded verifies that a committed movie actually has both
// its assets in storage. A committed record is never swept, so a
// missing asset is logged for manual follow-up rather than reconciled.
func (c *ReconcileConsumer) handleUploaded(ctx context.Context, msg amqp.Delivery) {
	var payload produce.MovieUploadedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Uploaded Consumer] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	for _, key := range []string{payload.FilePath, payload.ThumbnailPath} {
		exists, err := c.infra.Minio.ObjectExists(ctx, key)
		if err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Uploaded Consumer] Failed to verify object %s: %v", key, err)
			_ = msg.Nack(false, !msg.Redelivered)
			return
		}
		if !exists {
			c.infra.Logger.ErrorWithContextf(ctx, nil, "[Uploaded Consumer] Movie %s is missing object %s", payload.MovieID, key)
		}
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Uploaded Consumer] Verified assets for movie %s", payload.MovieID)
	_ = msg.Ack(false)
}

// runStaleSweep periodically reaps sessions that never reached a
// terminal state, covering crashes where no reconcile message made it
// onto the queue.
func (c *ReconcileConsumer) runStaleSweep(ctx context.Context) {
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.infra.Logger.InfoWithContextf(ctx, "[Stale Sweep] Shutting down...")
			return
		case <-ticker.C:
			c.sweepStaleSessions(ctx)
		}
	}
}

func (c *ReconcileConsumer) sweepStaleSessions(ctx context.Context) {
	cutoff := time.Now().Add(-staleSessionAge)
	sessions, err := c.repository.UploadSessionRepo.FindStale(cutoff)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Stale Sweep] Failed to list stale sessions: %v", err)
		return
	}

	for _, session := range sessions {
		if err := c.sweepUpload(ctx, session.ID, service.StoragePrefix(session.ID)); err != nil {
			c.infra.Logger.ErrorWithContextf(ctx, err, "[Stale Sweep] Failed to sweep session %s: %v", session.ID, err)
			continue
		}
		c.infra.Logger.InfoWithContextf(ctx, "[Stale Sweep] Reaped stale session %s", session.ID)
	}
}
