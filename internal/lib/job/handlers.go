package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/cafe-menu/internal/config"
	"github.com/deppfellow/cafe-menu/internal/lib/email"
)

// menuNotifier is implemented by *email.Client.
type menuNotifier interface {
	Enabled() bool
	SendMenuChangedEmail(to string, change email.MenuChange) error
}

// InitHandlers initializes dependencies required by job handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.notifier = email.NewClient(cfg, logger)
	j.notifyTo = cfg.Integration.NotificationEmail
}

// handleMenuChangedTask emails staff about a menu write.
//
// Returning an error makes Asynq mark the task failed and schedule a retry.
// A malformed payload is never going to succeed, so it skips retries.
func (j *JobService) handleMenuChangedTask(ctx context.Context, t *asynq.Task) error {
	var p MenuChangedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal menu changed payload: %v: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskMenuChanged).
		Str("action", p.Action).
		Int64("menu_id", p.MenuID).
		Logger()

	if j.notifier == nil || !j.notifier.Enabled() || j.notifyTo == "" {
		log.Info().Msg("Menu change notification skipped: email not configured")
		return nil
	}

	log.Info().Str("to", j.notifyTo).Msg("Processing menu change notification")

	err := j.notifier.SendMenuChangedEmail(j.notifyTo, email.MenuChange{
		Action: p.Action,
		MenuID: p.MenuID,
		Name:   p.Name,
		Price:  p.Price,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send menu change notification")
		return err
	}

	log.Info().Msg("Successfully sent menu change notification")
	return nil
}
