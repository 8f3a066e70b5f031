package telegram

import (
	"context"

	"github.com/aatumaykin/postbot/internal/logger"
	"github.com/aatumaykin/postbot/internal/workers"
	"github.com/mymmrac/telego"
)

// poll hands every update to the worker owning its sender, so one owner's
// updates are handled in arrival order.
func (c *Connector) poll(updates <-chan telego.Update) {
	defer c.wg.Done()
	c.logger.Info("long polling started")

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				c.logger.Info("updates channel closed")
				return
			}
			c.dispatch(update)
		}
	}
}

func (c *Connector) dispatch(update telego.Update) {
	key, kind := routeKey(update)
	if kind == "" {
		c.metrics.RecordUpdate("ignored")
		return
	}
	c.metrics.RecordUpdate(kind)

	job := workers.Job{
		Key:  key,
		Name: kind,
		Run: func(ctx context.Context) error {
			return c.handleUpdate(ctx, update)
		},
	}
	if err := c.pool.Submit(c.ctx, job); err != nil {
		c.logger.WarnCtx(c.ctx, "update dropped",
			logger.Field{Key: "update_id", Value: update.UpdateID},
			logger.Field{Key: "reason", Value: err.Error()})
	}
}

// routeKey returns the sender ID and the update kind; an empty kind means
// the update is not for us.
func routeKey(update telego.Update) (int64, string) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, "message"
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, "callback"
	}
	return 0, ""
}

// handleUpdate processes one Telegram update synchronously.
func (c *Connector) handleUpdate(ctx context.Context, update telego.Update) error {
	switch {
	case update.Message != nil:
		return c.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return c.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}
