package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/crm/internal/domain"
)

const (
	reminderJob      = "order-reminders"
	reminderInterval = 24 * time.Hour
	reminderBatch    = 1000
)

// ReminderSource отдаёт недавние заказы с email клиента, читая хранилище страницами по batch.
type ReminderSource interface {
	RecentOrderReminders(ctx context.Context, batch int) ([]domain.OrderReminder, error)
}

// ReminderWorker пишет в журнал напоминания по заказам за последнюю неделю.
type ReminderWorker struct {
	source ReminderSource
	runner runner
}

func NewReminderWorker(source ReminderSource, options ...Option) *ReminderWorker {
	return &ReminderWorker{source: source, runner: newRunner(reminderJob, reminderInterval, options)}
}

func (w *ReminderWorker) Run(ctx context.Context) {
	w.runner.loop(ctx, w.remind)
}

func (w *ReminderWorker) RunOnce(ctx context.Context) error {
	return w.runner.execute(ctx, w.remind)
}

func (w *ReminderWorker) remind(ctx context.Context) error {
	logger := w.runner.logger()

	reminders, err := w.source.RecentOrderReminders(ctx, reminderBatch)
	if err != nil {
		logger.WithError(err).Error("error fetching orders")
		return fmt.Errorf("recent order reminders: %w", err)
	}

	for _, r := range reminders {
		logger.Info(fmt.Sprintf("Order ID: %s, Customer Email: %s", r.OrderID, r.CustomerEmail))
	}
	logger.WithField("count", len(reminders)).Info("Order reminders processed!")
	return nil
}
