package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReminderInterval is how often reminders are recomputed.
const DefaultReminderInterval = time.Minute

// NotificationRefresher recomputes the current principal's notifications.
type NotificationRefresher interface {
	RefreshNotifications(ctx context.Context, now time.Time) []Notification
}

// ReminderWatcher recomputes reminders on a fixed interval while a trainee is
// signed in. It subscribes to principal changes and starts or stops itself.
type ReminderWatcher struct {
	refresher NotificationRefresher
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
	userID    int
}

// NewReminderWatcher constructs a stopped watcher.
func NewReminderWatcher(refresher NotificationRefresher, interval time.Duration, now func() time.Time, logger *slog.Logger) *ReminderWatcher {
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	if now == nil {
		now = time.Now
	}
	return &ReminderWatcher{
		refresher: refresher,
		interval:  interval,
		now:       now,
		logger:    defaultLogger(logger).With("service", "ReminderWatcher"),
	}
}

// PrincipalChanged starts the watcher for trainees and stops it otherwise.
func (w *ReminderWatcher) PrincipalChanged(ctx context.Context, current *User) {
	if current != nil && current.Role == RoleTrainee {
		w.Start(ctx, current.ID)
		return
	}
	w.Stop()
}

// Start evaluates reminders immediately and then on every interval. A running
// watcher is restarted.
func (w *ReminderWatcher) Start(ctx context.Context, userID int) {
	ctx = context.WithoutCancel(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	w.evaluate(ctx)

	scheduler := cron.New(cron.WithChain(
		cron.Recover(cronLogger{w.logger}),
		cron.SkipIfStillRunning(cronLogger{w.logger}),
	))
	scheduler.Schedule(cron.Every(w.interval), cron.FuncJob(func() { w.evaluate(ctx) }))
	scheduler.Start()

	w.scheduler = scheduler
	w.userID = userID
	w.logger.InfoContext(ctx, "reminder watcher started", "user_id", userID, "interval", w.interval)
}

// Stop cancels the recurring evaluation and waits for a running one to finish.
func (w *ReminderWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// Running reports whether the watcher is scheduled.
func (w *ReminderWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scheduler != nil
}

func (w *ReminderWatcher) stopLocked() {
	if w.scheduler == nil {
		return
	}
	<-w.scheduler.Stop().Done()
	w.logger.Info("reminder watcher stopped", "user_id", w.userID)
	w.scheduler = nil
	w.userID = 0
}

func (w *ReminderWatcher) evaluate(ctx context.Context) {
	notifications := w.refresher.RefreshNotifications(ctx, w.now())
	w.logger.DebugContext(ctx, "reminders evaluated", "notifications", len(notifications))
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
