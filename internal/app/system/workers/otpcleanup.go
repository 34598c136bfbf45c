// internal/app/system/workers/otpcleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	agendaitemstore "github.com/condovote/assemblyhub/internal/app/store/agendaitems"
	assemblystore "github.com/condovote/assemblyhub/internal/app/store/assemblies"
	"go.uber.org/zap"
)

// OTPCleanup is a background worker that strips expired check-in and
// voting codes from their assemblies and agenda items.
type OTPCleanup struct {
	assemblies *assemblystore.Store
	items      *agendaitemstore.Store
	log        *zap.Logger
	interval   time.Duration
	now        func() time.Time
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewOTPCleanup creates a new code cleanup worker that runs every interval.
func NewOTPCleanup(assemblies *assemblystore.Store, items *agendaitemstore.Store, logger *zap.Logger, interval time.Duration) *OTPCleanup {
	return &OTPCleanup{
		assemblies: assemblies,
		items:      items,
		log:        logger,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *OTPCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("otp cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OTPCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("otp cleanup worker stopped")
}

func (w *OTPCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one cleanup pass and returns how many codes it removed.
func (w *OTPCleanup) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := w.now()
	var total int64

	n, err := w.assemblies.ClearExpiredCheckinOTP(ctx, now)
	if err != nil {
		w.log.Error("failed to clear expired check-in codes", zap.Error(err))
	}
	total += n

	n, err = w.items.ClearExpiredVotingOTP(ctx, now)
	if err != nil {
		w.log.Error("failed to clear expired voting codes", zap.Error(err))
	}
	total += n

	if total > 0 {
		w.log.Info("cleared expired codes", zap.Int64("count", total))
	}
	return total
}
