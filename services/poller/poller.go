package poller

import (
	"context"
	"sync"
	"time"

	"github.com/mailboost/mailboost/dto"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/logger"
	"github.com/mailboost/mailboost/internal/tracing"
	"github.com/mailboost/mailboost/internal/utils"
)

// Poller drives the mailbox processor at a fixed interval, forever. Passes
// run strictly one at a time on the poller's own goroutine; a manual
// trigger only wakes that goroutine early, it never runs a pass itself.
type Poller struct {
	interval  time.Duration
	processor interfaces.MailboxProcessor
	log       logger.Logger

	trigger chan string
	stop    chan struct{}
	done    chan struct{}

	mu           sync.Mutex
	running      bool
	passes       int64
	failedPasses int64
	lastReport   *dto.PassReport
	nextPassDue  time.Time
}

func NewPoller(interval time.Duration, processor interfaces.MailboxProcessor, log logger.Logger) *Poller {
	return &Poller{
		interval:  interval,
		processor: processor,
		log:       log,
		trigger:   make(chan string, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the loop. The first pass runs immediately; every later
// pass waits for the interval or an early trigger, whichever comes first.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.log.Infof("Poll loop started, interval %s", p.interval)
	p.runPass(ctx, "startup")

	for {
		p.mu.Lock()
		p.nextPassDue = utils.Now().Add(p.interval)
		p.mu.Unlock()

		timer := time.NewTimer(p.interval)
		select {
		case <-p.stop:
			timer.Stop()
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			p.log.Info("Poll loop stopped")
			return
		case source := <-p.trigger:
			timer.Stop()
			p.log.Infof("Pass triggered early by %s", source)
			p.runPass(ctx, source)
		case <-timer.C:
			p.runPass(ctx, "interval")
		}
	}
}

// runPass executes one pass with panic isolation: whatever escapes the
// processor is logged and the loop keeps its schedule.
func (p *Poller) runPass(ctx context.Context, trigger string) {
	defer tracing.RecoverAndLogToJaeger(p.log)

	passCtx := utils.WithPassContext(ctx, &utils.PassContext{
		PassID:  utils.NewID("pass"),
		Trigger: trigger,
	})

	report := p.processor.RunPass(passCtx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.passes++
	if report.Failed() {
		p.failedPasses++
	}
	p.lastReport = report
}

// Trigger asks the loop to run a pass now. Returns false when a trigger is
// already pending.
func (p *Poller) Trigger(source string) bool {
	select {
	case p.trigger <- source:
		return true
	default:
		return false
	}
}

// Stop ends the loop, waiting out an in-flight pass until ctx expires.
func (p *Poller) Stop(ctx context.Context) error {
	close(p.stop)
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status snapshots the loop state for the ops API.
func (p *Poller) Status() dto.PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := dto.PollerStatus{
		Running:      p.running,
		Interval:     p.interval.String(),
		Passes:       p.passes,
		FailedPasses: p.failedPasses,
		LastPass:     p.lastReport,
	}
	if p.running && !p.nextPassDue.IsZero() {
		due := p.nextPassDue
		status.NextPassDue = &due
	}
	return status
}
