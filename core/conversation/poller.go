package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AvaProtocol/ercx-bot/core/ercx"
	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultPollTimeout  = 300 * time.Second
)

var ErrPollInProgress = errors.New("a report poll is already running for this user")

// PollJob is one report the bot waits for on behalf of a user.
type PollJob struct {
	ID     string
	UserID int64
	ChatID int64
	Query  model.ReportQuery
}

type (
	ReadyFunc   func(ctx context.Context, job PollJob, results []model.PropertyResult)
	TimeoutFunc func(ctx context.Context, job PollJob)
	// StoppedFunc runs when the poll is cancelled. Its ctx is detached from
	// the cancelled one so the session can still be written.
	StoppedFunc func(ctx context.Context, job PollJob)
)

// Poller re-fetches a freshly requested report until it is available or the
// timeout is reached. A user has at most one poll running.
type Poller struct {
	reports   ReportService
	messenger Messenger
	metrics   metrics.BotMetrics
	logger    logger.Logger

	interval time.Duration
	timeout  time.Duration
	spawn    func(func())

	lock     sync.Mutex
	inflight map[int64]string
	wg       sync.WaitGroup
}

func NewPoller(reports ReportService, messenger Messenger, m metrics.BotMetrics, log logger.Logger, interval, timeout time.Duration, spawn func(func())) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}

	return &Poller{
		reports:   reports,
		messenger: messenger,
		metrics:   m,
		logger:    logger.OrNop(log),
		interval:  interval,
		timeout:   timeout,
		spawn:     spawn,
		inflight:  make(map[int64]string),
	}
}

// Attempts is the number of fetches a poll makes before giving up.
func (p *Poller) Attempts() int {
	n := int(p.timeout / p.interval)
	if n < 1 {
		return 1
	}
	return n
}

func (p *Poller) Busy(userID int64) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	_, ok := p.inflight[userID]
	return ok
}

func (p *Poller) Active() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.inflight)
}

// Start launches the poll in its own goroutine. The poll lives until the
// report is ready, the attempts run out or ctx is cancelled. Exactly one of
// the callbacks runs for every started poll.
func (p *Poller) Start(ctx context.Context, job PollJob, onReady ReadyFunc, onTimeout TimeoutFunc, onStopped StoppedFunc) error {
	p.lock.Lock()
	if _, ok := p.inflight[job.UserID]; ok {
		p.lock.Unlock()
		return ErrPollInProgress
	}
	p.inflight[job.UserID] = job.ID
	active := len(p.inflight)
	p.lock.Unlock()

	p.metrics.SetActivePolls(active)

	p.wg.Add(1)
	p.spawn(func() {
		defer p.wg.Done()
		defer p.finish(job.UserID)
		p.run(ctx, job, onReady, onTimeout, onStopped)
	})
	return nil
}

// Wait blocks until every running poll has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) finish(userID int64) {
	p.lock.Lock()
	delete(p.inflight, userID)
	active := len(p.inflight)
	p.lock.Unlock()

	p.metrics.SetActivePolls(active)
}

func (p *Poller) run(ctx context.Context, job PollJob, onReady ReadyFunc, onTimeout TimeoutFunc, onStopped StoppedFunc) {
	log := p.logger.With("poll_id", job.ID, "user_id", job.UserID, "query", job.Query.Key())
	log.Info("start polling for report", "interval", p.interval, "attempts", p.Attempts())

	progressID, err := p.messenger.SendMessage(ctx, job.ChatID, reportProgressText, nil)
	if err != nil {
		log.Warn("cannot send progress message", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 0; attempt < p.Attempts(); attempt++ {
		results, err := p.reports.FetchReport(ctx, job.Query)
		switch {
		case err == nil:
			log.Info("report is ready", "attempt", attempt+1)
			p.metrics.IncPoll("ready")
			onReady(ctx, job, results)
			return
		case errors.Is(err, ercx.ErrReportNotFound):
		default:
			log.Warn("report check failed, retrying", "attempt", attempt+1, "error", err)
		}

		if progressID != 0 {
			elapsed := time.Duration(attempt) * p.interval
			if err := p.messenger.EditMessage(ctx, job.ChatID, progressID, progressText(elapsed)); err != nil {
				log.Debug("cannot update progress message", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			log.Info("polling cancelled", "attempt", attempt+1)
			p.metrics.IncPoll("cancelled")
			onStopped(context.WithoutCancel(ctx), job)
			return
		case <-ticker.C:
		}
	}

	log.Warn("report is not ready before the timeout", "timeout", p.timeout)
	p.metrics.IncPoll("timeout")
	onTimeout(ctx, job)
}
