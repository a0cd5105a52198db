package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/AvaProtocol/ercx-bot/core/ercx"
	"github.com/AvaProtocol/ercx-bot/core/session"
	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
)

var (
	errStandardNotSelected = errors.New("standard not selected")
	errNothingPending      = errors.New("no address waiting for confirmation")
)

// Options tunes the conversation flow and the report poller.
type Options struct {
	// ConfirmGeneration asks the user before requesting a report for an
	// unknown address. When false the miss is only reported.
	ConfirmGeneration bool
	ReportBaseURL     string

	PollInterval time.Duration
	PollTimeout  time.Duration

	// Spawn runs a poll goroutine. Defaults to a plain go statement.
	Spawn func(func())
}

// DefaultOptions asks before generating and polls every 10s for 300s.
func DefaultOptions() Options {
	return Options{
		ConfirmGeneration: true,
		ReportBaseURL:     ercx.DefaultBaseURL,
		PollInterval:      DefaultPollInterval,
		PollTimeout:       DefaultPollTimeout,
	}
}

// Machine drives the menu flow of every user. It is safe for concurrent use;
// events of one user are serialized by the session store.
type Machine struct {
	store     session.Store
	reports   ReportService
	messenger Messenger
	poller    *Poller
	metrics   metrics.BotMetrics
	logger    logger.Logger
	opts      Options

	// polls outlive the update that started them and stop with the machine
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMachine builds a machine over store. Polls it starts run until Stop.
func NewMachine(store session.Store, reports ReportService, messenger Messenger, m metrics.BotMetrics, log logger.Logger, opts Options) *Machine {
	log = logger.OrNop(log)
	if opts.ReportBaseURL == "" {
		opts.ReportBaseURL = ercx.DefaultBaseURL
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Machine{
		store:     store,
		reports:   reports,
		messenger: messenger,
		poller:    NewPoller(reports, messenger, m, log, opts.PollInterval, opts.PollTimeout, opts.Spawn),
		metrics:   m,
		logger:    log,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *Machine) Poller() *Poller {
	return m.poller
}

// Wait blocks until all running polls are done.
func (m *Machine) Wait() {
	m.poller.Wait()
}

// Stop cancels running polls and waits for them to return.
func (m *Machine) Stop() {
	m.cancel()
	m.poller.Wait()
}

// Start resets the user and shows the standard menu.
func (m *Machine) Start(ctx context.Context, userID, chatID int64) error {
	if _, err := m.store.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return m.send(ctx, chatID, chooseStandardText, standardKeyboard())
}

func (m *Machine) HandleText(ctx context.Context, ev TextEvent) error {
	m.metrics.IncEvent("text")

	if ev.Text == StartCommand || ev.Text == MainMenu {
		return m.Start(ctx, ev.UserID, ev.ChatID)
	}
	if std, ok := model.ParseStandard(ev.Text); ok {
		return m.selectStandard(ctx, ev, std)
	}
	if network, ok := model.ParseNetwork(ev.Text); ok {
		return m.selectNetwork(ctx, ev, network)
	}

	sess, err := m.store.GetOrCreate(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	switch sess.State {
	case model.StatePolling:
		if model.IsValidAddress(ev.Text) {
			return m.send(ctx, ev.ChatID, stillGeneratingText(sess.Address), nil)
		}
		return nil
	case model.StateAwaitingAddress:
		if !sess.Ready() {
			return nil
		}
		if !model.IsValidAddress(ev.Text) {
			return m.send(ctx, ev.ChatID, invalidAddressText(ev.Text), mainMenuKeyboard())
		}
		return m.testAddress(ctx, ev, sess.Query(ev.Text))
	}

	m.logger.Debug("ignore text outside of the menu flow", "user_id", ev.UserID, "state", sess.State)
	return nil
}

func (m *Machine) HandleButton(ctx context.Context, ev ButtonEvent) error {
	m.metrics.IncEvent("button")

	switch ev.Data {
	case ButtonYes:
		return m.confirmGeneration(ctx, ev)
	case ButtonNo:
		return m.Start(ctx, ev.UserID, ev.ChatID)
	}

	m.logger.Warn("drop unknown button", "user_id", ev.UserID, "data", ev.Data)
	return nil
}

func (m *Machine) selectStandard(ctx context.Context, ev TextEvent, std model.Standard) error {
	_, err := m.store.Update(ctx, ev.UserID, func(s *model.Session) error {
		s.Standard = std
		s.PendingAddress = ""
		if s.State != model.StatePolling {
			s.State = model.StateAwaitingNetwork
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("select standard: %w", err)
	}
	return m.send(ctx, ev.ChatID, chooseNetworkText, networkKeyboard())
}

func (m *Machine) selectNetwork(ctx context.Context, ev TextEvent, network model.Network) error {
	sess, err := m.store.Update(ctx, ev.UserID, func(s *model.Session) error {
		if s.Standard == "" {
			return errStandardNotSelected
		}
		s.Network = network
		s.PendingAddress = ""
		if s.State != model.StatePolling {
			s.State = model.StateAwaitingAddress
		}
		return nil
	})
	if errors.Is(err, errStandardNotSelected) {
		m.logger.Debug("ignore network before standard", "user_id", ev.UserID, "network", network)
		return nil
	}
	if err != nil {
		return fmt.Errorf("select network: %w", err)
	}
	return m.send(ctx, ev.ChatID, addressPromptText(sess), mainMenuKeyboard())
}

func (m *Machine) testAddress(ctx context.Context, ev TextEvent, q model.ReportQuery) error {
	if _, err := m.store.Update(ctx, ev.UserID, func(s *model.Session) error {
		s.Checks++
		return nil
	}); err != nil {
		return fmt.Errorf("count check: %w", err)
	}

	results, err := m.reports.FetchReport(ctx, q)
	switch {
	case errors.Is(err, ercx.ErrReportNotFound):
		m.metrics.IncReportLookup("not_found")
		return m.offerGeneration(ctx, ev, q)
	case err != nil:
		m.metrics.IncReportLookup("error")
		m.logger.Error("report lookup failed", "user_id", ev.UserID, "query", q.Key(), "error", err)
		return m.send(ctx, ev.ChatID, serviceFailureText, mainMenuKeyboard())
	}

	m.metrics.IncReportLookup("found")
	return m.sendReport(ctx, ev.ChatID, q, results, true)
}

func (m *Machine) offerGeneration(ctx context.Context, ev TextEvent, q model.ReportQuery) error {
	if !m.opts.ConfirmGeneration {
		return m.send(ctx, ev.ChatID, notFoundText(q), mainMenuKeyboard())
	}

	if _, err := m.store.Update(ctx, ev.UserID, func(s *model.Session) error {
		s.PendingAddress = q.Address
		return nil
	}); err != nil {
		return fmt.Errorf("remember pending address: %w", err)
	}
	return m.send(ctx, ev.ChatID, generatePromptText(q), confirmKeyboard())
}

func (m *Machine) confirmGeneration(ctx context.Context, ev ButtonEvent) error {
	if m.poller.Busy(ev.UserID) {
		return m.send(ctx, ev.ChatID, pollBusyText, nil)
	}

	sess, err := m.store.Update(ctx, ev.UserID, func(s *model.Session) error {
		if s.PendingAddress == "" || !s.Ready() {
			return errNothingPending
		}
		s.Address = s.PendingAddress
		s.PendingAddress = ""
		s.State = model.StatePolling
		return nil
	})
	if errors.Is(err, errNothingPending) {
		m.logger.Debug("drop stale confirmation", "user_id", ev.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("confirm generation: %w", err)
	}

	q := sess.Query(sess.Address)
	if ev.MessageID != 0 {
		if err := m.messenger.EditMessage(ctx, ev.ChatID, ev.MessageID, generationAcceptedText(q.Address)); err != nil {
			m.logger.Warn("cannot update confirmation message", "user_id", ev.UserID, "error", err)
		}
	}

	handle, err := m.reports.RequestGeneration(ctx, q)
	if err != nil {
		m.metrics.IncGeneration("error")
		m.logger.Error("report generation request failed", "user_id", ev.UserID, "query", q.Key(), "error", err)
		m.leavePolling(ctx, ev.UserID, q)
		return m.send(ctx, ev.ChatID, serviceFailureText, mainMenuKeyboard())
	}
	m.metrics.IncGeneration("requested")

	job := PollJob{
		ID:     ulid.Make().String(),
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Query:  q,
	}
	m.logger.Info("report generation requested", "user_id", ev.UserID, "poll_id", job.ID, "report_id", handle.ReportID, "progress", handle.Progress)

	if err := m.poller.Start(m.ctx, job, m.onReportReady, m.onPollTimeout, m.onPollStopped); err != nil {
		// another confirmation won the race, its poll owns the session
		return m.send(ctx, ev.ChatID, pollBusyText, nil)
	}
	return nil
}

// leavePolling moves the session back to address input if it is still polling
// for q. It reports false when the user has moved on in the meantime.
func (m *Machine) leavePolling(ctx context.Context, userID int64, q model.ReportQuery) bool {
	moved := false
	_, err := m.store.Update(ctx, userID, func(s *model.Session) error {
		if s.State != model.StatePolling || s.Address != q.Address {
			return nil
		}
		s.State = model.StateAwaitingAddress
		s.Address = ""
		moved = true
		return nil
	})
	if err != nil {
		m.logger.Error("cannot leave polling state", "user_id", userID, "error", err)
		return false
	}
	return moved
}

func (m *Machine) onReportReady(ctx context.Context, job PollJob, results []model.PropertyResult) {
	stillWaiting := m.leavePolling(ctx, job.UserID, job.Query)
	if err := m.sendReport(ctx, job.ChatID, job.Query, results, stillWaiting); err != nil {
		m.logger.Error("cannot deliver report", "poll_id", job.ID, "error", err)
	}
}

func (m *Machine) onPollTimeout(ctx context.Context, job PollJob) {
	m.leavePolling(ctx, job.UserID, job.Query)
	if err := m.send(ctx, job.ChatID, timeoutText(job.Query.Address), mainMenuKeyboard()); err != nil {
		m.logger.Error("cannot deliver timeout notice", "poll_id", job.ID, "error", err)
	}
}

func (m *Machine) onPollStopped(ctx context.Context, job PollJob) {
	if m.leavePolling(ctx, job.UserID, job.Query) {
		m.logger.Info("poll stopped, session back to address input", "poll_id", job.ID, "user_id", job.UserID)
	}
}

// Recover moves sessions left in polling by a previous process back to
// address input. No poll survives a restart, so such a session would
// otherwise never leave the polling state.
func (m *Machine) Recover(ctx context.Context) (int, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	recovered := 0
	for _, sess := range sessions {
		if sess.State != model.StatePolling || m.poller.Busy(sess.UserID) {
			continue
		}
		if m.leavePolling(ctx, sess.UserID, sess.Query(sess.Address)) {
			recovered++
		}
	}
	return recovered, nil
}

// sendReport renders the summary and, when prompt is set, asks for the next address.
func (m *Machine) sendReport(ctx context.Context, chatID int64, q model.ReportQuery, results []model.PropertyResult, prompt bool) error {
	text := reportHeaderText(q) + ercx.Summarize(results) + "\nFull report: " + ercx.ReportURL(m.opts.ReportBaseURL, q)
	if err := m.send(ctx, chatID, text, mainMenuKeyboard()); err != nil {
		return err
	}
	if !prompt {
		return nil
	}
	return m.send(ctx, chatID, anotherAddressText(q), nil)
}

func (m *Machine) send(ctx context.Context, chatID int64, text string, keyboard *Keyboard) error {
	if _, err := m.messenger.SendMessage(ctx, chatID, text, keyboard); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
