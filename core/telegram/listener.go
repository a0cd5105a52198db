package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/AvaProtocol/ercx-bot/core/conversation"
	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
)

const (
	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
)

// Handler consumes chat events. *conversation.Machine implements it.
type Handler interface {
	HandleText(ctx context.Context, ev conversation.TextEvent) error
	HandleButton(ctx context.Context, ev conversation.ButtonEvent) error
}

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Listener pulls updates from the Bot API and hands them to the handler.
// Updates of one user are handled in arrival order on a per-user worker;
// different users are handled concurrently.
type Listener struct {
	source  updateSource
	handler Handler
	metrics metrics.BotMetrics
	logger  logger.Logger
	spawn   func(func())

	offset int64
	wg     sync.WaitGroup

	// a key is present while the worker of that user is running
	queueMu sync.Mutex
	queues  map[int64][]Update
}

// NewListener builds a listener. spawn runs each per-user worker and
// defaults to a plain go statement.
func NewListener(source updateSource, handler Handler, m metrics.BotMetrics, log logger.Logger, spawn func(func())) *Listener {
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	return &Listener{
		source:  source,
		handler: handler,
		metrics: m,
		logger:  logger.OrNop(log),
		spawn:   spawn,
		queues:  make(map[int64][]Update),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (l *Listener) Run(ctx context.Context) error {
	defer l.wg.Wait()

	delay := minRetryDelay
	for {
		updates, err := l.source.GetUpdates(ctx, l.offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			l.logger.Warn("failed to fetch telegram updates", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		delay = minRetryDelay

		for _, u := range updates {
			if u.UpdateID >= l.offset {
				l.offset = u.UpdateID + 1
			}

			l.enqueue(ctx, u)
		}
	}
}

// senderID keys the per-user queue of an update.
func senderID(u Update) int64 {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.Message != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}

func (l *Listener) enqueue(ctx context.Context, u Update) {
	id := senderID(u)

	l.queueMu.Lock()
	pending, running := l.queues[id]
	l.queues[id] = append(pending, u)
	l.queueMu.Unlock()

	if running {
		return
	}

	l.wg.Add(1)
	l.spawn(func() {
		defer l.wg.Done()
		l.drain(ctx, id)
	})
}

// drain dispatches the queued updates of one user until the queue is empty.
func (l *Listener) drain(ctx context.Context, id int64) {
	finished := false
	defer func() {
		// a panicking handler must not leave the user without a worker
		if !finished {
			l.queueMu.Lock()
			delete(l.queues, id)
			l.queueMu.Unlock()
		}
	}()

	for {
		l.queueMu.Lock()
		pending := l.queues[id]
		if len(pending) == 0 {
			delete(l.queues, id)
			l.queueMu.Unlock()
			finished = true
			return
		}
		u := pending[0]
		l.queues[id] = pending[1:]
		l.queueMu.Unlock()

		l.Dispatch(ctx, u)
	}
}

// Dispatch converts one update into an event and runs the handler.
func (l *Listener) Dispatch(ctx context.Context, u Update) {
	log := l.logger.With("event_id", ulid.Make().String(), "update_id", u.UpdateID)

	var err error
	switch {
	case u.Message != nil && u.Message.Text != "":
		msg := u.Message
		ev := conversation.TextEvent{ChatID: msg.Chat.ID, Text: msg.Text}
		if msg.From != nil {
			ev.UserID = msg.From.ID
		} else {
			ev.UserID = msg.Chat.ID
		}
		log.Debug("received text", "user_id", ev.UserID, "text", ev.Text)
		err = l.handler.HandleText(ctx, ev)

	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if answerErr := l.source.AnswerCallback(ctx, cb.ID); answerErr != nil {
			log.Debug("cannot answer callback", "error", answerErr)
		}
		if cb.Message == nil {
			log.Warn("callback without message", "user_id", cb.From.ID)
			return
		}
		ev := conversation.ButtonEvent{
			UserID:    cb.From.ID,
			ChatID:    cb.Message.Chat.ID,
			MessageID: cb.Message.MessageID,
			Data:      cb.Data,
		}
		log.Debug("received button", "user_id", ev.UserID, "data", ev.Data)
		err = l.handler.HandleButton(ctx, ev)

	default:
		l.metrics.IncEvent("unsupported")
		log.Debug("ignore unsupported update")
		return
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("failed to handle update", "error", err)
	}
}
