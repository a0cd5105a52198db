package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ercx-bot/core/conversation"
	"github.com/AvaProtocol/ercx-bot/core/session"
	"github.com/AvaProtocol/ercx-bot/core/testutil"
	"github.com/AvaProtocol/ercx-bot/model"
)

type fakeSource struct {
	mu       sync.Mutex
	batches  [][]Update
	offsets  []int64
	answered []string
	cancel   context.CancelFunc
}

func (f *fakeSource) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offsets = append(f.offsets, offset)
	if len(f.batches) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeSource) AnswerCallback(ctx context.Context, callbackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

type fakeHandler struct {
	mu      sync.Mutex
	texts   []conversation.TextEvent
	buttons []conversation.ButtonEvent
}

func (f *fakeHandler) HandleText(ctx context.Context, ev conversation.TextEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, ev)
	return nil
}

func (f *fakeHandler) HandleButton(ctx context.Context, ev conversation.ButtonEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttons = append(f.buttons, ev)
	return errors.New("handler failure is only logged")
}

func TestListenerDispatchesUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &fakeSource{
		cancel: cancel,
		batches: [][]Update{
			{
				{UpdateID: 100, Message: &Message{MessageID: 1, From: &User{ID: 7}, Chat: Chat{ID: 70}, Text: "/start"}},
				{UpdateID: 101, CallbackQuery: &CallbackQuery{ID: "cb", From: User{ID: 7}, Message: &Message{MessageID: 2, Chat: Chat{ID: 70}}, Data: "Yes"}},
			},
			{
				{UpdateID: 102, Message: &Message{MessageID: 3, Chat: Chat{ID: 70}}},
			},
		},
	}
	handler := &fakeHandler{}

	l := NewListener(source, handler, testutil.GetMetrics(), testutil.GetLogger(), nil)
	require.NoError(t, l.Run(ctx))

	assert.Equal(t, []int64{0, 102, 103}, source.offsets)
	assert.Equal(t, []string{"cb"}, source.answered)
	assert.Equal(t, []conversation.TextEvent{{UserID: 7, ChatID: 70, Text: "/start"}}, handler.texts)
	assert.Equal(t, []conversation.ButtonEvent{{UserID: 7, ChatID: 70, MessageID: 2, Data: "Yes"}}, handler.buttons)
}

func TestListenerUsesChatWhenSenderIsMissing(t *testing.T) {
	handler := &fakeHandler{}
	l := NewListener(&fakeSource{}, handler, testutil.GetMetrics(), testutil.GetLogger(), nil)

	l.Dispatch(context.Background(), Update{UpdateID: 1, Message: &Message{Chat: Chat{ID: 55}, Text: "Mainnet"}})

	require.Len(t, handler.texts, 1)
	assert.Equal(t, int64(55), handler.texts[0].UserID)
}

type slowHandler struct {
	fakeHandler
	slow string
}

func (h *slowHandler) HandleText(ctx context.Context, ev conversation.TextEvent) error {
	if ev.Text == h.slow {
		time.Sleep(20 * time.Millisecond)
	}
	return h.fakeHandler.HandleText(ctx, ev)
}

func textUpdate(id, userID int64, text string) Update {
	return Update{UpdateID: id, Message: &Message{MessageID: id, From: &User{ID: userID}, Chat: Chat{ID: userID}, Text: text}}
}

func TestListenerKeepsOrderPerUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &fakeSource{
		cancel: cancel,
		batches: [][]Update{
			{textUpdate(1, 7, "/start"), textUpdate(2, 8, "/start"), textUpdate(3, 7, "ERC-20")},
			{textUpdate(4, 7, "Mainnet"), textUpdate(5, 8, "ERC-4626")},
		},
	}
	handler := &slowHandler{slow: "/start"}

	l := NewListener(source, handler, testutil.GetMetrics(), testutil.GetLogger(), nil)
	require.NoError(t, l.Run(ctx))

	byUser := map[int64][]string{}
	for _, ev := range handler.texts {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev.Text)
	}
	assert.Equal(t, []string{"/start", "ERC-20", "Mainnet"}, byUser[7])
	assert.Equal(t, []string{"/start", "ERC-4626"}, byUser[8])
	assert.Empty(t, l.queues)
}

type nopMessenger struct{}

func (nopMessenger) SendMessage(ctx context.Context, chatID int64, text string, keyboard *conversation.Keyboard) (int64, error) {
	return 1, nil
}

func (nopMessenger) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return nil
}

func TestListenerBatchReachesAddressInput(t *testing.T) {
	store := session.NewMemoryStore()
	machine := conversation.NewMachine(store, nil, nopMessenger{}, testutil.GetMetrics(), testutil.GetLogger(), conversation.DefaultOptions())
	t.Cleanup(machine.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	var batch []Update
	for i := int64(0); i < 20; i++ {
		batch = append(batch,
			textUpdate(3*i+1, 100+i, "/start"),
			textUpdate(3*i+2, 100+i, "ERC-20"),
			textUpdate(3*i+3, 100+i, "Mainnet"),
		)
	}
	source := &fakeSource{cancel: cancel, batches: [][]Update{batch}}

	l := NewListener(source, machine, testutil.GetMetrics(), testutil.GetLogger(), nil)
	require.NoError(t, l.Run(ctx))

	for i := int64(0); i < 20; i++ {
		s, err := store.GetOrCreate(context.Background(), 100+i)
		require.NoError(t, err)
		assert.Equal(t, model.StateAwaitingAddress, s.State, "user %d", 100+i)
		assert.Equal(t, model.ERC20, s.Standard)
		assert.Equal(t, model.Mainnet, s.Network)
	}
}

func TestListenerReleasesQueueAfterPanic(t *testing.T) {
	l := NewListener(&fakeSource{}, nil, testutil.GetMetrics(), testutil.GetLogger(), func(fn func()) {
		defer func() { _ = recover() }()
		fn()
	})

	// a nil handler panics on the first text
	l.enqueue(context.Background(), textUpdate(1, 7, "/start"))
	assert.Empty(t, l.queues)
}
