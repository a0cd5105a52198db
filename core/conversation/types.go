package conversation

import (
	"context"

	"github.com/AvaProtocol/ercx-bot/model"
)

// TextEvent is a text message typed or sent through a reply keyboard.
type TextEvent struct {
	UserID int64
	ChatID int64
	Text   string
}

// ButtonEvent is a press on an inline keyboard button.
type ButtonEvent struct {
	UserID    int64
	ChatID    int64
	MessageID int64
	Data      string
}

type Button struct {
	Text string
	// Data is the callback value of an inline button; empty for reply keyboards.
	Data string
}

// Keyboard is attached to an outgoing message. A reply keyboard replaces the
// user's keyboard, an inline keyboard is rendered under the message.
type Keyboard struct {
	Rows   [][]Button
	Inline bool
}

// Messenger delivers replies to the chat transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *Keyboard) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
}

// ReportService is the remote report backend.
type ReportService interface {
	FetchReport(ctx context.Context, q model.ReportQuery) ([]model.PropertyResult, error)
	RequestGeneration(ctx context.Context, q model.ReportQuery) (*model.GenerationHandle, error)
}
