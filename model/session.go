package model

import "time"

// State is the position of a user inside the menu flow.
type State string

const (
	StateAwaitingStandard State = "awaiting_standard"
	StateAwaitingNetwork  State = "awaiting_network"
	StateAwaitingAddress  State = "awaiting_address"
	StatePolling          State = "polling"
)

// Session holds the menu selections of a single chat user.
type Session struct {
	UserID   int64    `json:"user_id"`
	Network  Network  `json:"network,omitempty"`
	Standard Standard `json:"standard,omitempty"`

	// Address is the token whose report is being generated.
	Address string `json:"address,omitempty"`
	// PendingAddress is only set while a "generate report?" prompt is open.
	PendingAddress string `json:"pending_address,omitempty"`

	State State `json:"state"`

	// Checks counts address lookups performed by this user.
	Checks    int64 `json:"checks"`
	UpdatedAt int64 `json:"updated_at"`
}

func NewSession(userID int64) Session {
	return Session{
		UserID:    userID,
		State:     StateAwaitingStandard,
		UpdatedAt: time.Now().Unix(),
	}
}

// Reset clears every selection and puts the user back at the standard menu.
func (s *Session) Reset() {
	s.Network = ""
	s.Standard = ""
	s.Address = ""
	s.PendingAddress = ""
	s.State = StateAwaitingStandard
}

// Ready reports whether both a standard and a network were picked.
func (s Session) Ready() bool {
	return s.Standard != "" && s.Network != ""
}

// Query builds the report lookup key for address under the current selection.
func (s Session) Query(address string) ReportQuery {
	return ReportQuery{
		Standard: s.Standard,
		Address:  address,
		Network:  s.Network,
	}
}
