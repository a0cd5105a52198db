package model

import "fmt"

// ReportQuery identifies one report on the ERCx service. Two queries are the
// same report when all fields match; the address is compared as received.
type ReportQuery struct {
	Standard Standard `json:"standard" validate:"required"`
	Address  string   `json:"address" validate:"required,eth_addr"`
	Network  Network  `json:"network" validate:"required"`
}

func (q ReportQuery) NetworkID() int64 {
	return q.Network.ChainID()
}

// Key is a stable string form of the query, used for caching and logging.
func (q ReportQuery) Key() string {
	return fmt.Sprintf("%s:%d:%s", q.Standard.Code(), q.NetworkID(), q.Address)
}

type TestInfo struct {
	Level string `json:"level"`
}

// PropertyResult is one tested property of a report. Result is 0 or 1 for a
// failed or passed property; negative values mean the property does not apply.
type PropertyResult struct {
	Test   TestInfo `json:"test"`
	Result int      `json:"result"`
}

func (p PropertyResult) Counted() bool {
	return p.Result >= 0
}

// GenerationHandle acknowledges a report generation request.
type GenerationHandle struct {
	ReportID string `json:"id"`
	TaskID   string `json:"task_id,omitempty"`
	Status   string `json:"status,omitempty"`
	// Progress is the completion percentage ERCx reported at request time.
	Progress int `json:"progress"`
}
