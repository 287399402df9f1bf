package websocket

import (
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/marking"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionLoad    Action = "load"
	ActionToggle  Action = "toggle"
	ActionSet     Action = "set"
	ActionMarkAll Action = "mark_all"
	ActionReset   Action = "reset"
	ActionSubmit  Action = "submit"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
	ActionPing    Action = "ping"
)

// RequestPayload is every client message. Fields not used by an action are ignored.
type RequestPayload struct {
	Action    Action                 `json:"action"`
	ClassID   int                    `json:"class_id,omitempty"`
	Date      string                 `json:"date,omitempty"`
	StudentID int                    `json:"student_id,omitempty"`
	Status    model.AttendanceStatus `json:"status,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState   Event = "state"
	EventConfirm Event = "confirm"
	EventSaved   Event = "saved"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// StateResponse carries the full sheet after every change.
type StateResponse struct {
	Event Event        `json:"event"`
	State marking.View `json:"state"`
}

// ConfirmResponse asks the operator to acknowledge a summary or an overwrite.
type ConfirmResponse struct {
	Event        Event                `json:"event"`
	Confirmation marking.Confirmation `json:"confirmation"`
}

// SavedResponse reports a committed sheet.
type SavedResponse struct {
	Event        Event                `json:"event"`
	Confirmation marking.Confirmation `json:"confirmation"`
	State        marking.View         `json:"state"`
}

type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
