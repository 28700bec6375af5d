package bot

import "net/http"

// State names the outcome of one handler invocation.
type State string

const (
	StateDelivered           State = "delivered"
	StateMisconfigured       State = "misconfigured"
	StateBadPayload          State = "bad_payload"
	StateRejected            State = "rejected"
	StateUnknownCommand      State = "unknown_command"
	StateStorageUnavailable  State = "storage_unavailable"
	StateInsufficientRecords State = "insufficient_records"
	StateDeliveryFailed      State = "delivery_failed"
)

const bodyProcessed = "Command processed"

// Response is the status/body pair returned to the invoking platform.
type Response struct {
	Status int
	Body   string
	State  State
	// Err carries the swallowed error behind State, if any.
	Err error
}

func ok(state State, err error) Response {
	return Response{Status: http.StatusOK, Body: bodyProcessed, State: state, Err: err}
}

func failed(status int, body string, state State, err error) Response {
	return Response{Status: status, Body: body, State: state, Err: err}
}
