package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigurationUnavailable means no endpoints are configured for a required role.
	ErrConfigurationUnavailable = errors.New("configuration unavailable")
	// ErrBroadcastExhausted means no endpoint produced a usable head block or no broadcast succeeded.
	ErrBroadcastExhausted = errors.New("broadcast exhausted")
	// ErrConfirmationTimeout means a submitted transaction was not confirmed in time.
	// The transaction may still be applied on chain.
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrInventoryExhausted  = errors.New("inventory exhausted")
	ErrIndexerExhausted    = errors.New("indexer exhausted")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidMemo         = errors.New("invalid memo")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrBusy                = errors.New("You may only use this command once at a time. Wait for the previous drop to complete and then try again.")
	ErrDailyLimit          = errors.New("You have given out the maximum number of drops for today. Try again tomorrow.")
)

// EndpointFailure records why a single endpoint could not serve a request.
type EndpointFailure struct {
	URL    string
	Reason string
}

func (f EndpointFailure) String() string {
	return fmt.Sprintf("%s -> %s", f.URL, f.Reason)
}

func joinFailures(failures []EndpointFailure, limit int) string {
	parts := make([]string, 0, len(failures))
	for i, f := range failures {
		if limit > 0 && i >= limit {
			parts = append(parts, fmt.Sprintf("and %d more", len(failures)-limit))
			break
		}
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "; ")
}

// BroadcastError is returned when preparation or broadcast failed on every core endpoint.
type BroadcastError struct {
	Stage    string
	Failures []EndpointFailure
	Cause    error
}

func (e *BroadcastError) Error() string {
	msg := fmt.Sprintf("broadcast exhausted during %s", e.Stage)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Failures) > 0 {
		msg += " (" + joinFailures(e.Failures, 8) + ")"
	}
	return msg
}

func (e *BroadcastError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrBroadcastExhausted, e.Cause}
	}
	return []error{ErrBroadcastExhausted}
}

// IndexerExhaustedError carries the reason each indexer endpoint failed.
type IndexerExhaustedError struct {
	Failures []EndpointFailure
}

func (e *IndexerExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "all indexer endpoints failed"
	}
	return "all indexer endpoints failed while fetching actions: " + joinFailures(e.Failures, 8)
}

func (e *IndexerExhaustedError) Unwrap() error { return ErrIndexerExhausted }

// ChainError is a decoded error body returned by a chain API node.
type ChainError struct {
	HTTPStatus int
	Code       int
	Name       string
	What       string
	Details    []string
	Raw        []byte
}

func (e *ChainError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("chain error %d %s: %s", e.Code, e.Name, msg)
	}
	return fmt.Sprintf("chain error %d %s", e.Code, e.Name)
}

// Message returns the most specific human readable text the node gave.
func (e *ChainError) Message() string {
	for _, d := range e.Details {
		if d != "" {
			return strings.TrimPrefix(d, "assertion failure with message: ")
		}
	}
	return e.What
}

type chainErrorBody struct {
	Code       json.RawMessage `json:"code"`
	StatusCode json.RawMessage `json:"statusCode"`
	Message    string          `json:"message"`
	Error      *struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		What    string `json:"what"`
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// DecodeChainError decodes an error payload. It returns nil when the body
// does not describe an error and the HTTP status is below 400.
func DecodeChainError(status int, body []byte) *ChainError {
	var parsed chainErrorBody
	jsonErr := json.Unmarshal(body, &parsed)
	if jsonErr != nil || (parsed.Error == nil && status < 400) {
		if status < 400 {
			return nil
		}
		return &ChainError{HTTPStatus: status, Code: status, Name: "non_standard_error", Raw: body}
	}

	ce := &ChainError{HTTPStatus: status, Raw: body}
	if parsed.Error != nil {
		ce.Code = parsed.Error.Code
		ce.Name = parsed.Error.Name
		ce.What = parsed.Error.What
		for _, d := range parsed.Error.Details {
			ce.Details = append(ce.Details, d.Message)
		}
	}
	if ce.Code == 0 {
		ce.Code = RespCode(body, status)
	}
	if ce.What == "" {
		ce.What = parsed.Message
	}
	return ce
}

// RespCode reads a status code the way WAX nodes report it: the body's
// "code" field, else its "statusCode" field, else the HTTP status.
func RespCode(body []byte, httpStatus int) int {
	var parsed chainErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if code := intField(parsed.Code); code != 0 {
			return code
		}
		if code := intField(parsed.StatusCode); code != 0 {
			return code
		}
	}
	return httpStatus
}

func intField(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed int
		if _, err := fmt.Sscanf(s, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
