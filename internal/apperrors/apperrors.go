// Package apperrors defines the error envelopes returned by tool calls.
//
// Every failure a tool can produce is a *goerrors.Error carrying one of
// the text codes below. The MCP layer renders Message to the caller;
// the dispatcher branches on the text code to decide whether a refresh
// and retry is allowed.
package apperrors

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnknownAction    = "UNKNOWN_ACTION"
	CodeUnknownTool      = "UNKNOWN_TOOL"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeAuthorization    = "AUTHORIZATION_ERROR"
	CodeRefreshFailure   = "REFRESH_FAILURE"
	CodeRemote           = "REMOTE_ERROR"
)

// AuthCommand is the command a user runs to (re-)authorize with Google.
const AuthCommand = "gtm-mcp auth"

func operation(action, kind string) string {
	return fmt.Sprintf("Error performing %s on %s", action, kind)
}

func newError(message string, category goerrors.Category, code int, textCode string) *goerrors.Error {
	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
}

// wrapError attaches source as the cause. goerrors.Wrap is not used: it
// clones an envelope source, doubling its message and keeping its category.
func wrapError(source error, category goerrors.Category, message string, code int, textCode string) *goerrors.Error {
	err := newError(message, category, code, textCode)
	err.Source = source
	return err
}

// MissingParameter reports a required argument absent for the action.
func MissingParameter(action, kind, param string) error {
	msg := fmt.Sprintf("%s: %s is required for %s action", operation(action, kind), param, action)
	err := newError(msg, goerrors.CategoryBadInput, http.StatusBadRequest, CodeMissingParameter)
	err.WithMetadata(map[string]any{"parameter": param, "action": action, "kind": kind})
	return err
}

// Validation reports a config payload or argument set that failed its schema.
func Validation(action, kind string, detail error) error {
	msg := fmt.Sprintf("%s: invalid config format for %s action", operation(action, kind), action)
	if detail != nil {
		msg += ": " + detail.Error()
	}
	return wrapError(detail, goerrors.CategoryValidation, msg, http.StatusBadRequest, CodeValidation)
}

// MissingAction reports a call without an action argument.
func MissingAction(kind string) error {
	msg := fmt.Sprintf("Error performing request on %s: action is required", kind)
	err := newError(msg, goerrors.CategoryBadInput, http.StatusBadRequest, CodeMissingParameter)
	err.WithMetadata(map[string]any{"parameter": "action", "kind": kind})
	return err
}

// InvalidArguments reports tool arguments that are not a JSON object or
// carry a value of the wrong type.
func InvalidArguments(action, kind string, detail error) error {
	if action == "" {
		action = "request"
	}
	msg := fmt.Sprintf("%s: invalid arguments", operation(action, kind))
	if detail != nil {
		msg += ": " + detail.Error()
	}
	return wrapError(detail, goerrors.CategoryValidation, msg, http.StatusBadRequest, CodeValidation)
}

// UnknownAction reports an action outside the tool's declared action set.
func UnknownAction(action, kind string) error {
	msg := fmt.Sprintf("%s: unknown action: %q", operation(action, kind), action)
	return newError(msg, goerrors.CategoryNotFound, http.StatusNotFound, CodeUnknownAction)
}

// UnknownTool reports a tool name with no registered router.
func UnknownTool(name string) error {
	return newError(fmt.Sprintf("Unknown tool: %s", name), goerrors.CategoryNotFound, http.StatusNotFound, CodeUnknownTool)
}

// NotAuthorized reports that no usable credential could be loaded.
func NotAuthorized(source error) error {
	msg := fmt.Sprintf("Authorization not found. Run '%s' to authorize with Google.", AuthCommand)
	if source != nil {
		msg += " (" + source.Error() + ")"
	}
	return wrapError(source, goerrors.CategoryAuth, msg, http.StatusUnauthorized, CodeNotAuthorized)
}

// Authorization reports that the remote API rejected the access token.
func Authorization(action, kind string, source error) error {
	msg := fmt.Sprintf("%s: %s", operation(action, kind), detail(source))
	return wrapError(source, goerrors.CategoryAuth, msg, http.StatusUnauthorized, CodeAuthorization)
}

// RefreshFailure is the terminal outcome of a call whose credential could
// not be refreshed, or which was still rejected after a refresh.
func RefreshFailure(source error) error {
	msg := fmt.Sprintf("Authorization failed. Run '%s' to re-authorize.", AuthCommand)
	if source != nil {
		msg += " (" + Message(source) + ")"
	}
	return wrapError(source, goerrors.CategoryAuth, msg, http.StatusUnauthorized, CodeRefreshFailure)
}

// Remote reports any other failure returned by the remote API.
func Remote(action, kind string, source error) error {
	msg := fmt.Sprintf("%s: %s", operation(action, kind), detail(source))
	return wrapError(source, goerrors.CategoryExternal, msg, http.StatusBadGateway, CodeRemote)
}

// RemoteMessage lets remote error types expose the human readable part of
// their envelope instead of the full transport string.
type RemoteMessage interface {
	RemoteMessage() string
}

func detail(err error) string {
	if err == nil {
		return "unknown error"
	}
	var rm RemoteMessage
	if goerrors.As(err, &rm) {
		if msg := strings.TrimSpace(rm.RemoteMessage()); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// HasCode reports whether err is an envelope with the given text code.
func HasCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// Code returns the text code of err, or "" for foreign errors.
func Code(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return ""
	}
	return rich.TextCode
}

// Message returns the caller facing message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return err.Error()
}
