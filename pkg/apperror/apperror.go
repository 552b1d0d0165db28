package apperror

import (
	"context"
	"errors"
	"strings"
)

// Kind tags an error with the category used for user messages and routing.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindServer      Kind = "server"
	KindFile        Kind = "file"
	KindSession     Kind = "session"
	KindCredential  Kind = "credential"
	KindTimeout     Kind = "timeout"
	KindValidation  Kind = "validation"
	KindQuota       Kind = "quota"
	KindUnknown     Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the outermost tagged kind. Untagged errors fall back to
// textual inference so foreign errors still land somewhere sensible.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return Infer(err.Error())
}

// PublicMessage returns the message an error was raised with, without the
// wrapped cause. Used where a fixed string must be shown as-is.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

type rule struct {
	kind    Kind
	needles []string
}

// Order matters: the first matching rule wins and matching is case-sensitive.
var rules = []rule{
	{KindNetwork, []string{"Failed to fetch", "NetworkError"}},
	{KindForbidden, []string{"403", "Forbidden", "unauthorized"}},
	{KindNotFound, []string{"404", "Not Found", "Requested entity was not found"}},
	{KindRateLimited, []string{"429", "Too Many Requests", "rate limit"}},
	{KindServer, []string{"500", "Internal Server Error", "server error"}},
	{KindFile, []string{"file", "upload", "document"}},
	{KindSession, []string{"session", "chat", "message"}},
	{KindCredential, []string{"API key", "project", "billing"}},
	{KindTimeout, []string{"timeout", "TimeoutError"}},
	{KindValidation, []string{"validation", "invalid"}},
	{KindQuota, []string{"storage", "quota", "limit"}},
}

func Infer(text string) Kind {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(text, n) {
				return r.kind
			}
		}
	}
	return KindUnknown
}
