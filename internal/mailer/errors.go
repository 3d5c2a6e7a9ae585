package mailer

import (
	"context"
	"errors"
	"net"

	"github.com/wneessen/go-mail"
)

// ErrorKind is the coarse reason a message could not be dispatched.
type ErrorKind string

const (
	KindConnection     ErrorKind = "connection"
	KindTimeout        ErrorKind = "timeout"
	KindInvalidAddress ErrorKind = "invalid_address"
	KindOther          ErrorKind = "other"
)

// Error hides transport detail from callers; Unwrap exposes it for logging.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return "mail dispatch failed: " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a dispatch error, KindOther for foreign errors.
func KindOf(err error) ErrorKind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindOther
}

func classify(err error) *Error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return me
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		switch sendErr.Reason {
		case mail.ErrGetSender, mail.ErrGetRcpts, mail.ErrSMTPMailFrom, mail.ErrSMTPRcptTo:
			return &Error{Kind: KindInvalidAddress, Err: err}
		case mail.ErrConnCheck:
			return &Error{Kind: KindConnection, Err: err}
		}
	}

	if netErr != nil {
		return &Error{Kind: KindConnection, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindConnection, Err: err}
	}
	return &Error{Kind: KindOther, Err: err}
}
