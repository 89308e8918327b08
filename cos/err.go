// Package cos provides common low-level types and error handling shared by
// every package in this module: domain-tagged errors, a growable byte
// buffer, and small atomic helpers.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package cos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	perrors "github.com/pkg/errors"
)

// domains, per spec §7
const (
	DomainClient    = "client"
	DomainStream    = "stream"
	DomainProtocol  = "protocol"
	DomainCursor    = "cursor"
	DomainQuery     = "query"
	DomainInsert    = "insert"
	DomainUpdate    = "update"
	DomainBSON      = "bson"
	DomainNamespace = "namespace"
	DomainCommand   = "command"
)

const maxMessageLen = 504

// Err is the wire-level error struct from spec §7: {domain, code, message}.
type Err struct {
	Domain  string
	Code    string
	Message string
}

func NewErr(domain, code, format string, a ...any) *Err {
	msg := fmt.Sprintf(format, a...)
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return &Err{Domain: domain, Code: code, Message: msg}
}

func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Code, e.Message)
}

func (e *Err) Is(target error) bool {
	o, ok := target.(*Err)
	if !ok {
		return false
	}
	return e.Domain == o.Domain && e.Code == o.Code
}

// well-known codes, see spec §7
const (
	CodeStreamInvalidType     = "invalid-type"
	CodeStreamInvalidState    = "invalid-state"
	CodeStreamNameResolution  = "name-resolution"
	CodeStreamSocket          = "socket"
	CodeStreamConnect         = "connect"
	CodeStreamNotEstablished  = "not-established"
	CodeClientTooBig          = "too-big"
	CodeClientTooSmall        = "too-small"
	CodeClientNotReady        = "not-ready"
	CodeClientInExhaust       = "in-exhaust"
	CodeClientAuthenticate    = "authenticate"
	CodeClientGetnonce        = "getnonce"
	CodeProtocolInvalidReply  = "invalid-reply"
	CodeCursorInvalidCursor   = "invalid-cursor"
	CodeQueryFailure          = "failure"
	CodeQueryCommandNotFound  = "command-not-found"
	CodeInsertFailure         = "failure"
	CodeUpdateFailure         = "failure"
	CodeCommandInvalidArg     = "invalid-arg"
	CodeBSONInvalid           = "invalid"
	CodeNamespaceInvalid      = "invalid"
)

func NewErrStreamNotEstablished(host string) *Err {
	return NewErr(DomainStream, CodeStreamNotEstablished, "stream to %s is not established", host)
}

func NewErrClientNotReady() *Err {
	return NewErr(DomainClient, CodeClientNotReady, "client-not-ready: no node could be selected")
}

func NewErrProtocolInvalidReply(format string, a ...any) *Err {
	return NewErr(DomainProtocol, CodeProtocolInvalidReply, format, a...)
}

func NewErrCursorInvalid(format string, a ...any) *Err {
	return NewErr(DomainCursor, CodeCursorInvalidCursor, format, a...)
}

func NewErrQueryFailure(serverCode int32, errmsg string) *Err {
	return NewErr(DomainQuery, CodeQueryFailure, "%s (code=%d)", errmsg, serverCode)
}

func NewErrWriteFailure(domain string, serverCode int32, errmsg string) *Err {
	return NewErr(domain, CodeInsertFailure, "%s (code=%d)", errmsg, serverCode)
}

func NewErrAuthenticate(reason string) *Err {
	return NewErr(DomainClient, CodeClientAuthenticate, "authentication failed: %s", reason)
}

// IsErr reports whether err is (or wraps) an *Err with the given domain and
// code.
func IsErr(err error, domain, code string) bool {
	var e *Err
	if errors.As(err, &e) {
		return e.Domain == domain && e.Code == code
	}
	return false
}

//
// retriable / connection classification, mirrors cmn/cos/err.go
//

func IsRetriableConnErr(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT)
}

func isErrDNSLookup(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func IsUnreachable(err error) bool {
	return IsRetriableConnErr(err) || isErrDNSLookup(err) || errors.Is(err, context.DeadlineExceeded)
}

// Wrap adds layered context to err, per §7 "context added at each layer".
func Wrap(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return perrors.Wrapf(err, format, a...)
}

//
// Errs: small multi-error collector, mirrors cmn/cos.Errs
//

const maxErrs = 4

type Errs struct {
	mu   sync.Mutex
	errs []error
}

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
	}
}

func (e *Errs) Cnt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

func (e *Errs) JoinErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return errors.Join(e.errs...)
}
