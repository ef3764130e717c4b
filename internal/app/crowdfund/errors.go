//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package crowdfund

import (
	"github.com/pkg/errors"
)

// Kind tells the caller whether to retry, adjust parameters or abandon the call.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindResource
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindResource:
		return "resource"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a sentinel error with a kind.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

var (
	// validation
	ErrZeroAmount    = newError(KindValidation, "amount must be positive")
	ErrInvalidWindow = newError(KindValidation, "start time must be before end time")
	ErrInvalidCaps   = newError(KindValidation, "caps must satisfy 0 < soft cap <= hard cap")
	ErrAssetMismatch = newError(KindValidation, "share asset must differ from fund asset")
	ErrNotCreator    = newError(KindValidation, "caller is not the campaign creator")
	ErrUnknownCall   = newError(KindValidation, "unknown call")
	ErrNoOrigin      = newError(KindValidation, "call has no origin")
	ErrNoCampaign    = newError(KindValidation, "call has no campaign id")

	// conflict
	ErrCampaignExists     = newError(KindConflict, "campaign already exists")
	ErrCampaignRetired    = newError(KindConflict, "campaign id belongs to a destroyed campaign")
	ErrWrongStatus        = newError(KindConflict, "campaign status does not allow the call")
	ErrTooMuchShares      = newError(KindConflict, "too much shares")
	ErrNoShares           = newError(KindConflict, "no shares committed")
	ErrShareExists        = newError(KindConflict, "share line already committed")
	ErrNotStarted         = newError(KindConflict, "campaign has not started yet")
	ErrNotEnded           = newError(KindConflict, "campaign has not ended yet")
	ErrCampaignEnded      = newError(KindConflict, "campaign has ended")
	ErrHardCapReached     = newError(KindConflict, "hard cap reached")
	ErrSoftCapReached     = newError(KindConflict, "soft cap reached")
	ErrSoftCapNotReached  = newError(KindConflict, "soft cap not reached")
	ErrAlreadyPaid        = newError(KindConflict, "share line already paid out to investor")
	ErrOutstandingPayouts = newError(KindConflict, "investment has outstanding payouts")
	ErrPayoutsPending     = newError(KindConflict, "payouts are still pending")

	// not found
	ErrCampaignNotFound   = newError(KindNotFound, "campaign not found")
	ErrShareNotFound      = newError(KindNotFound, "share line not found")
	ErrInvestmentNotFound = newError(KindNotFound, "investment not found")

	// resource
	ErrInsufficientBalance = newError(KindResource, "insufficient balance")
	ErrInsufficientLocked  = newError(KindResource, "insufficient locked balance")

	// invariant
	ErrOverflow      = newError(KindInvariant, "arithmetic overflow")
	ErrIndexMismatch = newError(KindInvariant, "status index does not match bucket")
	ErrCorrupted     = newError(KindInvariant, "inconsistent campaign bookkeeping")
)

// KindOf returns the kind of the innermost sentinel error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err was caused by target.
func Is(err error, target *Error) bool {
	return errors.Cause(err) == target
}
