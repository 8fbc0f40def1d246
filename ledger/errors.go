// Copyright 2025 Blink Labs Software
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

package ledger

import (
	"errors"
)

var (
	ErrUnauthorized      = errors.New("caller is not authorized")
	ErrNotOperational    = errors.New("ledger is not operational")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrRequestClosed     = errors.New("request closed")
	ErrIndexMismatch     = errors.New("oracle index mismatch")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	ErrInsufficientFunds = errors.New("insufficient escrow funds")
)

// TransitionError identifies the ledger operation that produced an error
type TransitionError struct {
	Err error
	Op  string
}

func (e *TransitionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
