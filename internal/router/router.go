// Copyright 2026 Blink Labs Software
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

// Package router implements the event dispatch: every
// instruction-invocation and account-write event from the feed is routed
// first by program id, then by instruction discriminator or account type
// tag, to the handler registered for it. Unrecognized programs,
// discriminators, and account types are dropped silently; a single
// message's decode or handler failure never aborts the batch it arrived
// in.
package router

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
)

// InstructionHandlerFunc processes a single decoded instruction
// invocation for one program/discriminator pair.
type InstructionHandlerFunc func(ctx context.Context, msg chain.InstructionMessage) error

// AccountHandlerFunc processes a single decoded account write for one
// program/account-type pair.
type AccountHandlerFunc func(ctx context.Context, msg chain.AccountMessage) error

// Router dispatches feed events to the handlers registered against the
// program/discriminator or program/account-type keys they were
// registered under.
type Router struct {
	instructionHandlers map[string]map[chain.Discriminator]InstructionHandlerFunc
	accountHandlers     map[string]map[chain.AccountTypeTag]AccountHandlerFunc
}

// New builds an empty Router. Handlers are wired in by the caller via
// OnInstruction/OnAccount before Dispatch is ever called.
func New() *Router {
	return &Router{
		instructionHandlers: make(map[string]map[chain.Discriminator]InstructionHandlerFunc),
		accountHandlers:     make(map[string]map[chain.AccountTypeTag]AccountHandlerFunc),
	}
}

// OnInstruction registers the handler invoked for instructions from
// programId carrying the given discriminator.
func (r *Router) OnInstruction(programId string, discriminator chain.Discriminator, handler InstructionHandlerFunc) {
	if r.instructionHandlers[programId] == nil {
		r.instructionHandlers[programId] = make(map[chain.Discriminator]InstructionHandlerFunc)
	}
	r.instructionHandlers[programId][discriminator] = handler
}

// OnAccount registers the handler invoked for account writes from
// programId tagged with the given account type.
func (r *Router) OnAccount(programId string, accountType chain.AccountTypeTag, handler AccountHandlerFunc) {
	if r.accountHandlers[programId] == nil {
		r.accountHandlers[programId] = make(map[chain.AccountTypeTag]AccountHandlerFunc)
	}
	r.accountHandlers[programId][accountType] = handler
}

// DispatchInstruction routes an instruction-invocation event. The
// discriminator is read directly off msg.Data's leading 8 bytes;
// payloads too short to carry one are dropped the same as an unknown
// discriminator would be. A handler error is logged and swallowed — a
// single bad message never aborts the feed.
func (r *Router) DispatchInstruction(ctx context.Context, msg chain.InstructionMessage) {
	logger := logging.GetLogger()

	byDiscriminator, ok := r.instructionHandlers[msg.ProgramId]
	if !ok {
		logger.Debugw("dropping instruction for unrouted program", "programId", msg.ProgramId)
		return
	}
	if len(msg.Data) < 8 {
		logger.Debugw("dropping instruction too short for a discriminator",
			"programId", msg.ProgramId, "slot", msg.Slot, "len", len(msg.Data))
		return
	}
	var discriminator chain.Discriminator
	copy(discriminator[:], msg.Data[:8])

	handler, ok := byDiscriminator[discriminator]
	if !ok {
		logger.Debugw("dropping instruction with unrecognized discriminator",
			"programId", msg.ProgramId, "slot", msg.Slot)
		return
	}
	if err := handler(ctx, msg); err != nil {
		logger.Errorw("instruction handler failed",
			"programId", msg.ProgramId, "slot", msg.Slot, "writeVersion", msg.WriteVersion, "error", err)
	}
}

// DispatchAccount routes an account-write event, mirroring
// DispatchInstruction's silent-drop and error-swallow behavior.
func (r *Router) DispatchAccount(ctx context.Context, msg chain.AccountMessage) {
	logger := logging.GetLogger()

	byAccountType, ok := r.accountHandlers[msg.ProgramId]
	if !ok {
		logger.Debugw("dropping account write for unrouted program", "programId", msg.ProgramId)
		return
	}
	handler, ok := byAccountType[msg.AccountType]
	if !ok {
		logger.Debugw("dropping account write with unrecognized account type",
			"programId", msg.ProgramId, "accountKey", msg.AccountKey)
		return
	}
	if err := handler(ctx, msg); err != nil {
		logger.Errorw("account handler failed",
			"programId", msg.ProgramId, "accountKey", msg.AccountKey, "slot", msg.Slot, "error", err)
	}
}

// RequireAccounts is a shared guard handlers call before indexing into
// msg.Accounts. Buy's 12-account requirement is the one case a handler
// treats a wrong count as a silent drop rather than a loud failure;
// callers decide which behavior fits by checking the returned error
// themselves.
func RequireAccounts(got, want int) error {
	if got != want {
		return fmt.Errorf("expected %d accounts, got %d", want, got)
	}
	return nil
}
