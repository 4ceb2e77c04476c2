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

// Package chain holds the process-wide immutable constants the router
// and handlers dispatch on: program identities and instruction
// discriminators. These tables are initialized once at startup and
// never mutated.
package chain

// Program identities, bit-exact as supplied by the feed. Supplied in
// config as base58 strings (see internal/config.ProgramsConfig); these
// are the human-readable names written to the marketplace_program
// column.
const (
	ProgramMEHaus       = "ME_HAUS"
	ProgramRewardCenter = "REWARD_CENTER"
)

// Discriminator is the leading 8 bytes of an instruction payload
// identifying its variant.
type Discriminator [8]byte

// Instruction discriminators for the ME_HAUS program, bit-exact as
// supplied by the feed.
var (
	DiscriminatorBuy         = Discriminator{102, 6, 61, 18, 1, 218, 235, 234}
	DiscriminatorSell        = Discriminator{51, 230, 133, 164, 1, 127, 131, 173}
	DiscriminatorExecuteSale = Discriminator{37, 74, 217, 157, 79, 49, 35, 6}
	DiscriminatorCancelSell  = Discriminator{198, 198, 130, 203, 163, 95, 175, 75}
	DiscriminatorCancelBuy   = Discriminator{238, 76, 36, 218, 132, 177, 224, 233}
)

// AccountTypeTag identifies the decoded schema of an account-write
// message.
type AccountTypeTag int

const (
	AccountTypeUnknown AccountTypeTag = iota
	AccountTypePurchaseTicket
	AccountTypeRewardCenter
)

// InstructionMessage is an instruction-invocation event from the feed.
// Accounts is the ordered account list exactly as supplied to the
// instruction; handler account-index constants are relative to this
// slice.
type InstructionMessage struct {
	ProgramId    string
	Data         []byte
	Accounts     []string
	Slot         uint64
	WriteVersion uint64
}

// AccountMessage is an account-write event from the feed.
type AccountMessage struct {
	ProgramId     string
	AccountKey    string
	AccountType   AccountTypeTag
	AccountData   []byte
	Slot          uint64
	WriteVersion  uint64
}
