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

// Package codec implements the binary deserialization and key-encoding
// primitives shared by every marketplace handler: fixed-layout
// little-endian instruction params, base58 encoding of 32-byte account
// keys, and the u64->i64 bounds conversion every handler needs before
// it can store a chain value.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/btcsuite/btcutil/base58"
)

// PubkeyLen is the fixed width of a Solana-style account key.
const PubkeyLen = 32

// EncodeKey renders a 32-byte account key in its canonical base58 form
// for storage.
func EncodeKey(key [PubkeyLen]byte) string {
	return base58.Encode(key[:])
}

// DecodeKey parses a canonical base58 account key back into its raw
// 32 bytes. Round-trips with EncodeKey.
func DecodeKey(s string) ([PubkeyLen]byte, error) {
	var out [PubkeyLen]byte
	decoded := base58.Decode(s)
	if len(decoded) != PubkeyLen {
		return out, fmt.Errorf("%w: base58 key %q decodes to %d bytes, want %d", errs.ErrCodec, s, len(decoded), PubkeyLen)
	}
	copy(out[:], decoded)
	return out, nil
}

// MEInstructionParams is the fixed little-endian instruction parameter
// layout shared by Buy/Sell/ExecuteSale:
//
//	trade_state_bump: u8, escrow_payment_bump: u8, buyer_price: u64 LE,
//	token_size: u64 LE, expiry: i64 LE
const meInstructionParamsLen = 1 + 1 + 8 + 8 + 8

type MEInstructionParams struct {
	TradeStateBump     uint8
	EscrowPaymentBump  uint8
	BuyerPrice         uint64
	TokenSize          uint64
	Expiry             int64
}

// DecodeMEParams decodes the fixed-layout instruction params following
// an 8-byte discriminator.
func DecodeMEParams(data []byte) (MEInstructionParams, error) {
	if len(data) < meInstructionParamsLen {
		return MEInstructionParams{}, fmt.Errorf(
			"%w: instruction params too short: got %d bytes, want at least %d",
			errs.ErrCodec, len(data), meInstructionParamsLen,
		)
	}
	return MEInstructionParams{
		TradeStateBump:    data[0],
		EscrowPaymentBump: data[1],
		BuyerPrice:        binary.LittleEndian.Uint64(data[2:10]),
		TokenSize:         binary.LittleEndian.Uint64(data[10:18]),
		Expiry:            int64(binary.LittleEndian.Uint64(data[18:26])),
	}, nil
}

// Encode re-serializes the params to their wire layout. Used by the
// round-trip law tests (decode(encode(x)) == x) and is otherwise
// exercised only by tests/tools, never by a live handler.
func (p MEInstructionParams) Encode() []byte {
	out := make([]byte, meInstructionParamsLen)
	out[0] = p.TradeStateBump
	out[1] = p.EscrowPaymentBump
	binary.LittleEndian.PutUint64(out[2:10], p.BuyerPrice)
	binary.LittleEndian.PutUint64(out[10:18], p.TokenSize)
	binary.LittleEndian.PutUint64(out[18:26], uint64(p.Expiry))
	return out
}

// SplitDiscriminator splits an instruction payload into its leading
// 8-byte discriminator and the remaining params.
func SplitDiscriminator(payload []byte) (discriminator [8]byte, params []byte, err error) {
	if len(payload) < 8 {
		return discriminator, nil, fmt.Errorf(
			"%w: instruction payload too short for discriminator: got %d bytes",
			errs.ErrCodec, len(payload),
		)
	}
	copy(discriminator[:], payload[:8])
	return discriminator, payload[8:], nil
}

// ToI64 converts a chain-side u64 into the i64 storage representation
// used throughout the model, failing loudly on overflow.
func ToI64(v uint64) (int64, error) {
	if v > uint64(1<<63-1) {
		return 0, fmt.Errorf("%w: value %d overflows int64", errs.ErrBounds, v)
	}
	return int64(v), nil
}

// ToI32 widens a chain-side small unsigned value (e.g. a bump seed)
// into its i32 storage representation.
func ToI32(v uint8) int32 {
	return int32(v)
}
