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

// Package rewardcenter implements the reward-center program's
// PurchaseTicket account handler and the payout calculator: upsert the
// ticket, look up its RewardCenter (stopping there, with no payout and
// no Purchase, if none exists), compute buyer/seller rewards at arbitrary precision,
// record the payout, then synthesize and drive a Purchase through the
// same upsert/feed-emission path every other marketplace program uses.
package rewardcenter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/codec"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/blinklabs-io/nft-indexer/internal/router"
	"github.com/blinklabs-io/nft-indexer/internal/store"
	"github.com/shopspring/decimal"
)

// purchaseTicketAccountLen is the fixed little-endian account layout:
// an 8-byte Anchor-style discriminator, four 32-byte pubkeys
// (reward_center, seller, buyer, metadata), then price, token_size,
// and created_at as 8-byte fields.
const purchaseTicketAccountLen = 8 + 4*codec.PubkeyLen + 8 + 8 + 8

type decodedPurchaseTicket struct {
	RewardCenter string
	Seller       string
	Buyer        string
	Metadata     string
	Price        uint64
	TokenSize    uint64
	CreatedAt    int64
}

func decodePurchaseTicket(data []byte) (decodedPurchaseTicket, error) {
	if len(data) < purchaseTicketAccountLen {
		return decodedPurchaseTicket{}, fmt.Errorf(
			"%w: purchase ticket account too short: got %d bytes, want %d",
			errs.ErrCodec, len(data), purchaseTicketAccountLen,
		)
	}
	offset := 8 // skip the discriminator
	readKey := func() string {
		var key [codec.PubkeyLen]byte
		copy(key[:], data[offset:offset+codec.PubkeyLen])
		offset += codec.PubkeyLen
		return codec.EncodeKey(key)
	}
	decoded := decodedPurchaseTicket{
		RewardCenter: readKey(),
		Seller:       readKey(),
		Buyer:        readKey(),
		Metadata:     readKey(),
	}
	decoded.Price = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	decoded.TokenSize = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	decoded.CreatedAt = int64(binary.LittleEndian.Uint64(data[offset : offset+8]))
	return decoded, nil
}

// Handlers wires the PurchaseTicket account handler to a Store.
type Handlers struct {
	Store store.Store
}

// RegisterHandlers wires h's PurchaseTicket handler into r under
// programId.
func RegisterHandlers(r *router.Router, h *Handlers, programId string) {
	r.OnAccount(programId, chain.AccountTypePurchaseTicket, h.HandlePurchaseTicket)
}

// HandlePurchaseTicket implements the reward-center ingest sequence.
func (h *Handlers) HandlePurchaseTicket(ctx context.Context, msg chain.AccountMessage) error {
	decoded, err := decodePurchaseTicket(msg.AccountData)
	if err != nil {
		return err
	}
	price, err := codec.ToI64(decoded.Price)
	if err != nil {
		return fmt.Errorf("purchase ticket price: %w", err)
	}
	tokenSize, err := codec.ToI64(decoded.TokenSize)
	if err != nil {
		return fmt.Errorf("purchase ticket token size: %w", err)
	}

	ticket := model.PurchaseTicket{
		Address:      msg.AccountKey,
		RewardCenter: decoded.RewardCenter,
		Seller:       decoded.Seller,
		Buyer:        decoded.Buyer,
		Metadata:     decoded.Metadata,
		Price:        price,
		TokenSize:    tokenSize,
		CreatedAt:    time.Unix(decoded.CreatedAt, 0).UTC(),
		Slot:         int64(msg.Slot),
		WriteVersion: int64(msg.WriteVersion),
	}
	if err := h.Store.UpsertPurchaseTicket(ctx, ticket); err != nil {
		return fmt.Errorf("upsert purchase ticket: %w", err)
	}

	rewardCenter, err := h.Store.GetRewardCenter(ctx, ticket.RewardCenter)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load reward center: %w", err)
	}

	sellerReward, buyerReward, err := ComputePayout(price, rewardCenter)
	if err != nil {
		return fmt.Errorf("compute payout: %w", err)
	}

	payout := model.RewardPayout{
		PurchaseTicket: ticket.Address,
		Metadata:       ticket.Metadata,
		RewardCenter:   rewardCenter.Address,
		Buyer:          ticket.Buyer,
		BuyerReward:    buyerReward.String(),
		Seller:         ticket.Seller,
		SellerReward:   sellerReward.String(),
		CreatedAt:      ticket.CreatedAt,
		Slot:           ticket.Slot,
		WriteVersion:   ticket.WriteVersion,
	}
	if err := h.Store.InsertRewardPayoutIfAbsent(ctx, payout); err != nil {
		return fmt.Errorf("insert reward payout: %w", err)
	}

	auctionHouse, err := h.Store.AuctionHouseForRewardCenter(ctx, rewardCenter.Address)
	if err != nil {
		return fmt.Errorf("resolve auction house for reward center: %w", err)
	}

	writeVersion := ticket.WriteVersion
	purchase := model.Purchase{
		Buyer:              ticket.Buyer,
		Seller:             ticket.Seller,
		AuctionHouse:       auctionHouse,
		MarketplaceProgram: chain.ProgramRewardCenter,
		Metadata:           ticket.Metadata,
		Price:              price,
		TokenSize:          tokenSize,
		CreatedAt:          ticket.CreatedAt,
		Slot:               ticket.Slot,
		WriteVersion:       &writeVersion,
	}
	if _, err := h.Store.UpsertPurchase(ctx, purchase); err != nil {
		return fmt.Errorf("upsert synthesized reward purchase: %w", err)
	}
	return nil
}

// bpsDivisor is the fixed-point denominator basis-point shares are
// expressed against.
var bpsDivisor = decimal.NewFromInt(10_000)

// ComputePayout implements the reward-splitting formula at arbitrary
// precision so large prices and payout numerals never overflow or
// truncate early.
func ComputePayout(price int64, rc model.RewardCenter) (sellerReward, buyerReward decimal.Decimal, err error) {
	priceDec := decimal.NewFromInt(price)
	numeralDec := decimal.NewFromInt(rc.PayoutNumeral)

	var rewardUnit decimal.Decimal
	switch rc.MathematicalOperand {
	case model.OperandMultiply:
		rewardUnit = priceDec.Mul(numeralDec)
	case model.OperandDivide:
		if rc.PayoutNumeral == 0 {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: payout numeral is zero", errs.ErrArgument)
		}
		rewardUnit = priceDec.Div(numeralDec).Truncate(0)
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: unrecognized mathematical operand %d", errs.ErrArgument, rc.MathematicalOperand)
	}

	sellerShareBps := decimal.NewFromInt32(rc.SellerRewardPayoutBasisPoints)
	buyerShareBps := decimal.NewFromInt(10_000).Sub(sellerShareBps)

	sellerReward = rewardUnit.Mul(sellerShareBps).Div(bpsDivisor).Truncate(0)
	buyerReward = rewardUnit.Mul(buyerShareBps).Div(bpsDivisor).Truncate(0)
	return sellerReward, buyerReward, nil
}
