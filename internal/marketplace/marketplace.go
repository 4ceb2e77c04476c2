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

// Package marketplace implements the ME_HAUS direct-listing program's
// instruction handlers: Buy, Sell, ExecuteSale, CancelSell, CancelBuy.
// Each follows the same skeleton — decode params, validate the account
// table, convert chain values to storage values, delegate to a
// store.Store upsert primitive.
package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/codec"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/blinklabs-io/nft-indexer/internal/router"
	"github.com/blinklabs-io/nft-indexer/internal/store"
)

// Handlers wires the ME_HAUS instruction handlers to a Store.
// MarketplaceProgram tags every row this package produces so rows from
// different marketplace programs stay distinguishable in a shared
// table.
type Handlers struct {
	Store              store.Store
	MarketplaceProgram string
}

// RegisterHandlers wires h's methods into r under programId.
func RegisterHandlers(r *router.Router, h *Handlers, programId string) {
	r.OnInstruction(programId, chain.DiscriminatorBuy, h.Buy)
	r.OnInstruction(programId, chain.DiscriminatorSell, h.Sell)
	r.OnInstruction(programId, chain.DiscriminatorExecuteSale, h.ExecuteSale)
	r.OnInstruction(programId, chain.DiscriminatorCancelSell, h.CancelSell)
	r.OnInstruction(programId, chain.DiscriminatorCancelBuy, h.CancelBuy)
}

// buyAccountCount is the exact account length Buy requires; anything
// else is a silent drop, unlike every other handler here which fails
// loudly on a mismatch.
const buyAccountCount = 12

const (
	buyIdxBuyer        = 0
	buyIdxMetadata     = 3
	buyIdxAuctionHouse = 6
	buyIdxTradeState   = 7

	sellIdxSeller       = 0
	sellIdxMetadata     = 5
	sellIdxAuctionHouse = 7
	sellIdxTradeState   = 8

	executeIdxBuyer             = 0
	executeIdxSeller            = 1
	executeIdxMetadata          = 5
	executeIdxAuctionHouse      = 9
	executeIdxBuyerTradeState   = 11
	executeIdxSellerTradeState  = 13

	cancelSellIdxListingTradeState = 6
	cancelBuyIdxOfferTradeState    = 5
)

func decodeParams(msg chain.InstructionMessage) (codec.MEInstructionParams, error) {
	_, params, err := codec.SplitDiscriminator(msg.Data)
	if err != nil {
		return codec.MEInstructionParams{}, err
	}
	return codec.DecodeMEParams(params)
}

// Buy handles the ME_HAUS "Buy" instruction, creating or updating an
// Offer. An account list that isn't exactly 12 long is dropped with a
// debug log rather than treated as an error.
func (h *Handlers) Buy(ctx context.Context, msg chain.InstructionMessage) error {
	if len(msg.Accounts) != buyAccountCount {
		logging.GetLogger().Debugw("dropping Buy instruction with unexpected account count",
			"got", len(msg.Accounts), "want", buyAccountCount, "slot", msg.Slot)
		return nil
	}

	params, err := decodeParams(msg)
	if err != nil {
		return fmt.Errorf("decode buy params: %w", err)
	}
	price, err := codec.ToI64(params.BuyerPrice)
	if err != nil {
		return fmt.Errorf("buy price: %w", err)
	}
	tokenSize, err := codec.ToI64(params.TokenSize)
	if err != nil {
		return fmt.Errorf("buy token size: %w", err)
	}

	buyer := msg.Accounts[buyIdxBuyer]
	metadata := msg.Accounts[buyIdxMetadata]
	auctionHouse := msg.Accounts[buyIdxAuctionHouse]
	tradeState := msg.Accounts[buyIdxTradeState]

	offer := model.Offer{
		TradeState:         tradeState,
		Buyer:              buyer,
		Metadata:           metadata,
		AuctionHouse:       auctionHouse,
		MarketplaceProgram: h.MarketplaceProgram,
		Price:              price,
		TokenSize:          tokenSize,
		TradeStateBump:     codec.ToI32(params.TradeStateBump),
		Expiry:             expiryOrNil(params.Expiry),
		CreatedAt:          time.Now().UTC(),
		Slot:               int64(msg.Slot),
		WriteVersion:       writeVersionPtr(msg.WriteVersion),
	}

	if purchaseId, err := h.Store.FindPurchaseIdByBuyer(ctx, buyer, auctionHouse, metadata, price, tokenSize, int64(msg.Slot)); err != nil {
		return fmt.Errorf("find pre-existing purchase for buy: %w", err)
	} else if purchaseId != "" {
		offer.PurchaseId = &purchaseId
	}

	_, err = h.Store.UpsertOffer(ctx, offer)
	return err
}

// Sell handles the ME_HAUS "Sell" instruction, creating or updating a
// Listing. Unlike Buy, a wrong account count here fails loudly.
func (h *Handlers) Sell(ctx context.Context, msg chain.InstructionMessage) error {
	if err := router.RequireAccounts(len(msg.Accounts), sellIdxTradeState+1); err != nil {
		return fmt.Errorf("sell: %w", err)
	}

	params, err := decodeParams(msg)
	if err != nil {
		return fmt.Errorf("decode sell params: %w", err)
	}
	price, err := codec.ToI64(params.BuyerPrice)
	if err != nil {
		return fmt.Errorf("sell price: %w", err)
	}
	tokenSize, err := codec.ToI64(params.TokenSize)
	if err != nil {
		return fmt.Errorf("sell token size: %w", err)
	}

	seller := msg.Accounts[sellIdxSeller]
	metadata := msg.Accounts[sellIdxMetadata]
	auctionHouse := msg.Accounts[sellIdxAuctionHouse]
	tradeState := msg.Accounts[sellIdxTradeState]

	listing := model.Listing{
		TradeState:         tradeState,
		Seller:             seller,
		Metadata:           metadata,
		AuctionHouse:       auctionHouse,
		MarketplaceProgram: h.MarketplaceProgram,
		Price:              price,
		TokenSize:          tokenSize,
		TradeStateBump:     codec.ToI32(params.TradeStateBump),
		Expiry:             expiryOrNil(params.Expiry),
		CreatedAt:          time.Now().UTC(),
		Slot:               int64(msg.Slot),
		WriteVersion:       writeVersionPtr(msg.WriteVersion),
	}

	if purchaseId, err := h.Store.FindPurchaseIdBySeller(ctx, seller, auctionHouse, metadata, price, tokenSize, int64(msg.Slot)); err != nil {
		return fmt.Errorf("find pre-existing purchase for sell: %w", err)
	} else if purchaseId != "" {
		listing.PurchaseId = &purchaseId
	}

	_, err = h.Store.UpsertListing(ctx, listing)
	return err
}

// ExecuteSale handles the ME_HAUS "ExecuteSale" instruction, realizing
// a Purchase and — exactly the first time this composite key is seen —
// driving the feed-event emission (both inside Store.UpsertPurchase).
func (h *Handlers) ExecuteSale(ctx context.Context, msg chain.InstructionMessage) error {
	if err := router.RequireAccounts(len(msg.Accounts), executeIdxSellerTradeState+1); err != nil {
		return fmt.Errorf("execute sale: %w", err)
	}

	params, err := decodeParams(msg)
	if err != nil {
		return fmt.Errorf("decode execute sale params: %w", err)
	}
	price, err := codec.ToI64(params.BuyerPrice)
	if err != nil {
		return fmt.Errorf("execute sale price: %w", err)
	}
	tokenSize, err := codec.ToI64(params.TokenSize)
	if err != nil {
		return fmt.Errorf("execute sale token size: %w", err)
	}

	purchase := model.Purchase{
		Buyer:              msg.Accounts[executeIdxBuyer],
		Seller:             msg.Accounts[executeIdxSeller],
		Metadata:           msg.Accounts[executeIdxMetadata],
		AuctionHouse:       msg.Accounts[executeIdxAuctionHouse],
		MarketplaceProgram: h.MarketplaceProgram,
		Price:              price,
		TokenSize:          tokenSize,
		CreatedAt:          time.Now().UTC(),
		Slot:               int64(msg.Slot),
		WriteVersion:       writeVersionPtr(msg.WriteVersion),
	}

	_, err = h.Store.UpsertPurchase(ctx, purchase)
	return err
}

// CancelSell handles the ME_HAUS "CancelSell" instruction.
func (h *Handlers) CancelSell(ctx context.Context, msg chain.InstructionMessage) error {
	if err := router.RequireAccounts(len(msg.Accounts), cancelSellIdxListingTradeState+1); err != nil {
		return fmt.Errorf("cancel sell: %w", err)
	}
	tradeState := msg.Accounts[cancelSellIdxListingTradeState]
	return h.Store.CancelListing(ctx, tradeState, time.Now().UTC(), int64(msg.Slot))
}

// CancelBuy handles the ME_HAUS "CancelBuy" instruction.
func (h *Handlers) CancelBuy(ctx context.Context, msg chain.InstructionMessage) error {
	if err := router.RequireAccounts(len(msg.Accounts), cancelBuyIdxOfferTradeState+1); err != nil {
		return fmt.Errorf("cancel buy: %w", err)
	}
	tradeState := msg.Accounts[cancelBuyIdxOfferTradeState]
	return h.Store.CancelOffer(ctx, tradeState, time.Now().UTC(), int64(msg.Slot))
}

// expiryOrNil maps the wire convention "expiry <= 0 means no expiry"
// onto the model's nullable Expiry field.
func expiryOrNil(expiry int64) *time.Time {
	if expiry <= 0 {
		return nil
	}
	t := time.Unix(expiry, 0).UTC()
	return &t
}

func writeVersionPtr(v uint64) *int64 {
	wv := int64(v)
	return &wv
}
