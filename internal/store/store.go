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

// Package store is the upsert and batched-read layer. Store is the
// seam every marketplace handler and batcher programs against;
// PGStore backs it with Postgres via pgx, MemStore is an in-memory
// fake used by tests so the idempotence and race-linking invariants
// can be exercised without a live database.
package store

import (
	"context"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/model"
)

// NftFilter narrows Nfts() queries: exactly one of Owners or Creators
// must be non-empty.
type NftFilter struct {
	Owners     []string
	Creators   []string
	Attributes []AttributeFilter
}

// AttributeFilter matches NFTs having an attribute row with TraitType
// and one of Values. Filters compose as a conjunction.
type AttributeFilter struct {
	TraitType string
	Values    []string
}

// Store is the seam the core programs against. Every method that can
// fail with a storage-layer problem returns an error wrapping
// errs.ErrStorage; lookups that find nothing return errs.ErrNotFound
// (or, for batchers, a neutral zero value per key, never an error).
type Store interface {
	// Upsert primitives.

	// UpsertListing inserts or updates a Listing keyed by trade_state.
	// On conflict, mutable fields are overwritten but purchase_id and
	// canceled_at are preserved if already set. It does not itself go
	// looking for a pre-existing purchase to link; the caller resolves
	// that out-of-order race (via FindPurchaseIdBySeller) before
	// calling in, and passes the result through row.PurchaseId. Returns
	// the row's id.
	UpsertListing(ctx context.Context, row model.Listing) (string, error)

	// UpsertOffer is UpsertListing's mirror for offers.
	UpsertOffer(ctx context.Context, row model.Offer) (string, error)

	// UpsertPurchase inserts or updates a Purchase keyed by the named
	// composite uniqueness constraint, links any matching open
	// Listing/Offer, and — exactly when the Purchase did not already
	// exist — emits the feed event transactionally. Returns the row's
	// id.
	UpsertPurchase(ctx context.Context, row model.Purchase) (string, error)

	// CancelListing sets canceled_at/slot on the Listing with the
	// given trade_state, but only where purchase_id and canceled_at
	// are both still null.
	CancelListing(ctx context.Context, tradeState string, canceledAt time.Time, slot int64) error

	// CancelOffer is CancelListing's mirror for offers.
	CancelOffer(ctx context.Context, tradeState string, canceledAt time.Time, slot int64) error

	// FindPurchaseIdBySeller implements the Sell-side pre-existing
	// purchase lookup: keyed on (seller, auction_house, metadata,
	// price, token_size, slot). Returns "" if none found.
	FindPurchaseIdBySeller(ctx context.Context, seller, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error)

	// FindPurchaseIdByBuyer is FindPurchaseIdBySeller's mirror for the
	// Buy side.
	FindPurchaseIdByBuyer(ctx context.Context, buyer, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error)

	// Reward center / purchase ticket.

	// GetRewardCenter looks up a RewardCenter by address. Returns
	// errs.ErrNotFound if absent (callers skip payout computation).
	GetRewardCenter(ctx context.Context, address string) (model.RewardCenter, error)

	// AuctionHouseForRewardCenter resolves the auction_house address a
	// RewardCenter overlays by joining through the reward center's own
	// stored fields rather than trusting an unauthenticated field on
	// the ticket itself.
	AuctionHouseForRewardCenter(ctx context.Context, rewardCenterAddress string) (string, error)

	// UpsertPurchaseTicket inserts or updates a PurchaseTicket keyed by
	// address.
	UpsertPurchaseTicket(ctx context.Context, row model.PurchaseTicket) error

	// InsertRewardPayoutIfAbsent inserts a RewardPayout, doing nothing
	// if one already exists for the same purchase_ticket.
	InsertRewardPayoutIfAbsent(ctx context.Context, row model.RewardPayout) error

	// Batched reads. Each accepts keys in any order, possibly
	// repeated. The returned map holds entries only for keys that
	// matched a row; a key with no row has no entry, so looking it up
	// yields the type's zero value. A missing key is never an error.

	LoadCreatorPreviews(ctx context.Context, creators []string) (map[string][]model.Nft, error)
	LoadNftCounts(ctx context.Context, collections []string) (map[string]int64, error)
	LoadHoldersCounts(ctx context.Context, collections []string) (map[string]int64, error)
	LoadFloorPrices(ctx context.Context, collections []string) (map[string]*int64, error)
	LoadCollections(ctx context.Context, identifiers []string) (map[string]model.Collection, error)

	// Query root reads.

	GetNft(ctx context.Context, address string) (model.Nft, error)
	ListNfts(ctx context.Context, filter NftFilter) ([]model.Nft, error)
}
