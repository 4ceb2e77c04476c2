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

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests to exercise the
// idempotence, race-linking, and exactly-once-feed-event invariants
// without a live Postgres connection. It reproduces the same
// conflict-target and conditional-update semantics as PGStore, just in
// Go instead of SQL.
type MemStore struct {
	mu sync.Mutex

	listingsByTradeState map[string]*model.Listing
	offersByTradeState   map[string]*model.Offer
	purchases            []*model.Purchase

	rewardCenters     map[string]model.RewardCenter
	auctionHouseByRC  map[string]string
	purchaseTickets   map[string]model.PurchaseTicket
	rewardPayouts     map[string]model.RewardPayout

	feedEvents          []model.FeedEvent
	walletsForFeedEvent map[string][]string

	// NFT/collection read-side fixtures, populated directly by tests.
	Nfts           map[string]model.Nft
	CreatorNfts    map[string][]string // creator -> nft addresses
	OwnerNfts      map[string][]string // owner -> nft addresses
	NftAttributes  map[string][]model.Attribute
}

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		listingsByTradeState: make(map[string]*model.Listing),
		offersByTradeState:   make(map[string]*model.Offer),
		rewardCenters:        make(map[string]model.RewardCenter),
		auctionHouseByRC:     make(map[string]string),
		purchaseTickets:      make(map[string]model.PurchaseTicket),
		rewardPayouts:        make(map[string]model.RewardPayout),
		walletsForFeedEvent:  make(map[string][]string),
		Nfts:                 make(map[string]model.Nft),
		CreatorNfts:          make(map[string][]string),
		OwnerNfts:            make(map[string][]string),
		NftAttributes:        make(map[string][]model.Attribute),
	}
}

// FeedEventCount returns the number of feed events emitted so far —
// tests use this to assert exactly-once emission.
func (s *MemStore) FeedEventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedEvents)
}

// FeedEventWallets returns the wallet fan-out for the single feed
// event a test scenario is expected to have produced.
func (s *MemStore) FeedEventWallets() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string)
	for _, fe := range s.feedEvents {
		out[fe.Id] = append(out[fe.Id], s.walletsForFeedEvent[fe.Id]...)
	}
	return out
}

func (s *MemStore) UpsertListing(_ context.Context, row model.Listing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.listingsByTradeState[row.TradeState]
	if !ok {
		if row.Id == "" {
			row.Id = uuid.NewString()
		}
		r := row
		s.listingsByTradeState[row.TradeState] = &r
		return r.Id, nil
	}
	id := existing.Id
	purchaseId := existing.PurchaseId
	if purchaseId == nil {
		purchaseId = row.PurchaseId
	}
	canceledAt := existing.CanceledAt
	if canceledAt == nil {
		canceledAt = row.CanceledAt
	}
	updated := row
	updated.Id = id
	updated.CreatedAt = existing.CreatedAt
	updated.PurchaseId = purchaseId
	updated.CanceledAt = canceledAt
	s.listingsByTradeState[row.TradeState] = &updated
	return id, nil
}

func (s *MemStore) UpsertOffer(_ context.Context, row model.Offer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.offersByTradeState[row.TradeState]
	if !ok {
		if row.Id == "" {
			row.Id = uuid.NewString()
		}
		r := row
		s.offersByTradeState[row.TradeState] = &r
		return r.Id, nil
	}
	id := existing.Id
	purchaseId := existing.PurchaseId
	if purchaseId == nil {
		purchaseId = row.PurchaseId
	}
	canceledAt := existing.CanceledAt
	if canceledAt == nil {
		canceledAt = row.CanceledAt
	}
	updated := row
	updated.Id = id
	updated.CreatedAt = existing.CreatedAt
	updated.PurchaseId = purchaseId
	updated.CanceledAt = canceledAt
	s.offersByTradeState[row.TradeState] = &updated
	return id, nil
}

func (s *MemStore) findPurchaseLocked(buyer, seller, auctionHouse, metadata string, price, tokenSize int64) *model.Purchase {
	for _, p := range s.purchases {
		if p.Buyer == buyer && p.Seller == seller && p.AuctionHouse == auctionHouse &&
			p.Metadata == metadata && p.Price == price && p.TokenSize == tokenSize {
			return p
		}
	}
	return nil
}

func (s *MemStore) UpsertPurchase(_ context.Context, row model.Purchase) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.findPurchaseLocked(row.Buyer, row.Seller, row.AuctionHouse, row.Metadata, row.Price, row.TokenSize)
	alreadyExisted := existing != nil

	var id string
	if existing != nil {
		existing.Slot = row.Slot
		existing.WriteVersion = row.WriteVersion
		existing.CreatedAt = row.CreatedAt
		id = existing.Id
	} else {
		if row.Id == "" {
			row.Id = uuid.NewString()
		}
		r := row
		s.purchases = append(s.purchases, &r)
		id = r.Id
	}

	for _, o := range s.offersByTradeState {
		if o.AuctionHouse == row.AuctionHouse && o.Buyer == row.Buyer && o.Metadata == row.Metadata &&
			o.PurchaseId == nil && o.CanceledAt == nil {
			pid := id
			o.PurchaseId = &pid
			o.Slot = row.Slot
		}
	}
	for _, l := range s.listingsByTradeState {
		if l.AuctionHouse == row.AuctionHouse && l.Seller == row.Seller && l.Metadata == row.Metadata &&
			l.Price == row.Price && l.TokenSize == row.TokenSize &&
			l.PurchaseId == nil && l.CanceledAt == nil {
			pid := id
			l.PurchaseId = &pid
			l.Slot = row.Slot
		}
	}

	if !alreadyExisted {
		feedEventId := uuid.NewString()
		s.feedEvents = append(s.feedEvents, model.FeedEvent{Id: feedEventId, CreatedAt: time.Now()})
		s.walletsForFeedEvent[feedEventId] = []string{row.Seller, row.Buyer}
	}

	return id, nil
}

func (s *MemStore) CancelListing(_ context.Context, tradeState string, canceledAt time.Time, slot int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listingsByTradeState[tradeState]
	if !ok {
		return nil
	}
	if l.PurchaseId == nil && l.CanceledAt == nil {
		ts := canceledAt
		l.CanceledAt = &ts
		l.Slot = slot
	}
	return nil
}

func (s *MemStore) CancelOffer(_ context.Context, tradeState string, canceledAt time.Time, slot int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offersByTradeState[tradeState]
	if !ok {
		return nil
	}
	if o.PurchaseId == nil && o.CanceledAt == nil {
		ts := canceledAt
		o.CanceledAt = &ts
		o.Slot = slot
	}
	return nil
}

func (s *MemStore) FindPurchaseIdBySeller(_ context.Context, seller, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.Seller == seller && p.AuctionHouse == auctionHouse && p.Metadata == metadata &&
			p.Price == price && p.TokenSize == tokenSize && p.Slot == slot {
			return p.Id, nil
		}
	}
	return "", nil
}

func (s *MemStore) FindPurchaseIdByBuyer(_ context.Context, buyer, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.Buyer == buyer && p.AuctionHouse == auctionHouse && p.Metadata == metadata &&
			p.Price == price && p.TokenSize == tokenSize && p.Slot == slot {
			return p.Id, nil
		}
	}
	return "", nil
}

func (s *MemStore) GetRewardCenter(_ context.Context, address string) (model.RewardCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.rewardCenters[address]
	if !ok {
		return model.RewardCenter{}, errs.ErrNotFound
	}
	return rc, nil
}

func (s *MemStore) AuctionHouseForRewardCenter(_ context.Context, rewardCenterAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ah, ok := s.auctionHouseByRC[rewardCenterAddress]
	if !ok {
		return "", errs.ErrNotFound
	}
	return ah, nil
}

func (s *MemStore) UpsertPurchaseTicket(_ context.Context, row model.PurchaseTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseTickets[row.Address] = row
	return nil
}

func (s *MemStore) InsertRewardPayoutIfAbsent(_ context.Context, row model.RewardPayout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewardPayouts[row.PurchaseTicket]; ok {
		return nil
	}
	s.rewardPayouts[row.PurchaseTicket] = row
	return nil
}

// RegisterRewardCenter is a test helper wiring a RewardCenter and the
// auction house it overlays into the fake store.
func (s *MemStore) RegisterRewardCenter(rc model.RewardCenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewardCenters[rc.Address] = rc
	s.auctionHouseByRC[rc.Address] = rc.AuctionHouse
}

// Listing returns the stored listing for a trade state, for test
// assertions.
func (s *MemStore) Listing(tradeState string) (model.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listingsByTradeState[tradeState]
	if !ok {
		return model.Listing{}, false
	}
	return *l, true
}

// Offer returns the stored offer for a trade state, for test
// assertions.
func (s *MemStore) Offer(tradeState string) (model.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offersByTradeState[tradeState]
	if !ok {
		return model.Offer{}, false
	}
	return *o, true
}

// PurchaseCount returns the number of distinct purchases recorded.
func (s *MemStore) PurchaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchases)
}

func (s *MemStore) LoadCreatorPreviews(_ context.Context, creators []string) (map[string][]model.Nft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]model.Nft, len(creators))
	for _, creator := range creators {
		addrs := s.CreatorNfts[creator]
		for i, addr := range addrs {
			if i >= 3 {
				break
			}
			if nft, ok := s.Nfts[addr]; ok {
				out[creator] = append(out[creator], nft)
			}
		}
	}
	return out, nil
}

func (s *MemStore) LoadNftCounts(context.Context, []string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (s *MemStore) LoadHoldersCounts(context.Context, []string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (s *MemStore) LoadFloorPrices(context.Context, []string) (map[string]*int64, error) {
	return map[string]*int64{}, nil
}

func (s *MemStore) LoadCollections(context.Context, []string) (map[string]model.Collection, error) {
	return map[string]model.Collection{}, nil
}

func (s *MemStore) GetNft(_ context.Context, address string) (model.Nft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nft, ok := s.Nfts[address]
	if !ok {
		return model.Nft{}, errs.ErrNotFound
	}
	return nft, nil
}

func (s *MemStore) ListNfts(_ context.Context, filter NftFilter) ([]model.Nft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var addrs []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, a := range list {
			if !seen[a] {
				seen[a] = true
				addrs = append(addrs, a)
			}
		}
	}
	if len(filter.Owners) > 0 {
		for _, owner := range filter.Owners {
			add(s.OwnerNfts[owner])
		}
	} else {
		for _, creator := range filter.Creators {
			add(s.CreatorNfts[creator])
		}
	}
	var out []model.Nft
	for _, addr := range addrs {
		nft, ok := s.Nfts[addr]
		if !ok {
			continue
		}
		if s.matchesAttributes(addr, filter.Attributes) {
			out = append(out, nft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (s *MemStore) matchesAttributes(address string, filters []AttributeFilter) bool {
	for _, f := range filters {
		ok := false
		for _, a := range s.NftAttributes[address] {
			if a.TraitType != f.TraitType {
				continue
			}
			for _, v := range f.Values {
				if a.Value == v {
					ok = true
					break
				}
			}
			if ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
