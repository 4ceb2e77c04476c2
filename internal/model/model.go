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

// Package model holds the canonical, normalized entities: the shapes
// every marketplace handler converges on regardless of which program
// emitted the originating instruction.
package model

import "time"

// Metadata is the immutable-per-slot record of an NFT.
type Metadata struct {
	Address                string
	MintAddress             string
	Name                    string
	Uri                     string
	SellerFeeBasisPoints    int32 // 0..10_000
	PrimarySaleHappened     bool
	UpdateAuthorityAddress  string
	BurnedAt                *time.Time
	Slot                    int64
}

// MetadataJSON is the 1:1 off-chain companion to a Metadata.
type MetadataJSON struct {
	MetadataAddress string
	Description     string
	Image           string
	AnimationUrl    string
	ExternalUrl     string
	Category        string
	Model           string
}

// MetadataCreator is one of a Metadata's 1:N royalty-split creators.
type MetadataCreator struct {
	MetadataAddress string
	CreatorAddress  string
	Share           int32
	Verified        bool
}

// Attribute is one of a Metadata's 1:N trait rows.
type Attribute struct {
	MetadataAddress string
	TraitType       string
	Value           string
}

// Listing is a seller's standing offer to sell.
type Listing struct {
	Id                string
	TradeState        string
	Seller            string
	Metadata          string
	AuctionHouse      string
	MarketplaceProgram string
	Price             int64 // lamports
	TokenSize         int64
	TradeStateBump    int32
	Expiry            *time.Time
	CreatedAt         time.Time
	CanceledAt        *time.Time
	PurchaseId        *string
	Slot              int64
	WriteVersion      *int64
}

// Offer mirrors Listing with a buyer instead of a seller.
type Offer struct {
	Id                 string
	TradeState         string
	Buyer              string
	Metadata           string
	AuctionHouse       string
	MarketplaceProgram string
	Price              int64
	TokenSize          int64
	TradeStateBump     int32
	Expiry             *time.Time
	CreatedAt          time.Time
	CanceledAt         *time.Time
	PurchaseId         *string
	Slot               int64
	WriteVersion       *int64
}

// Purchase is a realized trade. Uniqueness is the named composite
// (buyer, seller, auction_house, metadata, price, token_size).
type Purchase struct {
	Id                 string
	Buyer              string
	Seller             string
	AuctionHouse       string
	MarketplaceProgram string
	Metadata           string
	Price              int64
	TokenSize          int64
	CreatedAt          time.Time
	Slot               int64
	WriteVersion       *int64
}

// MathematicalOperand selects how a RewardCenter's payout_numeral
// combines with the trade price.
type MathematicalOperand int

const (
	OperandMultiply MathematicalOperand = iota
	OperandDivide
)

// RewardCenter is the config for a reward-issuing overlay over an
// auction house.
type RewardCenter struct {
	Address                      string
	TokenMint                    string
	AuctionHouse                 string
	SellerRewardPayoutBasisPoints int32 // 0..10_000
	MathematicalOperand          MathematicalOperand
	PayoutNumeral                int64
	Bump                         int32
}

// PurchaseTicket is the on-chain account emitted by the reward-center
// program when a trade occurs.
type PurchaseTicket struct {
	Address        string
	RewardCenter   string
	Seller         string
	Buyer          string
	Metadata       string
	Price          int64
	TokenSize      int64
	CreatedAt      time.Time
	Slot           int64
	WriteVersion   int64
}

// RewardPayout is the derived record keyed by PurchaseTicket, storing
// arbitrary-precision computed reward amounts. BuyerReward and
// SellerReward are decimal strings (base-10, unbounded precision);
// callers that need to compute with them parse via shopspring/decimal,
// exactly as internal/rewardcenter does when it produces them.
type RewardPayout struct {
	PurchaseTicket string
	Metadata       string
	RewardCenter   string
	Buyer          string
	BuyerReward    string
	Seller         string
	SellerReward   string
	CreatedAt      time.Time
	Slot           int64
	WriteVersion   int64
}

// FeedEvent is a user-visible activity record.
type FeedEvent struct {
	Id        string
	CreatedAt time.Time
}

// PurchaseEvent is a FeedEvent's typed child row for a realized
// purchase.
type PurchaseEvent struct {
	PurchaseId  string
	FeedEventId string
}

// FeedEventWallet is a FeedEvent's wallet fan-out row.
type FeedEventWallet struct {
	WalletAddress string
	FeedEventId   string
}

// Nft is the read-side projection returned by the collection-preview
// batcher and the query root.
type Nft struct {
	Address                string
	Name                   string
	SellerFeeBasisPoints   int32
	MintAddress            string
	TokenAccountAddress    string
	PrimarySaleHappened    bool
	UpdateAuthorityAddress string
	Uri                    string
	Description            string
	Image                  string
	AnimationUrl           string
	ExternalUrl            string
	Category               string
	Model                  string
}

// Creator, Wallet, Storefront, and Marketplace are thin identifier
// wrappers returned by the query root's corresponding entry points.
// Each is lazily resolved: the wrapper carries only its identifying
// key, and any derived fields (stats, NFT listings) are fetched on
// demand through the batched read layer by whatever surface sits in
// front of this package — the GraphQL/HTTP framing itself is out of
// scope.
type Creator struct {
	Address string
}

type Wallet struct {
	Address string
}

type Storefront struct {
	Subdomain string
}

type Marketplace struct {
	Subdomain string
}

// Collection is the result of the identifier->Collection batcher:
// either an on-chain metadata-derived record, or a third-party
// record, with neutral defaults for whichever side didn't match.
type Collection struct {
	Id     string
	Name   string
	Image  string
	Verified bool
}
