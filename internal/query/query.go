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

// Package query is the small façade entry points a request-facing
// surface calls into, each backed by the batched read layer in
// internal/store. The GraphQL/HTTP framing itself is out of scope —
// this package is what that framing would call.
package query

import (
	"context"
	"errors"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/blinklabs-io/nft-indexer/internal/profile"
	"github.com/blinklabs-io/nft-indexer/internal/store"
)

// Root is the query root. It holds no request-scoped state; every
// method is safe to call concurrently.
type Root struct {
	Store         store.Store
	profileClient *profile.Client
}

// New builds a Root over the given store and profile collaborator.
func New(s store.Store, profileClient *profile.Client) *Root {
	return &Root{Store: s, profileClient: profileClient}
}

// Nft resolves a single NFT by address.
func (q *Root) Nft(ctx context.Context, address string) (model.Nft, error) {
	return q.Store.GetNft(ctx, address)
}

// NftsArgs mirrors the nfts(...) entry point's input shape.
type NftsArgs struct {
	Owners     []string
	Creators   []string
	Attributes []store.AttributeFilter
}

// Nfts enforces the exactly-one-of-owners-or-creators contract before
// delegating to the store. Violating it returns an *errs.ArgumentError
// identifying the offending field set.
func (q *Root) Nfts(ctx context.Context, args NftsArgs) ([]model.Nft, error) {
	hasOwners := len(args.Owners) > 0
	hasCreators := len(args.Creators) > 0

	switch {
	case !hasOwners && !hasCreators:
		return nil, errs.NewArgumentError("owners,creators", "no filter provided: supply owners or creators")
	case hasOwners && hasCreators:
		return nil, errs.NewArgumentError("owners,creators", "supply either owners or creators, not both")
	}

	return q.Store.ListNfts(ctx, store.NftFilter{
		Owners:     args.Owners,
		Creators:   args.Creators,
		Attributes: args.Attributes,
	})
}

// Wallet resolves the thin wallet wrapper; further fields (owned NFTs,
// activity feed) are fetched separately through the batched read layer
// by whatever surface calls this.
func (q *Root) Wallet(address string) model.Wallet {
	return model.Wallet{Address: address}
}

// Storefront resolves the thin storefront wrapper by subdomain.
func (q *Root) Storefront(subdomain string) model.Storefront {
	return model.Storefront{Subdomain: subdomain}
}

// Marketplace resolves the thin marketplace wrapper by subdomain.
func (q *Root) Marketplace(subdomain string) model.Marketplace {
	return model.Marketplace{Subdomain: subdomain}
}

// Creator resolves the thin creator wrapper by address.
func (q *Root) Creator(address string) model.Creator {
	return model.Creator{Address: address}
}

// CreatorPreview loads up to 3 sample NFTs per creator, the batcher a
// creator's "preview" field would call.
func (q *Root) CreatorPreview(ctx context.Context, address string) ([]model.Nft, error) {
	previews, err := q.Store.LoadCreatorPreviews(ctx, []string{address})
	if err != nil {
		return nil, err
	}
	return previews[address], nil
}

// Profile delegates to the third-party collaborator, a thin lookup
// kept outside this package's own hardness envelope. An upstream or
// network failure yields an empty (absent) profile and no error.
func (q *Root) Profile(ctx context.Context, handle string) (profile.Profile, error) {
	p, err := q.profileClient.GetByHandle(ctx, handle)
	if errors.Is(err, errs.ErrUpstream) {
		return profile.Profile{}, nil
	}
	return p, err
}
