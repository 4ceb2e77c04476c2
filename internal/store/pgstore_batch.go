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
	"fmt"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
)

// LoadCreatorPreviews runs a LATERAL join capping at 3 sample NFTs per
// creator, one round trip for the whole batch regardless of how many
// distinct creator addresses were asked for.
func (s *PGStore) LoadCreatorPreviews(ctx context.Context, creators []string) (map[string][]model.Nft, error) {
	out := make(map[string][]model.Nft, len(creators))
	rows, err := s.pool.Query(ctx, `
		SELECT
			store_creators.creator_address,
			sample_metadatas.address,
			sample_metadatas.name,
			sample_metadatas.seller_fee_basis_points,
			sample_metadatas.mint_address,
			sample_metadatas.token_account_address,
			sample_metadatas.primary_sale_happened,
			sample_metadatas.update_authority_address,
			sample_metadatas.uri,
			sample_metadatas.description,
			sample_metadatas.image,
			sample_metadatas.animation_url,
			sample_metadatas.external_url,
			sample_metadatas.category,
			sample_metadatas.model
		FROM store_creators
		JOIN LATERAL (
			SELECT
				metadatas.address AS address,
				metadatas.name AS name,
				metadatas.seller_fee_basis_points AS seller_fee_basis_points,
				metadatas.mint_address AS mint_address,
				metadatas.primary_sale_happened AS primary_sale_happened,
				metadatas.update_authority_address AS update_authority_address,
				current_metadata_owners.token_account_address AS token_account_address,
				metadatas.uri AS uri,
				metadata_jsons.description AS description,
				metadata_jsons.image AS image,
				metadata_jsons.animation_url AS animation_url,
				metadata_jsons.external_url AS external_url,
				metadata_jsons.category AS category,
				metadata_jsons.model AS model
			FROM metadatas
			INNER JOIN metadata_jsons ON metadatas.address = metadata_jsons.metadata_address
			INNER JOIN metadata_creators ON metadatas.address = metadata_creators.metadata_address
			INNER JOIN current_metadata_owners ON metadatas.mint_address = current_metadata_owners.mint_address
			WHERE metadata_creators.creator_address = store_creators.creator_address
			LIMIT 3
		) AS sample_metadatas ON true
		WHERE store_creators.creator_address = ANY($1)
	`, creators)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load collection preview(s): %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var creator string
		var nft model.Nft
		if err := rows.Scan(
			&creator, &nft.Address, &nft.Name, &nft.SellerFeeBasisPoints, &nft.MintAddress,
			&nft.TokenAccountAddress, &nft.PrimarySaleHappened, &nft.UpdateAuthorityAddress,
			&nft.Uri, &nft.Description, &nft.Image, &nft.AnimationUrl, &nft.ExternalUrl,
			&nft.Category, &nft.Model,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to load collection preview(s): %s", errs.ErrStorage, err)
		}
		out[creator] = append(out[creator], nft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to load collection preview(s): %s", errs.ErrStorage, err)
	}
	return out, nil
}

// LoadNftCounts unions the native and third-party collection-stat
// tables, keyed by different id encodings, collapsed into one scalar
// per collection.
func (s *PGStore) LoadNftCounts(ctx context.Context, collections []string) (map[string]int64, error) {
	out := make(map[string]int64, len(collections))
	rows, err := s.pool.Query(ctx, `
		SELECT collection_id, SUM(nft_count) FROM (
			SELECT collection_id, nft_count FROM me_collection_stats WHERE collection_id = ANY($1)
			UNION ALL
			SELECT collection_symbol AS collection_id, nft_count FROM collection_stats WHERE collection_symbol = ANY($1)
		) combined
		GROUP BY collection_id
	`, collections)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load nft count(s): %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("%w: failed to load nft count(s): %s", errs.ErrStorage, err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to load nft count(s): %s", errs.ErrStorage, err)
	}
	return out, nil
}

// LoadHoldersCounts groups by collection explicitly and aggregates
// COUNT(DISTINCT owner) per collection. A COUNT(*) OVER() inside a
// GROUP BY (collection, owner) subquery would instead compute a grand
// total across the whole batch rather than a per-collection count
// once more than one collection is requested; this query sidesteps
// that trap.
func (s *PGStore) LoadHoldersCounts(ctx context.Context, collections []string) (map[string]int64, error) {
	out := make(map[string]int64, len(collections))
	rows, err := s.pool.Query(ctx, `
		SELECT collection_id, COUNT(DISTINCT owner) FROM (
			SELECT mck.collection_id AS collection_id, cmo.owner_address AS owner
			FROM metadata_collection_keys mck
			INNER JOIN metadatas m ON m.address = mck.metadata_address
			INNER JOIN current_metadata_owners cmo ON cmo.mint_address = m.mint_address
			WHERE mck.collection_id = ANY($1) AND m.burned_at IS NULL
			UNION ALL
			SELECT mmc.collection_id AS collection_id, cmo.owner_address AS owner
			FROM me_metadata_collections mmc
			INNER JOIN metadatas m ON m.address = mmc.metadata_address
			INNER JOIN current_metadata_owners cmo ON cmo.mint_address = m.mint_address
			WHERE mmc.collection_id = ANY($1) AND m.burned_at IS NULL
		) combined
		GROUP BY collection_id
	`, collections)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load holder count(s): %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("%w: failed to load holder count(s): %s", errs.ErrStorage, err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to load holder count(s): %s", errs.ErrStorage, err)
	}
	return out, nil
}

// LoadFloorPrices finds the lowest active listing price per
// collection, unioned across both feeds; collections with no active
// listing are simply absent from the result (caller binds them to
// nil), never returned as a zero price.
func (s *PGStore) LoadFloorPrices(ctx context.Context, collections []string) (map[string]*int64, error) {
	out := make(map[string]*int64, len(collections))
	rows, err := s.pool.Query(ctx, `
		SELECT collection_id, MIN(price) FROM (
			SELECT mck.collection_id AS collection_id, l.price AS price
			FROM metadata_collection_keys mck
			INNER JOIN listings l ON l.metadata = mck.metadata_address
			WHERE mck.collection_id = ANY($1) AND l.purchase_id IS NULL AND l.canceled_at IS NULL
			UNION ALL
			SELECT mmc.collection_id AS collection_id, l.price AS price
			FROM me_metadata_collections mmc
			INNER JOIN listings l ON l.metadata = mmc.metadata_address
			WHERE mmc.collection_id = ANY($1) AND l.purchase_id IS NULL AND l.canceled_at IS NULL
		) combined
		GROUP BY collection_id
		HAVING MIN(price) IS NOT NULL
	`, collections)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load floor price(s): %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var price int64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("%w: failed to load floor price(s): %s", errs.ErrStorage, err)
		}
		p := price
		out[id] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to load floor price(s): %s", errs.ErrStorage, err)
	}
	return out, nil
}

// LoadCollections resolves either an on-chain metadata-derived
// collection or a third-party one, with neutral defaults for whichever
// side has nothing.
func (s *PGStore) LoadCollections(ctx context.Context, identifiers []string) (map[string]model.Collection, error) {
	out := make(map[string]model.Collection, len(identifiers))
	rows, err := s.pool.Query(ctx, `
		SELECT collection_id, name, image, verified FROM (
			SELECT mck.collection_id AS collection_id, m.name AS name, COALESCE(mj.image, '') AS image, true AS verified
			FROM metadata_collection_keys mck
			INNER JOIN metadatas m ON m.address = mck.metadata_address
			LEFT JOIN metadata_jsons mj ON mj.metadata_address = m.address
			WHERE mck.collection_id = ANY($1)
			UNION ALL
			SELECT mc.id AS collection_id, mc.name AS name, mc.image AS image, mc.verified AS verified
			FROM me_collections mc
			WHERE mc.id = ANY($1)
		) combined
	`, identifiers)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load collection(s): %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.Id, &c.Name, &c.Image, &c.Verified); err != nil {
			return nil, fmt.Errorf("%w: failed to load collection(s): %s", errs.ErrStorage, err)
		}
		out[c.Id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to load collection(s): %s", errs.ErrStorage, err)
	}
	return out, nil
}
