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
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/jackc/pgx/v5"
)

func (s *PGStore) GetNft(ctx context.Context, address string) (model.Nft, error) {
	var nft model.Nft
	err := s.pool.QueryRow(ctx, `
		SELECT m.address, m.name, m.seller_fee_basis_points, m.mint_address,
		       cmo.token_account_address, m.primary_sale_happened, m.update_authority_address,
		       m.uri, mj.description, mj.image, mj.animation_url, mj.external_url, mj.category, mj.model
		FROM metadatas m
		INNER JOIN metadata_jsons mj ON mj.metadata_address = m.address
		INNER JOIN current_metadata_owners cmo ON cmo.mint_address = m.mint_address
		WHERE m.address = $1
	`, address).Scan(
		&nft.Address, &nft.Name, &nft.SellerFeeBasisPoints, &nft.MintAddress,
		&nft.TokenAccountAddress, &nft.PrimarySaleHappened, &nft.UpdateAuthorityAddress,
		&nft.Uri, &nft.Description, &nft.Image, &nft.AnimationUrl, &nft.ExternalUrl,
		&nft.Category, &nft.Model,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Nft{}, errs.ErrNotFound
	}
	if err != nil {
		return model.Nft{}, fmt.Errorf("%w: get nft: %s", errs.ErrStorage, err)
	}
	return nft, nil
}

// ListNfts applies the owners/creators/attributes filter contract.
// Filter validation (exactly one of owners/creators) is the query
// root's job, not the store's — by the time this runs, filter has
// already been checked.
func (s *PGStore) ListNfts(ctx context.Context, filter NftFilter) ([]model.Nft, error) {
	var b strings.Builder
	args := make([]any, 0, 2+2*len(filter.Attributes))
	b.WriteString(`
		SELECT DISTINCT m.address, m.name, m.seller_fee_basis_points, m.mint_address,
		       cmo.token_account_address, m.primary_sale_happened, m.update_authority_address,
		       m.uri, mj.description, mj.image, mj.animation_url, mj.external_url, mj.category, mj.model
		FROM metadatas m
		INNER JOIN metadata_jsons mj ON mj.metadata_address = m.address
		INNER JOIN current_metadata_owners cmo ON cmo.mint_address = m.mint_address
	`)
	if len(filter.Owners) > 0 {
		args = append(args, filter.Owners)
		fmt.Fprintf(&b, " WHERE cmo.owner_address = ANY($%d)", len(args))
	} else {
		args = append(args, filter.Creators)
		b.WriteString(" INNER JOIN metadata_creators mc ON mc.metadata_address = m.address")
		fmt.Fprintf(&b, " WHERE mc.creator_address = ANY($%d)", len(args))
	}
	for _, attr := range filter.Attributes {
		args = append(args, attr.TraitType)
		traitArg := len(args)
		args = append(args, attr.Values)
		valuesArg := len(args)
		fmt.Fprintf(&b, ` AND EXISTS (
			SELECT 1 FROM attributes a
			WHERE a.metadata_address = m.address AND a.trait_type = $%d AND a.value = ANY($%d)
		)`, traitArg, valuesArg)
	}
	b.WriteString(" ORDER BY m.name DESC")

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list nfts: %s", errs.ErrStorage, err)
	}
	defer rows.Close()
	var out []model.Nft
	for rows.Next() {
		var nft model.Nft
		if err := rows.Scan(
			&nft.Address, &nft.Name, &nft.SellerFeeBasisPoints, &nft.MintAddress,
			&nft.TokenAccountAddress, &nft.PrimarySaleHappened, &nft.UpdateAuthorityAddress,
			&nft.Uri, &nft.Description, &nft.Image, &nft.AnimationUrl, &nft.ExternalUrl,
			&nft.Category, &nft.Model,
		); err != nil {
			return nil, fmt.Errorf("%w: list nfts: %s", errs.ErrStorage, err)
		}
		out = append(out, nft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list nfts: %s", errs.ErrStorage, err)
	}
	return out, nil
}
