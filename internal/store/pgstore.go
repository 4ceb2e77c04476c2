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
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/config"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore backs Store with a Postgres connection pool held behind a
// package-level singleton.
type PGStore struct {
	pool *pgxpool.Pool
}

var globalStore = &PGStore{}

// Load opens the connection pool from config, populating the
// package-level singleton once at startup.
func (s *PGStore) Load(ctx context.Context) error {
	cfg := config.GetConfig()
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.Url)
	if err != nil {
		return fmt.Errorf("%w: parsing database url: %s", errs.ErrStorage, err)
	}
	if cfg.Database.MaxPoolConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxPoolConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("%w: opening database pool: %s", errs.ErrStorage, err)
	}
	s.pool = pool
	return nil
}

// Close releases the pool. Every handler's database round trip is a
// suspension point; closing the pool here, rather than per call, is
// what lets acquisition be awaited and reused across handlers.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetStore returns the global store instance.
func GetStore() *PGStore {
	return globalStore
}

func (s *PGStore) UpsertListing(ctx context.Context, row model.Listing) (string, error) {
	if row.Id == "" {
		row.Id = uuid.NewString()
	}
	var purchaseId any
	if row.PurchaseId != nil {
		purchaseId = *row.PurchaseId
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO listings (
			id, trade_state, seller, metadata, auction_house, marketplace_program,
			price, token_size, trade_state_bump, expiry, created_at, canceled_at,
			purchase_id, slot, write_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (trade_state) DO UPDATE SET
			seller = EXCLUDED.seller,
			metadata = EXCLUDED.metadata,
			auction_house = EXCLUDED.auction_house,
			marketplace_program = EXCLUDED.marketplace_program,
			price = EXCLUDED.price,
			token_size = EXCLUDED.token_size,
			trade_state_bump = EXCLUDED.trade_state_bump,
			expiry = EXCLUDED.expiry,
			slot = EXCLUDED.slot,
			write_version = EXCLUDED.write_version,
			purchase_id = COALESCE(listings.purchase_id, EXCLUDED.purchase_id),
			canceled_at = COALESCE(listings.canceled_at, EXCLUDED.canceled_at)
		RETURNING id
	`,
		row.Id, row.TradeState, row.Seller, row.Metadata, row.AuctionHouse, row.MarketplaceProgram,
		row.Price, row.TokenSize, row.TradeStateBump, row.Expiry, row.CreatedAt, row.CanceledAt,
		purchaseId, row.Slot, row.WriteVersion,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: upsert listing: %s", errs.ErrStorage, err)
	}
	return id, nil
}

func (s *PGStore) UpsertOffer(ctx context.Context, row model.Offer) (string, error) {
	if row.Id == "" {
		row.Id = uuid.NewString()
	}
	var purchaseId any
	if row.PurchaseId != nil {
		purchaseId = *row.PurchaseId
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO offers (
			id, trade_state, buyer, metadata, auction_house, marketplace_program,
			price, token_size, trade_state_bump, expiry, created_at, canceled_at,
			purchase_id, slot, write_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (trade_state) DO UPDATE SET
			buyer = EXCLUDED.buyer,
			metadata = EXCLUDED.metadata,
			auction_house = EXCLUDED.auction_house,
			marketplace_program = EXCLUDED.marketplace_program,
			price = EXCLUDED.price,
			token_size = EXCLUDED.token_size,
			trade_state_bump = EXCLUDED.trade_state_bump,
			expiry = EXCLUDED.expiry,
			slot = EXCLUDED.slot,
			write_version = EXCLUDED.write_version,
			purchase_id = COALESCE(offers.purchase_id, EXCLUDED.purchase_id),
			canceled_at = COALESCE(offers.canceled_at, EXCLUDED.canceled_at)
		RETURNING id
	`,
		row.Id, row.TradeState, row.Buyer, row.Metadata, row.AuctionHouse, row.MarketplaceProgram,
		row.Price, row.TokenSize, row.TradeStateBump, row.Expiry, row.CreatedAt, row.CanceledAt,
		purchaseId, row.Slot, row.WriteVersion,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: upsert offer: %s", errs.ErrStorage, err)
	}
	return id, nil
}

// UpsertPurchase runs as a single transaction: insert or update the
// Purchase row on the named composite constraint, link any
// already-open Offer/Listing matching the trade, and — only when this
// call created the row — emit the feed event exactly once.
func (s *PGStore) UpsertPurchase(ctx context.Context, row model.Purchase) (string, error) {
	if row.Id == "" {
		row.Id = uuid.NewString()
	}
	logger := logging.GetLogger()
	var id string
	var alreadyExisted bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM purchases
				WHERE buyer = $1 AND seller = $2 AND auction_house = $3
				  AND metadata = $4 AND price = $5 AND token_size = $6
			)
		`, row.Buyer, row.Seller, row.AuctionHouse, row.Metadata, row.Price, row.TokenSize,
		).Scan(&alreadyExisted)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO purchases (
				id, buyer, seller, auction_house, marketplace_program, metadata,
				price, token_size, created_at, slot, write_version
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT ON CONSTRAINT purchases_unique_fields DO UPDATE SET
				slot = EXCLUDED.slot,
				write_version = EXCLUDED.write_version,
				created_at = EXCLUDED.created_at
			RETURNING id
		`,
			row.Id, row.Buyer, row.Seller, row.AuctionHouse, row.MarketplaceProgram, row.Metadata,
			row.Price, row.TokenSize, row.CreatedAt, row.Slot, row.WriteVersion,
		).Scan(&id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE offers SET purchase_id = $1, slot = $2
			WHERE auction_house = $3 AND buyer = $4 AND metadata = $5
			  AND purchase_id IS NULL AND canceled_at IS NULL
		`, id, row.Slot, row.AuctionHouse, row.Buyer, row.Metadata); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE listings SET purchase_id = $1, slot = $2
			WHERE auction_house = $3 AND seller = $4 AND metadata = $5
			  AND price = $6 AND token_size = $7
			  AND purchase_id IS NULL AND canceled_at IS NULL
		`, id, row.Slot, row.AuctionHouse, row.Seller, row.Metadata, row.Price, row.TokenSize); err != nil {
			return err
		}

		if alreadyExisted {
			return nil
		}
		return emitPurchaseFeedEventTx(ctx, tx, id, row.Buyer, row.Seller)
	})
	if err != nil {
		return "", fmt.Errorf("%w: upsert purchase: %s", errs.ErrStorage, err)
	}
	if alreadyExisted {
		logger.Debugw("purchase already realized, skipped feed event", "purchaseId", id)
	}
	return id, nil
}

// emitPurchaseFeedEventTx inserts one feed_events row, one
// purchase_events child, and two feed_event_wallets rows, all inside
// the caller's transaction so a failure anywhere rolls the whole thing
// back and the error is returned to the caller. The message is not
// retried: the router logs the handler's error and drops the message.
func emitPurchaseFeedEventTx(ctx context.Context, tx pgx.Tx, purchaseId, buyer, seller string) error {
	var feedEventId string
	if err := tx.QueryRow(ctx, `
		INSERT INTO feed_events (id, created_at) VALUES ($1, now()) RETURNING id
	`, uuid.NewString()).Scan(&feedEventId); err != nil {
		return fmt.Errorf("failed to insert feed event: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchase_events (purchase_id, feed_event_id) VALUES ($1, $2)
	`, purchaseId, feedEventId); err != nil {
		return fmt.Errorf("failed to insert purchase created event: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO feed_event_wallets (wallet_address, feed_event_id) VALUES ($1, $2)
	`, seller, feedEventId); err != nil {
		return fmt.Errorf("failed to insert purchase feed event wallet for seller: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO feed_event_wallets (wallet_address, feed_event_id) VALUES ($1, $2)
	`, buyer, feedEventId); err != nil {
		return fmt.Errorf("failed to insert purchase feed event wallet for buyer: %w", err)
	}
	return nil
}

func (s *PGStore) CancelListing(ctx context.Context, tradeState string, canceledAt time.Time, slot int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings SET canceled_at = $1, slot = $2
		WHERE trade_state = $3 AND purchase_id IS NULL AND canceled_at IS NULL
	`, canceledAt, slot, tradeState)
	if err != nil {
		return fmt.Errorf("%w: failed to cancel ME listing: %s", errs.ErrStorage, err)
	}
	return nil
}

func (s *PGStore) CancelOffer(ctx context.Context, tradeState string, canceledAt time.Time, slot int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE offers SET canceled_at = $1, slot = $2
		WHERE trade_state = $3 AND purchase_id IS NULL AND canceled_at IS NULL
	`, canceledAt, slot, tradeState)
	if err != nil {
		return fmt.Errorf("%w: failed to cancel ME bid: %s", errs.ErrStorage, err)
	}
	return nil
}

func (s *PGStore) FindPurchaseIdBySeller(ctx context.Context, seller, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM purchases
		WHERE seller = $1 AND auction_house = $2 AND metadata = $3
		  AND price = $4 AND token_size = $5 AND slot = $6
	`, seller, auctionHouse, metadata, price, tokenSize, slot).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to get purchase ids: %s", errs.ErrStorage, err)
	}
	return id, nil
}

func (s *PGStore) FindPurchaseIdByBuyer(ctx context.Context, buyer, auctionHouse, metadata string, price, tokenSize, slot int64) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM purchases
		WHERE buyer = $1 AND auction_house = $2 AND metadata = $3
		  AND price = $4 AND token_size = $5 AND slot = $6
	`, buyer, auctionHouse, metadata, price, tokenSize, slot).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to get purchase ids: %s", errs.ErrStorage, err)
	}
	return id, nil
}

func (s *PGStore) GetRewardCenter(ctx context.Context, address string) (model.RewardCenter, error) {
	var rc model.RewardCenter
	var operand string
	err := s.pool.QueryRow(ctx, `
		SELECT address, token_mint, auction_house, seller_reward_payout_basis_points,
		       mathematical_operand, payout_numeral, bump
		FROM reward_centers WHERE address = $1
	`, address).Scan(&rc.Address, &rc.TokenMint, &rc.AuctionHouse, &rc.SellerRewardPayoutBasisPoints,
		&operand, &rc.PayoutNumeral, &rc.Bump)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RewardCenter{}, errs.ErrNotFound
	}
	if err != nil {
		return model.RewardCenter{}, fmt.Errorf("%w: get reward center: %s", errs.ErrStorage, err)
	}
	if operand == "divide" {
		rc.MathematicalOperand = model.OperandDivide
	} else {
		rc.MathematicalOperand = model.OperandMultiply
	}
	return rc, nil
}

func (s *PGStore) AuctionHouseForRewardCenter(ctx context.Context, rewardCenterAddress string) (string, error) {
	var auctionHouse string
	err := s.pool.QueryRow(ctx, `
		SELECT auction_houses.address
		FROM auction_houses
		INNER JOIN reward_centers ON auction_houses.address = reward_centers.auction_house
		WHERE reward_centers.address = $1
	`, rewardCenterAddress).Scan(&auctionHouse)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolve auction house for reward center: %s", errs.ErrStorage, err)
	}
	return auctionHouse, nil
}

func (s *PGStore) UpsertPurchaseTicket(ctx context.Context, row model.PurchaseTicket) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rewards_purchase_tickets (
			address, reward_center_address, seller, buyer, metadata,
			price, token_size, created_at, slot, write_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (address) DO UPDATE SET
			reward_center_address = EXCLUDED.reward_center_address,
			seller = EXCLUDED.seller,
			buyer = EXCLUDED.buyer,
			metadata = EXCLUDED.metadata,
			price = EXCLUDED.price,
			token_size = EXCLUDED.token_size,
			created_at = EXCLUDED.created_at,
			slot = EXCLUDED.slot,
			write_version = EXCLUDED.write_version
	`, row.Address, row.RewardCenter, row.Seller, row.Buyer, row.Metadata,
		row.Price, row.TokenSize, row.CreatedAt, row.Slot, row.WriteVersion)
	if err != nil {
		return fmt.Errorf("%w: failed to insert rewards purchase ticket: %s", errs.ErrStorage, err)
	}
	return nil
}

func (s *PGStore) InsertRewardPayoutIfAbsent(ctx context.Context, row model.RewardPayout) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reward_payouts (
			purchase_ticket, metadata, reward_center, buyer, buyer_reward,
			seller, seller_reward, created_at, slot, write_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (purchase_ticket) DO NOTHING
	`, row.PurchaseTicket, row.Metadata, row.RewardCenter, row.Buyer, row.BuyerReward,
		row.Seller, row.SellerReward, row.CreatedAt, row.Slot, row.WriteVersion)
	if err != nil {
		return fmt.Errorf("%w: failed to insert rewards payout: %s", errs.ErrStorage, err)
	}
	return nil
}
