package rewardcenter

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/codec"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/blinklabs-io/nft-indexer/internal/store"
)

func TestComputePayoutMultiplyBoundaryCase(t *testing.T) {
	rc := model.RewardCenter{
		SellerRewardPayoutBasisPoints: 500,
		MathematicalOperand:           model.OperandMultiply,
		PayoutNumeral:                 2,
	}
	sellerReward, buyerReward, err := ComputePayout(1_000_000, rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sellerReward.String() != "100000" {
		t.Fatalf("seller reward: got %s, want 100000", sellerReward.String())
	}
	if buyerReward.String() != "1900000" {
		t.Fatalf("buyer reward: got %s, want 1900000", buyerReward.String())
	}
}

func TestComputePayoutDivideByZeroErrors(t *testing.T) {
	rc := model.RewardCenter{
		SellerRewardPayoutBasisPoints: 500,
		MathematicalOperand:           model.OperandDivide,
		PayoutNumeral:                 0,
	}
	_, _, err := ComputePayout(1_000_000, rc)
	if !errors.Is(err, errs.ErrArgument) {
		t.Fatalf("expected ErrArgument, got %v", err)
	}
}

func TestComputePayoutDivide(t *testing.T) {
	rc := model.RewardCenter{
		SellerRewardPayoutBasisPoints: 2_500,
		MathematicalOperand:           model.OperandDivide,
		PayoutNumeral:                 4,
	}
	sellerReward, buyerReward, err := ComputePayout(1_000_000, rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// reward_unit = 1,000,000 / 4 = 250,000
	// seller = 250,000 * 2500 / 10000 = 62,500
	// buyer = 250,000 * 7500 / 10000 = 187,500
	if sellerReward.String() != "62500" {
		t.Fatalf("seller reward: got %s, want 62500", sellerReward.String())
	}
	if buyerReward.String() != "187500" {
		t.Fatalf("buyer reward: got %s, want 187500", buyerReward.String())
	}
}

func buildPurchaseTicketAccountData(rewardCenter, seller, buyer, metadata [32]byte, price, tokenSize uint64, createdAt int64) []byte {
	data := make([]byte, purchaseTicketAccountLen)
	offset := 8
	copy(data[offset:], rewardCenter[:])
	offset += 32
	copy(data[offset:], seller[:])
	offset += 32
	copy(data[offset:], buyer[:])
	offset += 32
	copy(data[offset:], metadata[:])
	offset += 32
	putUint64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			data[offset+i] = byte(v >> (8 * i))
		}
		offset += 8
	}
	putUint64(price)
	putUint64(tokenSize)
	putUint64(uint64(createdAt))
	return data
}

func TestHandlePurchaseTicketSkipsPayoutWhenRewardCenterAbsent(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem}

	var rewardCenter, seller, buyer, metadata [32]byte
	rewardCenter[0] = 1
	seller[0] = 2
	buyer[0] = 3
	metadata[0] = 4

	data := buildPurchaseTicketAccountData(rewardCenter, seller, buyer, metadata, 1_000_000, 1, 1_700_000_000)
	err := h.HandlePurchaseTicket(context.Background(), chain.AccountMessage{
		ProgramId:   "REWARD_CENTER",
		AccountKey:  "ticket-1",
		AccountType: chain.AccountTypePurchaseTicket,
		AccountData: data,
		Slot:        1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.PurchaseCount() != 0 {
		t.Fatalf("no purchase should be synthesized when the reward center is unknown")
	}
}

func TestHandlePurchaseTicketDrivesPayoutAndPurchase(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem}

	var rewardCenterKey, sellerKey, buyerKey, metadataKey [32]byte
	rewardCenterKey[0] = 1
	sellerKey[0] = 2
	buyerKey[0] = 3
	metadataKey[0] = 4

	rewardCenterAddress := codec.EncodeKey(rewardCenterKey)
	mem.RegisterRewardCenter(model.RewardCenter{
		Address:                       rewardCenterAddress,
		AuctionHouse:                  "auction-house-1",
		SellerRewardPayoutBasisPoints: 500,
		MathematicalOperand:           model.OperandMultiply,
		PayoutNumeral:                 2,
	})

	data := buildPurchaseTicketAccountData(rewardCenterKey, sellerKey, buyerKey, metadataKey, 1_000_000, 1, 1_700_000_000)
	err := h.HandlePurchaseTicket(context.Background(), chain.AccountMessage{
		ProgramId:   "REWARD_CENTER",
		AccountKey:  "ticket-1",
		AccountType: chain.AccountTypePurchaseTicket,
		AccountData: data,
		Slot:        1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.PurchaseCount() != 1 {
		t.Fatalf("expected the synthesized purchase to be recorded, got %d", mem.PurchaseCount())
	}
	if mem.FeedEventCount() != 1 {
		t.Fatalf("expected exactly one feed event, got %d", mem.FeedEventCount())
	}
}
