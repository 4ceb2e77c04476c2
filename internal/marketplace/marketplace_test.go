package marketplace

import (
	"context"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/codec"
	"github.com/blinklabs-io/nft-indexer/internal/store"
)

func accountsOfLen(n int, set map[int]string) []string {
	accounts := make([]string, n)
	for i := range accounts {
		accounts[i] = "unused"
	}
	for idx, addr := range set {
		accounts[idx] = addr
	}
	return accounts
}

func buyPayload(t *testing.T, price, tokenSize uint64) []byte {
	t.Helper()
	params := codec.MEInstructionParams{
		TradeStateBump:    255,
		EscrowPaymentBump: 254,
		BuyerPrice:        price,
		TokenSize:         tokenSize,
		Expiry:            0,
	}
	return append(chain.DiscriminatorBuy[:], params.Encode()...)
}

func sellPayload(t *testing.T, price, tokenSize uint64) []byte {
	t.Helper()
	params := codec.MEInstructionParams{
		TradeStateBump:    253,
		EscrowPaymentBump: 0,
		BuyerPrice:        price,
		TokenSize:         tokenSize,
		Expiry:            0,
	}
	return append(chain.DiscriminatorSell[:], params.Encode()...)
}

func executeSalePayload(t *testing.T, price, tokenSize uint64) []byte {
	t.Helper()
	params := codec.MEInstructionParams{
		TradeStateBump:    0,
		EscrowPaymentBump: 0,
		BuyerPrice:        price,
		TokenSize:         tokenSize,
		Expiry:            0,
	}
	return append(chain.DiscriminatorExecuteSale[:], params.Encode()...)
}

func TestBuyDropsOnWrongAccountCount(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem, MarketplaceProgram: "ME_HAUS"}

	err := h.Buy(context.Background(), chain.InstructionMessage{
		ProgramId: "ME_HAUS",
		Data:      buyPayload(t, 1_000_000, 1),
		Accounts:  accountsOfLen(11, map[int]string{buyIdxTradeState: "trade-state"}),
		Slot:      1,
	})
	if err != nil {
		t.Fatalf("Buy with a wrong account count must drop silently, not error: %v", err)
	}
	if _, ok := mem.Offer("trade-state"); ok {
		t.Fatalf("no offer should have been recorded")
	}
}

func TestSellFailsLoudlyOnWrongAccountCount(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem, MarketplaceProgram: "ME_HAUS"}

	err := h.Sell(context.Background(), chain.InstructionMessage{
		ProgramId: "ME_HAUS",
		Data:      sellPayload(t, 1_000_000, 1),
		Accounts:  accountsOfLen(3, nil),
		Slot:      1,
	})
	if err == nil {
		t.Fatalf("Sell with too few accounts must fail loudly")
	}
}

func TestSellBuyExecuteSaleInOrderLinksAndEmitsOnce(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem, MarketplaceProgram: "ME_HAUS"}
	ctx := context.Background()

	sellAccounts := accountsOfLen(9, map[int]string{
		sellIdxSeller:       "seller-1",
		sellIdxMetadata:     "metadata-1",
		sellIdxAuctionHouse: "auction-house-1",
		sellIdxTradeState:   "listing-ts",
	})
	if err := h.Sell(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: sellPayload(t, 5_000_000, 1), Accounts: sellAccounts, Slot: 10,
	}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	buyAccounts := accountsOfLen(buyAccountCount, map[int]string{
		buyIdxBuyer:        "buyer-1",
		buyIdxMetadata:     "metadata-1",
		buyIdxAuctionHouse: "auction-house-1",
		buyIdxTradeState:   "offer-ts",
	})
	if err := h.Buy(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: buyPayload(t, 5_000_000, 1), Accounts: buyAccounts, Slot: 11,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	executeAccounts := accountsOfLen(14, map[int]string{
		executeIdxBuyer:        "buyer-1",
		executeIdxSeller:       "seller-1",
		executeIdxMetadata:     "metadata-1",
		executeIdxAuctionHouse: "auction-house-1",
	})
	if err := h.ExecuteSale(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: executeSalePayload(t, 5_000_000, 1), Accounts: executeAccounts, Slot: 12,
	}); err != nil {
		t.Fatalf("execute sale: %v", err)
	}

	listing, _ := mem.Listing("listing-ts")
	if listing.PurchaseId == nil {
		t.Fatalf("listing was never linked to the purchase")
	}
	offer, _ := mem.Offer("offer-ts")
	if offer.PurchaseId == nil {
		t.Fatalf("offer was never linked to the purchase")
	}
	if mem.PurchaseCount() != 1 {
		t.Fatalf("expected exactly one purchase, got %d", mem.PurchaseCount())
	}
	if mem.FeedEventCount() != 1 {
		t.Fatalf("expected exactly one feed event, got %d", mem.FeedEventCount())
	}
}

func TestExecuteSaleBeforeSellAndBuyStillLinksOnArrival(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem, MarketplaceProgram: "ME_HAUS"}
	ctx := context.Background()

	executeAccounts := accountsOfLen(14, map[int]string{
		executeIdxBuyer:        "buyer-1",
		executeIdxSeller:       "seller-1",
		executeIdxMetadata:     "metadata-1",
		executeIdxAuctionHouse: "auction-house-1",
	})
	if err := h.ExecuteSale(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: executeSalePayload(t, 5_000_000, 1), Accounts: executeAccounts, Slot: 12,
	}); err != nil {
		t.Fatalf("execute sale: %v", err)
	}

	sellAccounts := accountsOfLen(9, map[int]string{
		sellIdxSeller:       "seller-1",
		sellIdxMetadata:     "metadata-1",
		sellIdxAuctionHouse: "auction-house-1",
		sellIdxTradeState:   "listing-ts",
	})
	if err := h.Sell(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: sellPayload(t, 5_000_000, 1), Accounts: sellAccounts, Slot: 12,
	}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	buyAccounts := accountsOfLen(buyAccountCount, map[int]string{
		buyIdxBuyer:        "buyer-1",
		buyIdxMetadata:     "metadata-1",
		buyIdxAuctionHouse: "auction-house-1",
		buyIdxTradeState:   "offer-ts",
	})
	if err := h.Buy(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: buyPayload(t, 5_000_000, 1), Accounts: buyAccounts, Slot: 12,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	listing, ok := mem.Listing("listing-ts")
	if !ok {
		t.Fatalf("listing missing")
	}
	if listing.PurchaseId == nil {
		t.Fatalf("sell arriving after execute sale should link to the pre-existing purchase")
	}
	offer, ok := mem.Offer("offer-ts")
	if !ok {
		t.Fatalf("offer missing")
	}
	if offer.PurchaseId == nil {
		t.Fatalf("buy arriving after execute sale should link to the pre-existing purchase")
	}
	if mem.FeedEventCount() != 1 {
		t.Fatalf("out-of-order arrival must not duplicate the feed event, got %d", mem.FeedEventCount())
	}
}

func TestCancelSellIsIdempotentAndRaceSafeAgainstExecuteSale(t *testing.T) {
	mem := store.NewMemStore()
	h := &Handlers{Store: mem, MarketplaceProgram: "ME_HAUS"}
	ctx := context.Background()

	sellAccounts := accountsOfLen(9, map[int]string{
		sellIdxSeller:       "seller-1",
		sellIdxMetadata:     "metadata-1",
		sellIdxAuctionHouse: "auction-house-1",
		sellIdxTradeState:   "listing-ts",
	})
	if err := h.Sell(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: sellPayload(t, 5_000_000, 1), Accounts: sellAccounts, Slot: 10,
	}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	cancelAccounts := accountsOfLen(7, map[int]string{cancelSellIdxListingTradeState: "listing-ts"})
	if err := h.CancelSell(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Accounts: cancelAccounts, Slot: 20,
	}); err != nil {
		t.Fatalf("cancel sell: %v", err)
	}
	if err := h.CancelSell(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Accounts: cancelAccounts, Slot: 21,
	}); err != nil {
		t.Fatalf("replayed cancel sell: %v", err)
	}

	executeAccounts := accountsOfLen(14, map[int]string{
		executeIdxBuyer:        "buyer-1",
		executeIdxSeller:       "seller-1",
		executeIdxMetadata:     "metadata-1",
		executeIdxAuctionHouse: "auction-house-1",
	})
	if err := h.ExecuteSale(ctx, chain.InstructionMessage{
		ProgramId: "ME_HAUS", Data: executeSalePayload(t, 5_000_000, 1), Accounts: executeAccounts, Slot: 22,
	}); err != nil {
		t.Fatalf("execute sale: %v", err)
	}

	listing, _ := mem.Listing("listing-ts")
	if listing.CanceledAt == nil {
		t.Fatalf("expected listing to be canceled")
	}
	if listing.PurchaseId != nil {
		t.Fatalf("a canceled listing must never gain a purchase link")
	}
}
