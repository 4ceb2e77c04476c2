package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/router"
)

type fakeSource struct {
	instructionCount int
	accountCount     int
}

func (f *fakeSource) Run(ctx context.Context, instructions chan<- chain.InstructionMessage, accounts chan<- chain.AccountMessage) error {
	defer close(instructions)
	defer close(accounts)
	for i := 0; i < f.instructionCount; i++ {
		select {
		case instructions <- chain.InstructionMessage{ProgramId: "ME_HAUS", Data: append(chain.DiscriminatorBuy[:], make([]byte, 26)...)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for i := 0; i < f.accountCount; i++ {
		select {
		case accounts <- chain.AccountMessage{ProgramId: "REWARD_CENTER", AccountType: chain.AccountTypePurchaseTicket}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestPoolDispatchesAllMessages(t *testing.T) {
	r := router.New()
	var instructionHandled, accountHandled int64
	r.OnInstruction("ME_HAUS", chain.DiscriminatorBuy, func(ctx context.Context, msg chain.InstructionMessage) error {
		atomic.AddInt64(&instructionHandled, 1)
		return nil
	})
	r.OnAccount("REWARD_CENTER", chain.AccountTypePurchaseTicket, func(ctx context.Context, msg chain.AccountMessage) error {
		atomic.AddInt64(&accountHandled, 1)
		return nil
	})

	pool := New(r, 4)
	source := &fakeSource{instructionCount: 20, accountCount: 10}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.Run(ctx, source); err != nil {
		t.Fatalf("pool run: %v", err)
	}

	if got := atomic.LoadInt64(&instructionHandled); got != 20 {
		t.Fatalf("expected 20 instructions handled, got %d", got)
	}
	if got := atomic.LoadInt64(&accountHandled); got != 10 {
		t.Fatalf("expected 10 accounts handled, got %d", got)
	}
}

func TestPoolStopsOnContextCancellation(t *testing.T) {
	r := router.New()
	pool := New(r, 2)
	source := &fakeSource{instructionCount: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Run(ctx, source); err != nil {
		t.Fatalf("expected cancellation to be swallowed as a clean stop, got %v", err)
	}
}
