package router

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
)

func TestDispatchInstructionRoutesByProgramAndDiscriminator(t *testing.T) {
	r := New()
	var called bool
	r.OnInstruction("ME_HAUS", chain.DiscriminatorBuy, func(ctx context.Context, msg chain.InstructionMessage) error {
		called = true
		return nil
	})

	payload := append(chain.DiscriminatorBuy[:], make([]byte, 26)...)
	r.DispatchInstruction(context.Background(), chain.InstructionMessage{
		ProgramId: "ME_HAUS",
		Data:      payload,
	})

	if !called {
		t.Fatalf("expected the registered Buy handler to run")
	}
}

func TestDispatchInstructionDropsUnknownProgram(t *testing.T) {
	r := New()
	var called bool
	r.OnInstruction("ME_HAUS", chain.DiscriminatorBuy, func(ctx context.Context, msg chain.InstructionMessage) error {
		called = true
		return nil
	})

	payload := append(chain.DiscriminatorBuy[:], make([]byte, 26)...)
	r.DispatchInstruction(context.Background(), chain.InstructionMessage{
		ProgramId: "SOME_OTHER_PROGRAM",
		Data:      payload,
	})

	if called {
		t.Fatalf("handler for a different program must not run")
	}
}

func TestDispatchInstructionDropsUnknownDiscriminator(t *testing.T) {
	r := New()
	var called bool
	r.OnInstruction("ME_HAUS", chain.DiscriminatorBuy, func(ctx context.Context, msg chain.InstructionMessage) error {
		called = true
		return nil
	})

	payload := append(chain.DiscriminatorCancelBuy[:], make([]byte, 26)...)
	r.DispatchInstruction(context.Background(), chain.InstructionMessage{
		ProgramId: "ME_HAUS",
		Data:      payload,
	})

	if called {
		t.Fatalf("handler registered for a different discriminator must not run")
	}
}

func TestDispatchInstructionSwallowsHandlerError(t *testing.T) {
	r := New()
	r.OnInstruction("ME_HAUS", chain.DiscriminatorBuy, func(ctx context.Context, msg chain.InstructionMessage) error {
		return errors.New("boom")
	})

	payload := append(chain.DiscriminatorBuy[:], make([]byte, 26)...)
	// Must not panic even though the handler errors.
	r.DispatchInstruction(context.Background(), chain.InstructionMessage{
		ProgramId: "ME_HAUS",
		Data:      payload,
	})
}

func TestDispatchAccountRoutesByProgramAndType(t *testing.T) {
	r := New()
	var called bool
	r.OnAccount("REWARD_CENTER", chain.AccountTypePurchaseTicket, func(ctx context.Context, msg chain.AccountMessage) error {
		called = true
		return nil
	})

	r.DispatchAccount(context.Background(), chain.AccountMessage{
		ProgramId:   "REWARD_CENTER",
		AccountType: chain.AccountTypePurchaseTicket,
	})

	if !called {
		t.Fatalf("expected the registered purchase ticket handler to run")
	}
}

func TestDispatchAccountDropsUnrecognizedType(t *testing.T) {
	r := New()
	var called bool
	r.OnAccount("REWARD_CENTER", chain.AccountTypePurchaseTicket, func(ctx context.Context, msg chain.AccountMessage) error {
		called = true
		return nil
	})

	r.DispatchAccount(context.Background(), chain.AccountMessage{
		ProgramId:   "REWARD_CENTER",
		AccountType: chain.AccountTypeRewardCenter,
	})

	if called {
		t.Fatalf("handler for a different account type must not run")
	}
}
