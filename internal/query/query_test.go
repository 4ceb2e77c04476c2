package query

import (
	"context"
	"errors"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/model"
	"github.com/blinklabs-io/nft-indexer/internal/store"
)

func TestNftsRequiresExactlyOneFilter(t *testing.T) {
	mem := store.NewMemStore()
	root := New(mem, nil)

	_, err := root.Nfts(context.Background(), NftsArgs{})
	if !errors.Is(err, errs.ErrArgument) {
		t.Fatalf("expected ErrArgument when neither filter is supplied, got %v", err)
	}

	_, err = root.Nfts(context.Background(), NftsArgs{Owners: []string{"a"}, Creators: []string{"b"}})
	if !errors.Is(err, errs.ErrArgument) {
		t.Fatalf("expected ErrArgument when both filters are supplied, got %v", err)
	}
}

func TestNftsByOwnerOrderedByNameDescending(t *testing.T) {
	mem := store.NewMemStore()
	mem.Nfts["nft-a"] = model.Nft{Address: "nft-a", Name: "Alpha"}
	mem.Nfts["nft-b"] = model.Nft{Address: "nft-b", Name: "Beta"}
	mem.OwnerNfts["owner-1"] = []string{"nft-a", "nft-b"}

	root := New(mem, nil)
	nfts, err := root.Nfts(context.Background(), NftsArgs{Owners: []string{"owner-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nfts) != 2 {
		t.Fatalf("expected 2 nfts, got %d", len(nfts))
	}
	if nfts[0].Name != "Beta" || nfts[1].Name != "Alpha" {
		t.Fatalf("expected descending name order, got %+v", nfts)
	}
}

func TestNftNotFound(t *testing.T) {
	mem := store.NewMemStore()
	root := New(mem, nil)
	_, err := root.Nft(context.Background(), "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
