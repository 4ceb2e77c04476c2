package codec

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/nft-indexer/internal/errs"
)

func TestEncodeDecodeKeyRoundTrips(t *testing.T) {
	var key [PubkeyLen]byte
	for i := range key {
		key[i] = byte(i)
	}
	encoded := EncodeKey(key)
	decoded, err := DecodeKey(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != key {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded, key)
	}
}

func TestDecodeKeyRejectsWrongLength(t *testing.T) {
	_, err := DecodeKey("1111111111111111111111111111111111111111") // valid base58 that decodes to 40 bytes, not 32
	if !errors.Is(err, errs.ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestMEInstructionParamsRoundTrips(t *testing.T) {
	params := MEInstructionParams{
		TradeStateBump:    255,
		EscrowPaymentBump: 1,
		BuyerPrice:        123_456_789,
		TokenSize:         1,
		Expiry:            1_700_000_000,
	}
	decoded, err := DecodeMEParams(params.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != params {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, params)
	}
}

func TestDecodeMEParamsRejectsShortPayload(t *testing.T) {
	_, err := DecodeMEParams([]byte{1, 2, 3})
	if !errors.Is(err, errs.ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestSplitDiscriminator(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	discriminator, params, err := SplitDiscriminator(payload)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if discriminator != ([8]byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("unexpected discriminator: %v", discriminator)
	}
	if len(params) != 2 || params[0] != 9 || params[1] != 10 {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestToI64RejectsOverflow(t *testing.T) {
	_, err := ToI64(1 << 63)
	if !errors.Is(err, errs.ErrBounds) {
		t.Fatalf("expected ErrBounds, got %v", err)
	}
}

func TestToI64AcceptsMaxInt64(t *testing.T) {
	v, err := ToI64(1<<63 - 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1<<63-1 {
		t.Fatalf("unexpected value: %d", v)
	}
}
