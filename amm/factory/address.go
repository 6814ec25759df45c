package factory

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// GenerateSalt derives the salt of an owner's counter-th pair.
func GenerateSalt(owner string, counter uint64) []byte {
	h := sha256.New()
	h.Write([]byte(owner))
	h.Write(binary.BigEndian.AppendUint64(nil, counter))
	return h.Sum(nil)
}

// Instantiate2Address computes the canonical address a contract gets when
// creator instantiates code with the given checksum and salt. The result
// depends on nothing else, so it is known before the pair exists.
func Instantiate2Address(checksum, creator, salt []byte) ([]byte, error) {
	if len(salt) == 0 || len(salt) > 64 {
		return nil, fmt.Errorf("salt must be 1 to 64 bytes, got %d", len(salt))
	}
	key := []byte("wasm\x00")
	for _, part := range [][]byte{checksum, creator, salt, nil} {
		key = binary.BigEndian.AppendUint64(key, uint64(len(part)))
		key = append(key, part...)
	}

	typeHash := sha256.Sum256([]byte("module"))
	h := sha256.New()
	h.Write(typeHash[:])
	h.Write(key)
	return h.Sum(nil), nil
}

// DecodeAddress returns the canonical bytes of a bech32 address.
func DecodeAddress(address string) ([]byte, error) {
	_, data, err := bech32.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	canonical, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert address bits: %w", err)
	}
	return canonical, nil
}

// EncodeAddress renders canonical bytes as a bech32 address.
func EncodeAddress(prefix string, canonical []byte) (string, error) {
	data, err := bech32.ConvertBits(canonical, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}
	encoded, err := bech32.Encode(prefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return encoded, nil
}

// DeriveAddress is Instantiate2Address rendered with prefix.
func DeriveAddress(prefix string, checksum, creator, salt []byte) (string, error) {
	canonical, err := Instantiate2Address(checksum, creator, salt)
	if err != nil {
		return "", err
	}
	return EncodeAddress(prefix, canonical)
}
