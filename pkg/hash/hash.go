package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

type Algorithm string

const SHA256 Algorithm = "sha256"

// Hasher produces hex digests of export payloads.
type Hasher struct {
	algorithm Algorithm
}

func New(algorithm Algorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

func (h *Hasher) Calculate(data []byte) (string, error) {
	hasher, err := h.newHash()
	if err != nil {
		return "", err
	}

	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (h *Hasher) Verify(data []byte, expected string) (bool, error) {
	got, err := h.Calculate(data)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}

func (h *Hasher) newHash() (hash.Hash, error) {
	switch h.algorithm {
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", h.algorithm)
	}
}
