//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share implements XOR (additive over GF(2)) secret sharing.
// A secret bit is split into n shares whose XOR equals the bit; any
// n-1 shares are distributed independently of the secret.
package share

import (
	"fmt"
	"io"
)

// Split splits the bit into n shares. The first n-1 shares are drawn
// from the randomness source rnd and the last share is set so that
// the XOR of all shares equals the bit.
func Split(rnd io.Reader, bit byte, n int) ([]byte, error) {
	if n < 2 {
		return nil, fmt.Errorf("share: invalid share count %d", n)
	}
	shares := make([]byte, n)
	if _, err := io.ReadFull(rnd, shares[:n-1]); err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}

	last := bit & 1
	for i := 0; i < n-1; i++ {
		shares[i] &= 1
		last ^= shares[i]
	}
	shares[n-1] = last

	return shares, nil
}

// SplitBits splits the bit-vector into n share vectors. The result
// holds one share vector per party.
func SplitBits(rnd io.Reader, bits []byte, n int) ([][]byte, error) {
	shares := make([][]byte, n)
	for i := 0; i < n; i++ {
		shares[i] = make([]byte, len(bits))
	}
	for idx, bit := range bits {
		s, err := Split(rnd, bit, n)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			shares[i][idx] = s[i]
		}
	}
	return shares, nil
}

// Reconstruct XOR-folds the shares back into the secret bit.
func Reconstruct(shares []byte) byte {
	var bit byte
	for _, s := range shares {
		bit ^= s & 1
	}
	return bit
}

// ReconstructBits XOR-folds the per-party share vectors back into the
// secret bit-vector.
func ReconstructBits(shares [][]byte) []byte {
	if len(shares) == 0 {
		return nil
	}
	bits := make([]byte, len(shares[0]))
	for _, vec := range shares {
		for idx, s := range vec {
			bits[idx] ^= s & 1
		}
	}
	return bits
}
