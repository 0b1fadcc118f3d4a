//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prg implements a deterministic pseudo-random generator for
// party random tapes.
package prg

import (
	"io"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the tape seed size in bytes.
const SeedSize = chacha20.KeySize

// Seed is a random tape seed.
type Seed [SeedSize]byte

// NewSeed creates a new random seed from the randomness source rnd.
func NewSeed(rnd io.Reader) (Seed, error) {
	var seed Seed
	_, err := io.ReadFull(rnd, seed[:])
	return seed, err
}

// Tape expands a seed into a deterministic stream of bits. Callers
// must consume the stream in a fixed order; the same seed always
// produces the same stream.
type Tape struct {
	stream *chacha20.Cipher
}

// NewTape creates a new random tape from the seed.
func NewTape(seed Seed) *Tape {
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		// Key and nonce sizes are correct by construction.
		panic(err)
	}
	return &Tape{
		stream: stream,
	}
}

// Bit returns the next tape bit.
func (t *Tape) Bit() byte {
	var buf [1]byte
	t.stream.XORKeyStream(buf[:], buf[:])
	return buf[0] & 1
}

// Bits returns the next n tape bits, one bit per byte.
func (t *Tape) Bits(n int) []byte {
	buf := make([]byte, n)
	t.stream.XORKeyStream(buf, buf)
	for i := range buf {
		buf[i] &= 1
	}
	return buf
}

// Bytes returns the next n tape bytes.
func (t *Tape) Bytes(n int) []byte {
	buf := make([]byte, n)
	t.stream.XORKeyStream(buf, buf)
	return buf
}
