//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package prg

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestTapeDeterminism(t *testing.T) {
	seed, err := NewSeed(rand.Reader)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	a := NewTape(seed).Bits(1024)
	b := NewTape(seed).Bits(1024)
	if !bytes.Equal(a, b) {
		t.Fatalf("tape streams differ for the same seed")
	}
}

func TestTapeBytes(t *testing.T) {
	seed, err := NewSeed(rand.Reader)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	a := NewTape(seed).Bytes(256)
	tape := NewTape(seed)
	b := append(tape.Bytes(100), tape.Bytes(156)...)
	if !bytes.Equal(a, b) {
		t.Fatalf("byte streams differ for the same seed")
	}
}

func TestTapeBitOrder(t *testing.T) {
	seed, err := NewSeed(rand.Reader)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	bits := NewTape(seed).Bits(64)
	tape := NewTape(seed)
	for i, expected := range bits {
		if bit := tape.Bit(); bit != expected {
			t.Fatalf("bit %d: got %d, expected %d", i, bit, expected)
		}
	}
}

func TestTapeBalance(t *testing.T) {
	seed, err := NewSeed(rand.Reader)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	const n = 100000
	var ones int
	for _, bit := range NewTape(seed).Bits(n) {
		ones += int(bit)
	}
	// 10 sigma bound for a fair coin.
	if ones < n/2-1600 || ones > n/2+1600 {
		t.Errorf("biased tape: %d ones of %d bits", ones, n)
	}
}
