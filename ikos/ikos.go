//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"crypto/rand"
	"errors"
	"fmt"
	"hash"
	"io"
	"math"

	"golang.org/x/crypto/sha3"
)

// Protocol failure kinds. Verification failures are never retried;
// any single failing check rejects the whole proof.
var (
	// ErrWitnessUnsatisfied is returned by the prover when the
	// witness does not evaluate to the claimed circuit output.
	ErrWitnessUnsatisfied = errors.New("witness does not satisfy circuit")

	// ErrCommitmentMismatch is returned when an opened commitment
	// does not match its revealed data.
	ErrCommitmentMismatch = errors.New("commitment mismatch")

	// ErrMessageInconsistency is returned when revealed data
	// disagrees with recomputation: a broadcast message, a
	// tape-derived value, a dealer correction, or a re-derived
	// challenge.
	ErrMessageInconsistency = errors.New("message inconsistency")

	// ErrReconstructionMismatch is returned when output shares do
	// not reconstruct the claimed circuit output.
	ErrReconstructionMismatch = errors.New("reconstruction mismatch")

	// ErrMalformedProof is returned when a proof fails structural
	// validation before verification begins.
	ErrMalformedProof = errors.New("malformed proof")
)

// Mode specifies how the challenges are generated.
type Mode byte

// Challenge generation modes.
const (
	// Interactive challenges are supplied by the verifier and stored
	// in the proof.
	Interactive Mode = iota

	// FiatShamir challenges are derived from the transcript and
	// recomputed by the verifier.
	FiatShamir
)

func (m Mode) String() string {
	switch m {
	case Interactive:
		return "interactive"
	case FiatShamir:
		return "fiat-shamir"
	default:
		return fmt.Sprintf("{Mode %d}", byte(m))
	}
}

// Params specifies the protocol parameters and its injected
// capabilities. The zero values of Rand and Hash select crypto/rand
// and SHA3-256.
type Params struct {
	// Parties is the number of virtual parties n.
	Parties int

	// Rounds is the number of online executions: independent
	// commit-challenge-open cycles on the shared witness.
	Rounds int

	// Emulations is the number of committed preprocessing
	// emulations. All but Rounds of them are opened and audited;
	// the rest run the online executions. The zero value selects
	// Parties*Rounds, which preserves the (1/Parties)^Rounds
	// soundness bound against corrupted preprocessing.
	Emulations int

	// Rand is the randomness source for seeds, nonces, and
	// interactive challenges.
	Rand io.Reader

	// Hash constructs the hash used for commitments and Fiat-Shamir
	// challenges.
	Hash func() hash.Hash
}

func (p Params) check() error {
	if p.Parties < 2 {
		return fmt.Errorf("ikos: invalid party count %d", p.Parties)
	}
	if p.Rounds < 1 {
		return fmt.Errorf("ikos: invalid round count %d", p.Rounds)
	}
	if p.Emulations != 0 && p.Emulations <= p.Rounds {
		return fmt.Errorf("ikos: %d emulations can't audit %d rounds",
			p.Emulations, p.Rounds)
	}
	return nil
}

func (p Params) emulations() int {
	if p.Emulations != 0 {
		return p.Emulations
	}
	return p.Parties * p.Rounds
}

func (p Params) random() io.Reader {
	if p.Rand != nil {
		return p.Rand
	}
	return rand.Reader
}

func (p Params) hash() func() hash.Hash {
	if p.Hash != nil {
		return p.Hash
	}
	return sha3.New256
}

// RoundsForSoundness returns the number of rounds needed for the
// soundness level of bits: the smallest r with (1/parties)^r <=
// 2^-bits.
func RoundsForSoundness(parties, bits int) int {
	return int(math.Ceil(float64(bits) / math.Log2(float64(parties))))
}

func bitsEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
