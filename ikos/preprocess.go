//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"fmt"
	"io"

	"github.com/markkurossi/mpcith/circuit"
	"github.com/markkurossi/mpcith/prg"
)

// Preprocessing holds one witness-independent preprocessing
// emulation: one tape seed per party, the tape-derived input share
// bits, one Beaver triple per AND gate, and the dealer's correction
// bits. It is generated before the witness is known and consumed by
// at most one online execution.
type Preprocessing struct {
	Seeds []prg.Seed

	// Inputs holds each party's tape-derived input share bits. The
	// last party's bits are replaced with the witness share when the
	// witness is shared.
	Inputs [][]byte

	// TripleA, TripleB, and TripleC hold each party's raw tape
	// triple bits, one per AND gate.
	TripleA [][]byte
	TripleB [][]byte
	TripleC [][]byte

	// AuxC holds the dealer's correction bits, one per AND gate.
	// The last party's effective triple c share is its TripleC row
	// XOR AuxC, which makes XOR(c) = XOR(a) AND XOR(b) hold. AuxC is
	// a deterministic function of the seeds; the audit recomputes
	// and checks it.
	AuxC []byte
}

// NumParties returns the number of parties.
func (prep *Preprocessing) NumParties() int {
	return len(prep.Seeds)
}

// Preprocess generates one preprocessing emulation: n fresh tape
// seeds from the randomness source rnd, expanded into input share
// bits, multiplication triples, and the dealer corrections.
func Preprocess(circ *circuit.Circuit, n int, rnd io.Reader) (
	*Preprocessing, error) {

	if n < 2 {
		return nil, fmt.Errorf("ikos: invalid party count %d", n)
	}
	seeds := make([]prg.Seed, n)
	for i := 0; i < n; i++ {
		seed, err := prg.NewSeed(rnd)
		if err != nil {
			return nil, fmt.Errorf("ikos: preprocess: %w", err)
		}
		seeds[i] = seed
	}
	return preprocess(circ, seeds), nil
}

// preprocess expands the tape seeds into a Preprocessing. The
// expansion is deterministic: each party's tape supplies its input
// share bits first, then the a, b, c bits of each AND gate in gate
// order. The dealer correction for gate k makes the triples
// multiply once it is folded into the last party's c bit.
func preprocess(circ *circuit.Circuit, seeds []prg.Seed) *Preprocessing {
	n := len(seeds)
	numAND := circ.NumAND()

	prep := &Preprocessing{
		Seeds:   seeds,
		Inputs:  make([][]byte, n),
		TripleA: make([][]byte, n),
		TripleB: make([][]byte, n),
		TripleC: make([][]byte, n),
		AuxC:    make([]byte, numAND),
	}
	for i := 0; i < n; i++ {
		tape := prg.NewTape(seeds[i])
		prep.Inputs[i] = tape.Bits(circ.NumInputs)
		prep.TripleA[i] = make([]byte, numAND)
		prep.TripleB[i] = make([]byte, numAND)
		prep.TripleC[i] = make([]byte, numAND)
		for k := 0; k < numAND; k++ {
			prep.TripleA[i][k] = tape.Bit()
			prep.TripleB[i][k] = tape.Bit()
			prep.TripleC[i][k] = tape.Bit()
		}
	}

	// Dealer correction: XOR(c) XOR AuxC must equal
	// XOR(a) AND XOR(b).
	for k := 0; k < numAND; k++ {
		var a, b, c byte
		for i := 0; i < n; i++ {
			a ^= prep.TripleA[i][k]
			b ^= prep.TripleB[i][k]
			c ^= prep.TripleC[i][k]
		}
		prep.AuxC[k] = c ^ (a & b)
	}

	return prep
}

// shareWitness secret shares the witness bits among the parties. The
// first n-1 parties use their tape-derived input bits as shares; the
// last party's share is the complement that reconstructs the
// witness.
func (prep *Preprocessing) shareWitness(witness []byte) [][]byte {
	n := prep.NumParties()
	shares := make([][]byte, n)
	for i := 0; i < n-1; i++ {
		shares[i] = prep.Inputs[i]
	}
	last := make([]byte, len(witness))
	for idx, bit := range witness {
		last[idx] = bit & 1
		for i := 0; i < n-1; i++ {
			last[idx] ^= shares[i][idx]
		}
	}
	shares[n-1] = last

	return shares
}
