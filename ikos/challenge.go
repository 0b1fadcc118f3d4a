//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"crypto/rand"
	"fmt"
	"hash"
	"io"
	"math/big"
	"sort"

	"github.com/markkurossi/mpcith/prg"
)

// Challenger supplies the two challenge phases of the interactive
// protocol. AuditSet selects num of the committed preprocessing
// emulations to open in full; the rest run the online executions.
// Hidden selects, for one online execution, the index of the single
// party whose data stays hidden. Each challenge is drawn after the
// prover's corresponding message is fixed: the preprocessing
// commitments for AuditSet, and the execution's witness share
// commitment, broadcast rows, and published output shares for
// Hidden.
type Challenger interface {
	AuditSet(commitments [][][]byte, num int) ([]int, error)
	Hidden(exec int, witnessComm []byte, rows [][]Msg,
		outputs [][]byte) (int, error)
}

// RandomChallenger implements Challenger by drawing uniformly random
// challenges from Rand (crypto/rand if nil). This is the honest
// interactive verifier.
type RandomChallenger struct {
	Rand io.Reader
}

func (c *RandomChallenger) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

// AuditSet implements the Challenger interface: a uniform
// num-subset of the emulations, in ascending order.
func (c *RandomChallenger) AuditSet(commitments [][][]byte, num int) (
	[]int, error) {

	m := len(commitments)
	perm := make([]int, m)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < num; i++ {
		j, err := rand.Int(c.random(), big.NewInt(int64(m-i)))
		if err != nil {
			return nil, fmt.Errorf("ikos: challenge: %w", err)
		}
		k := i + int(j.Int64())
		perm[i], perm[k] = perm[k], perm[i]
	}
	set := perm[:num]
	sort.Ints(set)
	return set, nil
}

// Hidden implements the Challenger interface: a uniformly random
// party index.
func (c *RandomChallenger) Hidden(exec int, witnessComm []byte,
	rows [][]Msg, outputs [][]byte) (int, error) {

	e, err := rand.Int(c.random(), big.NewInt(int64(len(outputs))))
	if err != nil {
		return 0, fmt.Errorf("ikos: challenge: %w", err)
	}
	return int(e.Int64()), nil
}

// challengeTape expands a transcript digest into a deterministic
// challenge stream.
func challengeTape(digest []byte) *prg.Tape {
	var seed prg.Seed
	copy(seed[:], digest)
	return prg.NewTape(seed)
}

// tapeInt returns a uniform integer in [0, k) from the tape, by
// rejection sampling over 32-bit draws.
func tapeInt(tape *prg.Tape, k int) int {
	limit := (uint64(1) << 32) / uint64(k) * uint64(k)
	for {
		v := uint64(bo.Uint32(tape.Bytes(4)))
		if v < limit {
			return int(v % uint64(k))
		}
	}
}

// fsAuditSet derives the audit challenge from the preprocessing
// commitments with the Fiat-Shamir transform: a uniform num-subset
// of the emulations, in ascending order.
func fsAuditSet(newHash func() hash.Hash, commitments [][][]byte,
	num int) []int {

	h := newHash()
	for _, emu := range commitments {
		for _, c := range emu {
			h.Write(c)
		}
	}
	tape := challengeTape(h.Sum(nil))

	m := len(commitments)
	perm := make([]int, m)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < num; i++ {
		j := i + tapeInt(tape, m-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	set := perm[:num]
	sort.Ints(set)
	return set
}

// fsHiddenParties derives the per-execution hidden parties from the
// full transcript: the preprocessing commitments (which also fix the
// audit set) and every execution's first message. The witness share
// commitments, broadcast rows, and output shares must be bound here:
// left unbound, a cheating prover could adjust the hidden party's
// contribution after seeing the challenge.
func fsHiddenParties(newHash func() hash.Hash, commitments [][][]byte,
	execs []Execution, n int) []int {

	h := newHash()
	for _, emu := range commitments {
		for _, c := range emu {
			h.Write(c)
		}
	}
	for idx := range execs {
		x := &execs[idx]
		h.Write(x.WitnessComm)
		for _, row := range x.Rows {
			for _, msg := range row {
				h.Write([]byte{msg.D, msg.E})
			}
		}
		for _, o := range x.Outputs {
			h.Write(o)
		}
	}
	tape := challengeTape(h.Sum(nil))

	hidden := make([]int, len(execs))
	for i := range hidden {
		hidden[i] = tapeInt(tape, n)
	}
	return hidden
}
