//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"fmt"

	"github.com/markkurossi/mpcith/prg"
)

// Audit is one fully opened preprocessing emulation: every party's
// commitment randomizer and tape seed, plus the dealer corrections.
// The verifier recomputes the corrections from the seeds; a dealer
// that lied is caught here.
type Audit struct {
	Emulation int
	Nonces    []Nonce
	Seeds     []prg.Seed
	AuxC      []byte
}

// OpenedParty is one revealed party of an online execution: its
// preprocessing commitment randomizer and tape seed. The last party
// additionally reveals the dealer corrections its commitment binds.
type OpenedParty struct {
	Party int
	Nonce Nonce
	Seed  prg.Seed
	AuxC  []byte
}

// Execution is one online commit-challenge-open record. The witness
// share commitment, the broadcast rows, and the published output
// shares form the prover's first message; the challenge hides one
// party, and the rest open their preprocessing. The last party's
// witness share is revealed unless that party is the hidden one.
type Execution struct {
	// WitnessComm commits to the last party's input share before
	// the challenge is drawn.
	WitnessComm []byte

	// Rows holds the public broadcast row of every AND gate in gate
	// order: one message per party.
	Rows [][]Msg

	// Outputs holds every party's output share vector. The vectors
	// reconstruct to the claimed circuit output.
	Outputs [][]byte

	// Challenge is the hidden party index. It always matches the gap
	// in Opened; Fiat-Shamir proofs do not serialize it and the
	// verifier re-derives it.
	Challenge int

	// Opened holds the revealed parties in ascending order; the
	// hidden party is absent.
	Opened []OpenedParty

	// Witness opens WitnessComm with WitnessNonce. It is nil when
	// the last party is the hidden one.
	Witness      []byte
	WitnessNonce Nonce
}

// hidden returns the index of the single unopened party.
func (x *Execution) hidden(n int) int {
	e := n - 1
	for idx, o := range x.Opened {
		if o.Party != idx {
			e = idx
			break
		}
	}
	return e
}

// Proof is a non-interactive or interactive proof transcript: the
// preprocessing commitments of every emulation, the audited
// emulations opened in full, and the online executions. A proof is
// self-contained and deserializes without prover state.
type Proof struct {
	Mode       Mode
	Parties    int
	Emulations int

	// Commitments holds one preprocessing commitment per emulation
	// per party.
	Commitments [][][]byte

	// Audits holds the opened emulations in ascending emulation
	// order.
	Audits []Audit

	// Execs holds the online executions. Execution j runs on the
	// j-th unaudited emulation in ascending order.
	Execs []Execution
}

func (p *Proof) String() string {
	return fmt.Sprintf("%s proof: n=%d m=%d r=%d", p.Mode, p.Parties,
		p.Emulations, len(p.Execs))
}

// onlineEmulations returns the emulation index of every online
// execution, in execution order.
func (p *Proof) onlineEmulations() []int {
	audited := make([]bool, p.Emulations)
	for _, a := range p.Audits {
		if a.Emulation >= 0 && a.Emulation < p.Emulations {
			audited[a.Emulation] = true
		}
	}
	var online []int
	for m := 0; m < p.Emulations; m++ {
		if !audited[m] {
			online = append(online, m)
		}
	}
	return online
}

// validate checks the proof's structural invariants: commitment and
// audit counts, ascending distinct audited emulations, and per
// execution exactly n-1 opened parties in ascending order with the
// challenge party absent and the witness share present exactly when
// the last party is opened.
func (p *Proof) validate() error {
	if p.Mode != Interactive && p.Mode != FiatShamir {
		return fmt.Errorf("%w: invalid mode %d", ErrMalformedProof,
			byte(p.Mode))
	}
	n := p.Parties
	if n < 2 {
		return fmt.Errorf("%w: invalid party count %d", ErrMalformedProof, n)
	}
	if len(p.Execs) < 1 {
		return fmt.Errorf("%w: no executions", ErrMalformedProof)
	}
	if p.Emulations <= len(p.Execs) || p.Emulations > maxElements {
		return fmt.Errorf("%w: %d emulations for %d executions",
			ErrMalformedProof, p.Emulations, len(p.Execs))
	}
	if len(p.Commitments) != p.Emulations {
		return fmt.Errorf("%w: %d commitment rows, expected %d",
			ErrMalformedProof, len(p.Commitments), p.Emulations)
	}
	for m, emu := range p.Commitments {
		if len(emu) != n {
			return fmt.Errorf("%w: emulation %d: %d commitments, expected %d",
				ErrMalformedProof, m, len(emu), n)
		}
	}

	if len(p.Audits) != p.Emulations-len(p.Execs) {
		return fmt.Errorf("%w: %d audits, expected %d", ErrMalformedProof,
			len(p.Audits), p.Emulations-len(p.Execs))
	}
	last := -1
	for idx := range p.Audits {
		a := &p.Audits[idx]
		if a.Emulation <= last || a.Emulation >= p.Emulations {
			return fmt.Errorf("%w: bad audited emulation %d",
				ErrMalformedProof, a.Emulation)
		}
		last = a.Emulation
		if len(a.Nonces) != n || len(a.Seeds) != n {
			return fmt.Errorf("%w: audit %d: bad opening",
				ErrMalformedProof, a.Emulation)
		}
	}

	for idx := range p.Execs {
		x := &p.Execs[idx]
		if len(x.Outputs) != n {
			return fmt.Errorf("%w: execution %d: %d output vectors, "+
				"expected %d", ErrMalformedProof, idx, len(x.Outputs), n)
		}
		for _, row := range x.Rows {
			if len(row) != n {
				return fmt.Errorf("%w: execution %d: bad broadcast row",
					ErrMalformedProof, idx)
			}
		}
		if len(x.Opened) != n-1 {
			return fmt.Errorf("%w: execution %d: %d opened parties, "+
				"expected %d", ErrMalformedProof, idx, len(x.Opened), n-1)
		}
		last := -1
		for _, o := range x.Opened {
			if o.Party <= last || o.Party >= n {
				return fmt.Errorf("%w: execution %d: bad opened party %d",
					ErrMalformedProof, idx, o.Party)
			}
			last = o.Party
		}
		if x.Challenge < 0 || x.Challenge >= n {
			return fmt.Errorf("%w: execution %d: bad challenge %d",
				ErrMalformedProof, idx, x.Challenge)
		}
		// The unopened party must be the challenge party; a proof
		// hiding anyone else dodges its checks.
		if x.hidden(n) != x.Challenge {
			return fmt.Errorf("%w: execution %d: challenge %d was opened",
				ErrMalformedProof, idx, x.Challenge)
		}
		if x.Challenge == n-1 {
			if x.Witness != nil {
				return fmt.Errorf("%w: execution %d: witness share of "+
					"hidden party", ErrMalformedProof, idx)
			}
		} else if x.Witness == nil {
			return fmt.Errorf("%w: execution %d: missing witness share",
				ErrMalformedProof, idx)
		}
	}
	return nil
}
