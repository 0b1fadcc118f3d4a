//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/mpcith/circuit"
	"github.com/markkurossi/mpcith/prg"
)

// Prove proves knowledge of a witness for which the circuit
// evaluates to output. The proof is non-interactive: both the audit
// set and the hidden parties are derived with the Fiat-Shamir
// transform. Prove fails with ErrWitnessUnsatisfied if the witness
// does not evaluate to output; a proof is never produced for a false
// statement.
func Prove(circ *circuit.Circuit, witness, output []byte, params Params) (
	*Proof, error) {
	return prove(circ, witness, output, params, FiatShamir, nil)
}

// ProveInteractive proves knowledge of a witness for which the
// circuit evaluates to output, with the challenges supplied by the
// challenger. The challenges are stored in the proof.
func ProveInteractive(circ *circuit.Circuit, witness, output []byte,
	params Params, ch Challenger) (*Proof, error) {

	if ch == nil {
		ch = &RandomChallenger{}
	}
	return prove(circ, witness, output, params, Interactive, ch)
}

func prove(circ *circuit.Circuit, witness, output []byte, params Params,
	mode Mode, ch Challenger) (*Proof, error) {

	if err := params.check(); err != nil {
		return nil, err
	}
	n := params.Parties
	rounds := params.Rounds
	m := params.emulations()
	rnd := params.random()
	newHash := params.hash()

	// The prover must not prove a false statement.
	result, err := circ.Compute(witness)
	if err != nil {
		return nil, err
	}
	if !bitsEqual(result, output) {
		return nil, fmt.Errorf("ikos: %w", ErrWitnessUnsatisfied)
	}

	// Draw all randomness up front: the injected source need not be
	// safe for concurrent readers.
	seeds := make([][]prg.Seed, m)
	nonces := make([][]Nonce, m)
	for em := 0; em < m; em++ {
		seeds[em] = make([]prg.Seed, n)
		nonces[em] = make([]Nonce, n)
		for i := 0; i < n; i++ {
			if seeds[em][i], err = prg.NewSeed(rnd); err != nil {
				return nil, fmt.Errorf("ikos: prove: %w", err)
			}
			if nonces[em][i], err = newNonce(rnd); err != nil {
				return nil, fmt.Errorf("ikos: prove: %w", err)
			}
		}
	}
	wnonces := make([]Nonce, rounds)
	for j := 0; j < rounds; j++ {
		if wnonces[j], err = newNonce(rnd); err != nil {
			return nil, fmt.Errorf("ikos: prove: %w", err)
		}
	}

	// Commit every preprocessing emulation. Emulations are
	// independent; run them in parallel.
	preps := make([]*Preprocessing, m)
	commitments := make([][][]byte, m)
	var g errgroup.Group
	for em := 0; em < m; em++ {
		em := em
		g.Go(func() error {
			prep := preprocess(circ, seeds[em])
			preps[em] = prep

			commitments[em] = make([][]byte, n)
			for i := 0; i < n; i++ {
				if i == n-1 {
					commitments[em][i] = commitData(newHash, nonces[em][i],
						seeds[em][i][:], prep.AuxC)
				} else {
					commitments[em][i] = commitData(newHash, nonces[em][i],
						seeds[em][i][:])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// First challenge: the emulations to audit.
	numAudits := m - rounds
	var audit []int
	if mode == FiatShamir {
		audit = fsAuditSet(newHash, commitments, numAudits)
	} else {
		if audit, err = ch.AuditSet(commitments, numAudits); err != nil {
			return nil, fmt.Errorf("ikos: audit challenge: %w", err)
		}
		if err := checkAuditSet(audit, m, numAudits); err != nil {
			return nil, err
		}
	}

	proof := &Proof{
		Mode:        mode,
		Parties:     n,
		Emulations:  m,
		Commitments: commitments,
		Audits:      make([]Audit, numAudits),
		Execs:       make([]Execution, rounds),
	}
	audited := make([]bool, m)
	for idx, em := range audit {
		audited[em] = true
		proof.Audits[idx] = Audit{
			Emulation: em,
			Nonces:    nonces[em],
			Seeds:     seeds[em],
			AuxC:      preps[em].AuxC,
		}
	}
	var online []int
	for em := 0; em < m; em++ {
		if !audited[em] {
			online = append(online, em)
		}
	}

	// Online executions on the unaudited emulations.
	var g2 errgroup.Group
	for j, em := range online {
		j, em := j, em
		g2.Go(func() error {
			shares := preps[em].shareWitness(witness)
			rows, outputs, err := Simulate(circ, shares, preps[em])
			if err != nil {
				return err
			}
			proof.Execs[j] = Execution{
				WitnessComm:  commitData(newHash, wnonces[j], shares[n-1]),
				Rows:         rows,
				Outputs:      outputs,
				Witness:      shares[n-1],
				WitnessNonce: wnonces[j],
			}
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	// Second challenge: the hidden party of every execution.
	hidden := make([]int, rounds)
	if mode == FiatShamir {
		hidden = fsHiddenParties(newHash, commitments, proof.Execs, n)
	} else {
		for j := 0; j < rounds; j++ {
			x := &proof.Execs[j]
			e, err := ch.Hidden(j, x.WitnessComm, x.Rows, x.Outputs)
			if err != nil {
				return nil, fmt.Errorf("ikos: execution %d: %w", j, err)
			}
			if e < 0 || e >= n {
				return nil, fmt.Errorf("ikos: execution %d: "+
					"invalid challenge %d", j, e)
			}
			hidden[j] = e
		}
	}

	// Open everything but the hidden parties.
	for j, em := range online {
		x := &proof.Execs[j]
		e := hidden[j]
		x.Challenge = e

		x.Opened = make([]OpenedParty, 0, n-1)
		for i := 0; i < n; i++ {
			if i == e {
				continue
			}
			opened := OpenedParty{
				Party: i,
				Nonce: nonces[em][i],
				Seed:  seeds[em][i],
			}
			if i == n-1 {
				opened.AuxC = preps[em].AuxC
			}
			x.Opened = append(x.Opened, opened)
		}
		if e == n-1 {
			// The hidden party's witness share stays hidden.
			x.Witness = nil
			x.WitnessNonce = Nonce{}
		}
	}
	return proof, nil
}

// checkAuditSet validates an interactive audit challenge: num
// distinct ascending emulation indices.
func checkAuditSet(audit []int, m, num int) error {
	if len(audit) != num {
		return fmt.Errorf("ikos: got %d audits, expected %d",
			len(audit), num)
	}
	last := -1
	for _, em := range audit {
		if em <= last || em >= m {
			return fmt.Errorf("ikos: invalid audited emulation %d", em)
		}
		last = em
	}
	return nil
}
