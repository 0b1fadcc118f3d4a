//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"bytes"
	"fmt"
	"hash"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/mpcith/circuit"
	"github.com/markkurossi/mpcith/prg"
	"github.com/markkurossi/mpcith/share"
)

// Verify verifies the proof against the circuit and the claimed
// public output. It returns nil on accept. On reject the error wraps
// the failure kind: ErrMalformedProof, ErrCommitmentMismatch,
// ErrMessageInconsistency, or ErrReconstructionMismatch. Any single
// failing check rejects the whole proof.
func Verify(circ *circuit.Circuit, output []byte, proof *Proof,
	params Params) error {

	if err := params.check(); err != nil {
		return err
	}
	if err := circ.Verify(); err != nil {
		return err
	}
	if len(output) != circ.NumOutputs {
		return fmt.Errorf("ikos: got %d output bits, expected %d",
			len(output), circ.NumOutputs)
	}
	if err := proof.validate(); err != nil {
		return err
	}
	if proof.Parties != params.Parties ||
		len(proof.Execs) != params.Rounds ||
		proof.Emulations != params.emulations() {
		return fmt.Errorf("%w: proof is n=%d m=%d r=%d, "+
			"expected n=%d m=%d r=%d", ErrMalformedProof,
			proof.Parties, proof.Emulations, len(proof.Execs),
			params.Parties, params.emulations(), params.Rounds)
	}
	newHash := params.hash()
	n := proof.Parties

	// Fiat-Shamir challenges must re-derive from the transcript.
	if proof.Mode == FiatShamir {
		derived := fsAuditSet(newHash, proof.Commitments, len(proof.Audits))
		for idx := range proof.Audits {
			if proof.Audits[idx].Emulation != derived[idx] {
				return fmt.Errorf("%w: audit set", ErrMessageInconsistency)
			}
		}
		hidden := fsHiddenParties(newHash, proof.Commitments, proof.Execs, n)
		for idx := range proof.Execs {
			if proof.Execs[idx].Challenge != hidden[idx] {
				return fmt.Errorf("%w: execution %d: challenge",
					ErrMessageInconsistency, idx)
			}
		}
	}

	// Audits and executions verify independently and must all
	// accept.
	online := proof.onlineEmulations()
	var g errgroup.Group
	for idx := range proof.Audits {
		idx := idx
		g.Go(func() error {
			err := verifyAudit(circ, &proof.Audits[idx], proof, newHash)
			if err != nil {
				return fmt.Errorf("ikos: emulation %d: %w",
					proof.Audits[idx].Emulation, err)
			}
			return nil
		})
	}
	for idx := range proof.Execs {
		idx := idx
		g.Go(func() error {
			err := verifyExec(circ, output, &proof.Execs[idx], online[idx],
				proof, newHash)
			if err != nil {
				return fmt.Errorf("ikos: execution %d: %w", idx, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// verifyAudit checks one fully opened preprocessing emulation: every
// party's commitment opens to its seed, and the dealer corrections
// are the ones the seeds produce. A corrupted correction is caught
// here whenever its emulation is audited.
func verifyAudit(circ *circuit.Circuit, a *Audit, p *Proof,
	newHash func() hash.Hash) error {

	n := p.Parties
	if len(a.AuxC) != circ.NumAND() {
		return fmt.Errorf("%w: %d corrections, expected %d",
			ErrMalformedProof, len(a.AuxC), circ.NumAND())
	}
	for i := 0; i < n; i++ {
		var digest []byte
		if i == n-1 {
			digest = commitData(newHash, a.Nonces[i], a.Seeds[i][:], a.AuxC)
		} else {
			digest = commitData(newHash, a.Nonces[i], a.Seeds[i][:])
		}
		if !bytes.Equal(digest, p.Commitments[a.Emulation][i]) {
			return fmt.Errorf("%w: party %d", ErrCommitmentMismatch, i)
		}
	}
	redo := preprocess(circ, a.Seeds)
	if !bitsEqual(redo.AuxC, a.AuxC) {
		return fmt.Errorf("%w: dealer corrections disagree with seeds",
			ErrMessageInconsistency)
	}
	return nil
}

// verifyExec checks one online execution: the published output
// shares reconstruct the claim, the witness share opens its
// commitment, and every opened party's whole run recomputes from its
// committed seed against the public broadcast rows.
func verifyExec(circ *circuit.Circuit, output []byte, x *Execution,
	emulation int, p *Proof, newHash func() hash.Hash) error {

	n := p.Parties
	numAND := circ.NumAND()
	e := x.hidden(n)

	if len(x.Rows) != numAND {
		return fmt.Errorf("%w: %d broadcast rows, expected %d",
			ErrMalformedProof, len(x.Rows), numAND)
	}
	for i := 0; i < n; i++ {
		if len(x.Outputs[i]) != circ.NumOutputs {
			return fmt.Errorf("%w: party %d: %d output bits, expected %d",
				ErrMalformedProof, i, len(x.Outputs[i]), circ.NumOutputs)
		}
	}

	// The published output shares must reconstruct the claimed
	// output. The hidden party's published share is thereby exactly
	// the complement the claim requires; opened shares are checked
	// against recomputation below.
	if !bitsEqual(share.ReconstructBits(x.Outputs), output) {
		return fmt.Errorf("%w: output shares", ErrReconstructionMismatch)
	}

	// The last party's witness share, when opened, must be the
	// committed one.
	var witness []byte
	if e != n-1 {
		if len(x.Witness) != circ.NumInputs {
			return fmt.Errorf("%w: %d witness share bits, expected %d",
				ErrMalformedProof, len(x.Witness), circ.NumInputs)
		}
		digest := commitData(newHash, x.WitnessNonce, x.Witness)
		if !bytes.Equal(digest, x.WitnessComm) {
			return fmt.Errorf("%w: witness share", ErrCommitmentMismatch)
		}
		witness = x.Witness
	}

	for idx := range x.Opened {
		o := &x.Opened[idx]

		var digest []byte
		if o.Party == n-1 {
			if len(o.AuxC) != numAND {
				return fmt.Errorf("%w: party %d: %d corrections, "+
					"expected %d", ErrMalformedProof, o.Party,
					len(o.AuxC), numAND)
			}
			digest = commitData(newHash, o.Nonce, o.Seed[:], o.AuxC)
		} else {
			digest = commitData(newHash, o.Nonce, o.Seed[:])
		}
		if !bytes.Equal(digest, p.Commitments[emulation][o.Party]) {
			return fmt.Errorf("%w: party %d", ErrCommitmentMismatch, o.Party)
		}

		// Expand the committed tape and replay the party.
		tape := prg.NewTape(o.Seed)
		inputs := tape.Bits(circ.NumInputs)
		tripleA := make([]byte, numAND)
		tripleB := make([]byte, numAND)
		tripleC := make([]byte, numAND)
		for k := 0; k < numAND; k++ {
			tripleA[k] = tape.Bit()
			tripleB[k] = tape.Bit()
			tripleC[k] = tape.Bit()
		}
		if o.Party == n-1 {
			inputs = witness
			for k := 0; k < numAND; k++ {
				tripleC[k] ^= o.AuxC[k]
			}
		}
		outputs, err := replayParty(circ, o.Party, inputs,
			tripleA, tripleB, tripleC, x.Rows)
		if err != nil {
			return err
		}
		if !bitsEqual(outputs, x.Outputs[o.Party]) {
			return fmt.Errorf("%w: party %d: output shares",
				ErrReconstructionMismatch, o.Party)
		}
	}
	return nil
}

// replayParty recomputes one party's run from its tape-forced inputs
// and triples, checking the party's own slots in the public
// broadcast rows, and returns its output wire shares.
func replayParty(circ *circuit.Circuit, party int, inputs,
	tripleA, tripleB, tripleC []byte, rows [][]Msg) ([]byte, error) {

	wires := make([]byte, circ.NumWires)
	copy(wires, inputs)

	var and int
	for _, gate := range circ.Gates {
		out := gate.Output
		switch gate.Op {
		case circuit.XOR:
			wires[out] = wires[gate.Input0] ^ wires[gate.Input1]

		case circuit.INV:
			wires[out] = wires[gate.Input0]
			if party == 0 {
				wires[out] ^= 1
			}

		case circuit.AND:
			sent := Msg{
				D: wires[gate.Input0] ^ tripleA[and],
				E: wires[gate.Input1] ^ tripleB[and],
			}
			row := rows[and]
			if row[party] != sent {
				return nil, fmt.Errorf("%w: party %d: gate %d announce",
					ErrMessageInconsistency, party, and)
			}
			var d, e byte
			for _, msg := range row {
				d ^= msg.D
				e ^= msg.E
			}
			z := tripleC[and] ^ d&tripleB[and] ^ e&tripleA[and]
			if party == 0 {
				z ^= d & e
			}
			wires[out] = z
			and++
		}
	}
	return wires[circ.NumWires-circ.NumOutputs:], nil
}
