//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"bytes"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"math/big"
	"testing"

	"github.com/markkurossi/mpcith/circuit"
	"github.com/markkurossi/mpcith/share"
)

// TestCompleteness checks that honest proofs verify for all tested
// circuits, witnesses, party counts, round counts, and modes.
func TestCompleteness(t *testing.T) {
	for _, circ := range testCircuits() {
		for _, n := range []int{2, 3, 5} {
			for _, rounds := range []int{1, 4} {
				params := Params{
					Parties: n,
					Rounds:  rounds,
				}
				for w := 0; w < 1<<circ.NumInputs; w++ {
					witness := make([]byte, circ.NumInputs)
					for i := range witness {
						witness[i] = byte(w>>i) & 1
					}
					output, err := circ.Compute(witness)
					if err != nil {
						t.Fatalf("Compute: %v", err)
					}

					proof, err := Prove(circ, witness, output, params)
					if err != nil {
						t.Fatalf("Prove: %v", err)
					}
					if err := Verify(circ, output, proof, params); err != nil {
						t.Errorf("%s n=%d r=%d w=%d: %v",
							circ, n, rounds, w, err)
					}

					proof, err = ProveInteractive(circ, witness, output,
						params, nil)
					if err != nil {
						t.Fatalf("ProveInteractive: %v", err)
					}
					if err := Verify(circ, output, proof, params); err != nil {
						t.Errorf("%s n=%d r=%d w=%d interactive: %v",
							circ, n, rounds, w, err)
					}
				}
			}
		}
	}
}

// TestCompletenessCustomEmulations checks honest proofs with an
// explicit emulation count above the default.
func TestCompletenessCustomEmulations(t *testing.T) {
	circ := majCirc()
	params := Params{
		Parties:    3,
		Rounds:     2,
		Emulations: 11,
	}
	witness := []byte{1, 1, 0}
	output, err := circ.Compute(witness)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, mode := range []Mode{Interactive, FiatShamir} {
		var proof *Proof
		if mode == Interactive {
			proof, err = ProveInteractive(circ, witness, output, params, nil)
		} else {
			proof, err = Prove(circ, witness, output, params)
		}
		if err != nil {
			t.Fatalf("%s: prove: %v", mode, err)
		}
		if proof.Emulations != 11 || len(proof.Audits) != 9 {
			t.Fatalf("%s: got m=%d with %d audits", mode, proof.Emulations,
				len(proof.Audits))
		}
		if err := Verify(circ, output, proof, params); err != nil {
			t.Errorf("%s: %v", mode, err)
		}
	}
}

func TestWitnessUnsatisfied(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  2,
	}
	_, err := Prove(circ, []byte{1, 0}, []byte{1}, params)
	if err == nil {
		t.Fatalf("Prove accepted a false statement")
	}
	if !errors.Is(err, ErrWitnessUnsatisfied) {
		t.Errorf("unexpected error: %v", err)
	}
}

// interactiveProof creates an interactive proof for tamper tests: the
// stored challenges keep the Fiat-Shamir derivation out of the way.
func interactiveProof(t *testing.T, circ *circuit.Circuit, witness []byte,
	params Params) (*Proof, []byte) {

	output, err := circ.Compute(witness)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	proof, err := ProveInteractive(circ, witness, output, params, nil)
	if err != nil {
		t.Fatalf("ProveInteractive: %v", err)
	}
	return proof, output
}

// scriptedChallenger replays fixed challenges, for tamper tests that
// need a specific audit set or hidden party.
type scriptedChallenger struct {
	audit  []int
	hidden []int
}

func (c *scriptedChallenger) AuditSet(commitments [][][]byte, num int) (
	[]int, error) {
	return c.audit, nil
}

func (c *scriptedChallenger) Hidden(exec int, witnessComm []byte,
	rows [][]Msg, outputs [][]byte) (int, error) {
	return c.hidden[exec], nil
}

func TestCommitmentMismatch(t *testing.T) {
	circ := majCirc()
	params := Params{
		Parties: 3,
		Rounds:  3,
	}
	proof, output := interactiveProof(t, circ, []byte{1, 1, 0}, params)

	// Corrupt an opened party's preprocessing commitment.
	em := proof.onlineEmulations()[1]
	party := proof.Execs[1].Opened[0].Party
	proof.Commitments[em][party][0] ^= 0x01

	err := Verify(circ, output, proof, params)
	if err == nil {
		t.Fatalf("Verify accepted a corrupted commitment")
	}
	if !errors.Is(err, ErrCommitmentMismatch) {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestDealerCorrectionAudited checks that a dealer correction the
// seeds did not produce is caught by the audit even when the last
// party's commitment is recomputed over the corrupted corrections.
func TestDealerCorrectionAudited(t *testing.T) {
	circ := majCirc()
	params := Params{
		Parties: 3,
		Rounds:  2,
	}
	proof, output := interactiveProof(t, circ, []byte{0, 1, 1}, params)
	n := params.Parties
	newHash := params.hash()

	a := &proof.Audits[0]
	a.AuxC = append([]byte{}, a.AuxC...)
	a.AuxC[0] ^= 1
	proof.Commitments[a.Emulation][n-1] = commitData(newHash,
		a.Nonces[n-1], a.Seeds[n-1][:], a.AuxC)

	err := Verify(circ, output, proof, params)
	if err == nil {
		t.Fatalf("Verify accepted a corrupted dealer correction")
	}
	if !errors.Is(err, ErrMessageInconsistency) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMessageInconsistency(t *testing.T) {
	circ := majCirc()
	params := Params{
		Parties: 3,
		Rounds:  2,
	}
	proof, output := interactiveProof(t, circ, []byte{0, 1, 1}, params)

	// Corrupt an opened party's broadcast slot; its replay from the
	// committed seed disagrees.
	x := &proof.Execs[0]
	party := x.Opened[0].Party
	x.Rows[0] = append([]Msg{}, x.Rows[0]...)
	x.Rows[0][party].D ^= 1

	err := Verify(circ, output, proof, params)
	if err == nil {
		t.Fatalf("Verify accepted a corrupted broadcast")
	}
	if !errors.Is(err, ErrMessageInconsistency) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWitnessCommitmentMismatch(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  1,
	}
	witness := []byte{1, 1}
	output, err := circ.Compute(witness)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// Hide party 0 so the witness share is opened.
	ch := &scriptedChallenger{
		audit:  []int{0, 1},
		hidden: []int{0},
	}
	proof, err := ProveInteractive(circ, witness, output, params, ch)
	if err != nil {
		t.Fatalf("ProveInteractive: %v", err)
	}

	x := &proof.Execs[0]
	x.Witness = append([]byte{}, x.Witness...)
	x.Witness[0] ^= 1

	err = Verify(circ, output, proof, params)
	if err == nil {
		t.Fatalf("Verify accepted a corrupted witness share")
	}
	if !errors.Is(err, ErrCommitmentMismatch) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReconstructionMismatch(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  2,
	}
	proof, output := interactiveProof(t, circ, []byte{1, 1}, params)

	// Corrupt the hidden party's published output share.
	x := &proof.Execs[0]
	x.Outputs[x.Challenge][0] ^= 1

	err := Verify(circ, output, proof, params)
	if err == nil {
		t.Fatalf("Verify accepted corrupted output shares")
	}
	if !errors.Is(err, ErrReconstructionMismatch) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProofCodec(t *testing.T) {
	circ := majCirc()
	params := Params{
		Parties: 3,
		Rounds:  3,
	}
	witness := []byte{1, 0, 1}
	output, err := circ.Compute(witness)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, mode := range []Mode{Interactive, FiatShamir} {
		var proof *Proof
		if mode == Interactive {
			proof, err = ProveInteractive(circ, witness, output, params, nil)
		} else {
			proof, err = Prove(circ, witness, output, params)
		}
		if err != nil {
			t.Fatalf("%s: prove: %v", mode, err)
		}

		var buf bytes.Buffer
		if err := proof.Marshal(&buf); err != nil {
			t.Fatalf("%s: Marshal: %v", mode, err)
		}
		data := buf.Bytes()

		decoded, err := UnmarshalProof(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: UnmarshalProof: %v", mode, err)
		}
		if err := Verify(circ, output, decoded, params); err != nil {
			t.Errorf("%s: decoded proof rejected: %v", mode, err)
		}

		// The decoded proof re-marshals to the same bytes.
		var buf2 bytes.Buffer
		if err := decoded.Marshal(&buf2); err != nil {
			t.Fatalf("%s: re-Marshal: %v", mode, err)
		}
		if !bytes.Equal(data, buf2.Bytes()) {
			t.Errorf("%s: marshaling is not canonical", mode)
		}

		// Truncations must fail as malformed proofs.
		for _, n := range []int{0, 3, 16, 40, len(data) / 2, len(data) - 1} {
			_, err := UnmarshalProof(bytes.NewReader(data[:n]))
			if err == nil {
				t.Errorf("%s: accepted %d-byte prefix", mode, n)
			} else if !errors.Is(err, ErrMalformedProof) {
				t.Errorf("%s: unexpected error: %v", mode, err)
			}
		}
	}
}

// TestUnmarshalHeaderBounds checks that absurd header counts are
// rejected before any allocation is attempted.
func TestUnmarshalHeaderBounds(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  1,
	}
	proof, _ := interactiveProof(t, circ, []byte{1, 1}, params)

	var buf bytes.Buffer
	if err := proof.Marshal(&buf); err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Header layout: magic, mode, parties, emulations, execs.
	for _, offset := range []int{5, 9, 13} {
		data := append([]byte{}, buf.Bytes()...)
		bo.PutUint32(data[offset:], 0xffffffff)
		_, err := UnmarshalProof(bytes.NewReader(data))
		if err == nil {
			t.Errorf("offset %d: accepted absurd count", offset)
		} else if !errors.Is(err, ErrMalformedProof) {
			t.Errorf("offset %d: unexpected error: %v", offset, err)
		}
	}
}

func TestProofParamsMismatch(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  2,
	}
	proof, output := interactiveProof(t, circ, []byte{1, 1}, params)

	err := Verify(circ, output, proof, Params{Parties: 4, Rounds: 2})
	if !errors.Is(err, ErrMalformedProof) {
		t.Errorf("party count mismatch: unexpected error: %v", err)
	}
	err = Verify(circ, output, proof, Params{Parties: 3, Rounds: 5})
	if !errors.Is(err, ErrMalformedProof) {
		t.Errorf("round count mismatch: unexpected error: %v", err)
	}
	err = Verify(circ, output, proof,
		Params{Parties: 3, Rounds: 2, Emulations: 9})
	if !errors.Is(err, ErrMalformedProof) {
		t.Errorf("emulation count mismatch: unexpected error: %v", err)
	}
}

func randInt(t *testing.T, n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		t.Fatalf("rand: %v", err)
	}
	return int(v.Int64())
}

// Cheating prover strategies.
const (
	// cheatOutputs flips one randomly chosen party's published
	// output shares in every execution so they reconstruct to the
	// claim. Accepted only when every execution hides the corrupted
	// party.
	cheatOutputs = iota

	// cheatDealer corrupts one randomly chosen emulation's dealer
	// corrections before committing. The corrupted emulation's
	// execution is self-consistent and needs no hidden-party luck,
	// but the emulation must escape the audit; the remaining
	// executions fall back to output flips.
	cheatDealer
)

// cheatProve builds a Fiat-Shamir proof for a claimed output the
// witness does not produce.
func cheatProve(t *testing.T, circ *circuit.Circuit, witness,
	claimed []byte, params Params, strategy int) *Proof {

	n := params.Parties
	m := params.emulations()
	rounds := params.Rounds
	newHash := params.hash()

	badEm := -1
	if strategy == cheatDealer {
		badEm = randInt(t, m)
	}

	preps := make([]*Preprocessing, m)
	nonces := make([][]Nonce, m)
	commitments := make([][][]byte, m)
	for em := 0; em < m; em++ {
		prep, err := Preprocess(circ, n, rand.Reader)
		if err != nil {
			t.Fatalf("Preprocess: %v", err)
		}
		if em == badEm {
			prep.AuxC = append([]byte{}, prep.AuxC...)
			prep.AuxC[0] ^= 1
		}
		preps[em] = prep

		nonces[em] = make([]Nonce, n)
		commitments[em] = make([][]byte, n)
		for i := 0; i < n; i++ {
			if nonces[em][i], err = newNonce(rand.Reader); err != nil {
				t.Fatalf("nonce: %v", err)
			}
			if i == n-1 {
				commitments[em][i] = commitData(newHash, nonces[em][i],
					prep.Seeds[i][:], prep.AuxC)
			} else {
				commitments[em][i] = commitData(newHash, nonces[em][i],
					prep.Seeds[i][:])
			}
		}
	}

	audit := fsAuditSet(newHash, commitments, m-rounds)
	proof := &Proof{
		Mode:        FiatShamir,
		Parties:     n,
		Emulations:  m,
		Commitments: commitments,
		Audits:      make([]Audit, m-rounds),
		Execs:       make([]Execution, rounds),
	}
	audited := make([]bool, m)
	for idx, em := range audit {
		audited[em] = true
		proof.Audits[idx] = Audit{
			Emulation: em,
			Nonces:    nonces[em],
			Seeds:     preps[em].Seeds,
			AuxC:      preps[em].AuxC,
		}
	}
	var online []int
	for em := 0; em < m; em++ {
		if !audited[em] {
			online = append(online, em)
		}
	}

	for j, em := range online {
		shares := preps[em].shareWitness(witness)
		rows, outputs, err := Simulate(circ, shares, preps[em])
		if err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		if em != badEm {
			// Patch a random party's output shares to match the
			// claim.
			actual := share.ReconstructBits(outputs)
			corrupt := randInt(t, n)
			for idx := range claimed {
				outputs[corrupt][idx] ^= actual[idx] ^ claimed[idx]
			}
		}
		wnonce, err := newNonce(rand.Reader)
		if err != nil {
			t.Fatalf("nonce: %v", err)
		}
		proof.Execs[j] = Execution{
			WitnessComm:  commitData(newHash, wnonce, shares[n-1]),
			Rows:         rows,
			Outputs:      outputs,
			Witness:      shares[n-1],
			WitnessNonce: wnonce,
		}
	}

	hidden := fsHiddenParties(newHash, commitments, proof.Execs, n)
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
				Seed:  preps[em].Seeds[i],
			}
			if i == n-1 {
				opened.AuxC = preps[em].AuxC
			}
			x.Opened = append(x.Opened, opened)
		}
		if e == n-1 {
			x.Witness = nil
			x.WitnessNonce = Nonce{}
		}
	}
	return proof
}

// TestSoundnessSingleRound checks that a cheating prover's
// single-round acceptance rate converges to 1/n for both strategies:
// the output flip must land on the hidden party, and the corrupted
// dealer emulation must escape the audit.
func TestSoundnessSingleRound(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  1,
	}
	witness := []byte{1, 0}
	claimed := []byte{1}

	for _, strategy := range []int{cheatOutputs, cheatDealer} {
		const trials = 600
		var accepted int
		for i := 0; i < trials; i++ {
			proof := cheatProve(t, circ, witness, claimed, params, strategy)
			if Verify(circ, claimed, proof, params) == nil {
				accepted++
			}
		}
		// Expected rate 1/3; 10 sigma slack on 600 trials.
		if accepted < 80 || accepted > 320 {
			t.Errorf("strategy %d: cheat accepted %d/%d times, "+
				"expected about %d", strategy, accepted, trials, trials/3)
		}
	}
}

// TestSoundnessAmplified checks that with n=3, r=5 a cheating prover
// is rejected in the overwhelming majority of attempts under both
// strategies; the false-accept rate is bounded by (1/3)^5.
func TestSoundnessAmplified(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  5,
	}
	witness := []byte{1, 0}
	claimed := []byte{1}

	for _, strategy := range []int{cheatOutputs, cheatDealer} {
		const trials = 300
		var accepted int
		for i := 0; i < trials; i++ {
			proof := cheatProve(t, circ, witness, claimed, params, strategy)
			if Verify(circ, claimed, proof, params) == nil {
				accepted++
			}
		}
		// Expected rate (1/3)^5, about 0.4%: roughly one accept in
		// 300 trials. Ten accepts is far outside any plausible tail.
		if accepted > 10 {
			t.Errorf("strategy %d: cheat accepted %d/%d times, "+
				"expected about %d", strategy, accepted, trials,
				trials*1/243)
		}
	}
}

// TestConcreteScenario is the honest side: the 1-AND circuit with
// witness (1,1), n=3, r=5 verifies with output 1.
func TestConcreteScenario(t *testing.T) {
	circ := andCirc()
	params := Params{
		Parties: 3,
		Rounds:  5,
	}
	proof, err := Prove(circ, []byte{1, 1}, []byte{1}, params)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(circ, []byte{1}, proof, params); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestRoundsForSoundness(t *testing.T) {
	tests := []struct {
		parties int
		bits    int
		rounds  int
	}{
		{2, 128, 128},
		{4, 128, 64},
		{3, 128, 81},
		{16, 80, 20},
	}
	for _, test := range tests {
		rounds := RoundsForSoundness(test.parties, test.bits)
		if rounds != test.rounds {
			t.Errorf("RoundsForSoundness(%d, %d) = %d, expected %d",
				test.parties, test.bits, rounds, test.rounds)
		}
	}
}

func TestChallengeDerivation(t *testing.T) {
	newHash := Params{}.hash()
	const m = 6
	const n = 3

	commitments := make([][][]byte, m)
	for em := range commitments {
		commitments[em] = make([][]byte, n)
		for i := range commitments[em] {
			commitments[em][i] = []byte{byte(em), byte(i), 0x42}
		}
	}

	audit := fsAuditSet(newHash, commitments, 4)
	if len(audit) != 4 {
		t.Fatalf("got %d audits, expected 4", len(audit))
	}
	last := -1
	for _, em := range audit {
		if em <= last || em >= m {
			t.Fatalf("bad audit set %v", audit)
		}
		last = em
	}
	for i := 0; i < 10; i++ {
		redo := fsAuditSet(newHash, commitments, 4)
		for idx := range audit {
			if redo[idx] != audit[idx] {
				t.Fatalf("audit set is not deterministic")
			}
		}
	}

	execs := []Execution{
		{
			WitnessComm: []byte{9, 9, 9},
			Rows:        [][]Msg{{{D: 1, E: 0}, {D: 0, E: 1}, {D: 1, E: 1}}},
			Outputs:     [][]byte{{1}, {0}, {0}},
		},
		{
			WitnessComm: []byte{7, 7, 7},
			Rows:        [][]Msg{{{D: 0, E: 0}, {D: 1, E: 1}, {D: 0, E: 1}}},
			Outputs:     [][]byte{{0}, {1}, {0}},
		},
	}
	hidden := fsHiddenParties(newHash, commitments, execs, n)
	if len(hidden) != len(execs) {
		t.Fatalf("got %d hidden parties, expected %d", len(hidden),
			len(execs))
	}
	for _, e := range hidden {
		if e < 0 || e >= n {
			t.Fatalf("hidden party %d out of range", e)
		}
	}
	for i := 0; i < 10; i++ {
		redo := fsHiddenParties(newHash, commitments, execs, n)
		for idx := range hidden {
			if redo[idx] != hidden[idx] {
				t.Fatalf("hidden parties are not deterministic")
			}
		}
	}

	// The audit set depends on the commitments.
	var diff bool
	for bit := byte(1); bit != 0; bit <<= 1 {
		commitments[0][0][0] ^= bit
		redo := fsAuditSet(newHash, commitments, 4)
		for idx := range audit {
			if redo[idx] != audit[idx] {
				diff = true
			}
		}
		commitments[0][0][0] ^= bit
	}
	if !diff {
		t.Errorf("audit set ignores commitments")
	}

	// The hidden parties depend on the published output shares.
	diff = false
	for bit := byte(1); bit != 0; bit <<= 1 {
		execs[0].Outputs[0][0] ^= bit
		redo := fsHiddenParties(newHash, commitments, execs, n)
		for idx := range hidden {
			if redo[idx] != hidden[idx] {
				diff = true
			}
		}
		execs[0].Outputs[0][0] ^= bit
	}
	if !diff {
		t.Errorf("hidden parties ignore output shares")
	}
}

func TestRandomChallengerRange(t *testing.T) {
	ch := &RandomChallenger{}

	commitments := make([][][]byte, 6)
	var seenAudit [6]bool
	for i := 0; i < 200; i++ {
		set, err := ch.AuditSet(commitments, 4)
		if err != nil {
			t.Fatalf("AuditSet: %v", err)
		}
		if len(set) != 4 {
			t.Fatalf("got %d audits, expected 4", len(set))
		}
		last := -1
		for _, em := range set {
			if em <= last || em >= 6 {
				t.Fatalf("bad audit set %v", set)
			}
			last = em
			seenAudit[em] = true
		}
	}
	for em, ok := range seenAudit {
		if !ok {
			t.Errorf("emulation %d never audited", em)
		}
	}

	outputs := make([][]byte, 5)
	var seen [5]bool
	for i := 0; i < 200; i++ {
		e, err := ch.Hidden(0, nil, nil, outputs)
		if err != nil {
			t.Fatalf("Hidden: %v", err)
		}
		if e < 0 || e >= 5 {
			t.Fatalf("challenge %d out of range", e)
		}
		seen[e] = true
	}
	for e, ok := range seen {
		if !ok {
			t.Errorf("challenge %d never drawn", e)
		}
	}
}

// TestHashInjection checks that a different hash standard can be
// swapped in without touching the protocol.
func TestHashInjection(t *testing.T) {
	circ := nandXorCirc()
	params := Params{
		Parties: 3,
		Rounds:  4,
		Hash:    sha512.New,
	}
	witness := []byte{1, 1, 0}
	output, err := circ.Compute(witness)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	proof, err := Prove(circ, witness, output, params)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(circ, output, proof, params); err != nil {
		t.Errorf("Verify: %v", err)
	}
	// The default hash cannot verify it.
	if err := Verify(circ, output, proof,
		Params{Parties: 3, Rounds: 4}); err == nil {
		t.Errorf("Verify accepted a proof under the wrong hash")
	}
}
