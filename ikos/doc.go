//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ikos implements an MPC-in-the-head zero-knowledge proof
// system for Boolean circuits, following the IKOS construction with
// audited preprocessing.
//
// The prover knows a witness w for which a public circuit C outputs a
// public value y. To prove this without revealing w, the prover
// simulates an n-party XOR-sharing MPC evaluation of C "in its head":
// the witness is secret shared among n virtual parties, XOR and INV
// gates are evaluated locally on shares, and AND gates consume Beaver
// multiplication triples generated by a witness-independent
// preprocessing phase. The triples come from the parties' tapes; a
// dealer correction per AND gate, folded into the last party's c
// share, makes them multiply.
//
// The protocol runs in two challenge phases. First the prover commits
// to m independent preprocessing emulations, one hiding commitment
// per party binding its tape seed (and, for the last party, the
// dealer corrections). The verifier picks m-r emulations to audit:
// those open completely and the verifier recomputes the corrections
// from the seeds, so a dealer that lied survives only if none of its
// corrupted emulations is audited. The r unaudited emulations each
// run one online execution: the prover publishes the broadcast rows,
// every party's output shares, and a commitment to the last party's
// witness share, and the verifier picks one party per execution to
// stay hidden. The remaining n-1 parties open their seeds and the
// verifier replays them against the public rows.
//
// A cheating prover must corrupt preprocessing or at least one
// party's execution and is caught unless every corrupted emulation
// escapes the audit and every corrupted party is the hidden one. With
// m >= n*r the combined soundness error is at most (1/n)^r; the
// default m = n*r meets the bound exactly.
//
// The challenges are either supplied by an interactive verifier or
// derived from the transcript with the Fiat-Shamir transform:
//
//	proof, err := ikos.Prove(circ, witness, output, params)
//	if err != nil { ... }
//	err = ikos.Verify(circ, output, proof, params)
//
// Randomness and hash are injected through Params; the defaults are
// crypto/rand and SHA3-256.
package ikos
