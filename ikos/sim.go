//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"fmt"

	"github.com/markkurossi/mpcith/circuit"
)

// Msg is one party's broadcast for one AND gate: its masked shares
// of the two gate inputs.
type Msg struct {
	D byte
	E byte
}

// Simulate evaluates the circuit across the virtual parties on the
// input shares, consuming the preprocessing triples. Gates are
// processed strictly in circuit order. XOR and INV gates are local;
// each AND gate costs one broadcast round. The broadcast rows are
// public transcript: every party observes the same row, so rows
// returns one row per AND gate with one message per party. outputs
// holds each party's share of the output wires. Simulate is a pure
// function of its arguments.
func Simulate(circ *circuit.Circuit, inputShares [][]byte,
	prep *Preprocessing) (rows [][]Msg, outputs [][]byte, err error) {

	if err := circ.Verify(); err != nil {
		return nil, nil, err
	}
	n := prep.NumParties()
	if len(inputShares) != n {
		return nil, nil, fmt.Errorf("ikos: got %d input shares, expected %d",
			len(inputShares), n)
	}
	numAND := circ.NumAND()

	wires := make([][]byte, n)
	for i := 0; i < n; i++ {
		if len(inputShares[i]) != circ.NumInputs {
			return nil, nil, fmt.Errorf(
				"ikos: party %d: got %d input bits, expected %d",
				i, len(inputShares[i]), circ.NumInputs)
		}
		if len(prep.TripleA[i]) != numAND {
			return nil, nil, fmt.Errorf(
				"ikos: party %d: got %d triples, expected %d",
				i, len(prep.TripleA[i]), numAND)
		}
		wires[i] = make([]byte, circ.NumWires)
		copy(wires[i], inputShares[i])
	}

	rows = make([][]Msg, 0, numAND)

	var and int
	for _, gate := range circ.Gates {
		out := gate.Output
		switch gate.Op {
		case circuit.XOR:
			for i := 0; i < n; i++ {
				wires[i][out] = wires[i][gate.Input0] ^ wires[i][gate.Input1]
			}

		case circuit.INV:
			// Party 0 inverts its share; the XOR of shares flips.
			for i := 0; i < n; i++ {
				wires[i][out] = wires[i][gate.Input0]
			}
			wires[0][out] ^= 1

		case circuit.AND:
			// Every party announces its masked input shares.
			row := make([]Msg, n)
			var d, e byte
			for i := 0; i < n; i++ {
				row[i] = Msg{
					D: wires[i][gate.Input0] ^ prep.TripleA[i][and],
					E: wires[i][gate.Input1] ^ prep.TripleB[i][and],
				}
				d ^= row[i].D
				e ^= row[i].E
			}
			// Beaver output share from the public d, e. The last
			// party folds in the dealer correction.
			for i := 0; i < n; i++ {
				c := prep.TripleC[i][and]
				if i == n-1 {
					c ^= prep.AuxC[and]
				}
				z := c ^ d&prep.TripleB[i][and] ^ e&prep.TripleA[i][and]
				if i == 0 {
					z ^= d & e
				}
				wires[i][out] = z
			}
			rows = append(rows, row)
			and++

		default:
			return nil, nil, fmt.Errorf("%w: invalid gate %s",
				circuit.ErrMalformedCircuit, gate.Op)
		}
	}

	outputs = make([][]byte, n)
	for i := 0; i < n; i++ {
		outputs[i] = make([]byte, circ.NumOutputs)
		copy(outputs[i], wires[i][circ.NumWires-circ.NumOutputs:])
	}
	return rows, outputs, nil
}
