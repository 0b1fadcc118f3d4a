//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
)

// Compute evaluates the circuit in cleartext. The inputs argument
// assigns one bit per input wire; the result holds one bit per output
// wire.
func (c *Circuit) Compute(inputs []byte) ([]byte, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}
	if len(inputs) != c.NumInputs {
		return nil, fmt.Errorf("%w: got %d inputs, expected %d",
			ErrMalformedCircuit, len(inputs), c.NumInputs)
	}

	wires := make([]byte, c.NumWires)
	for i, b := range inputs {
		wires[i] = b & 1
	}

	// Evaluate circuit.
	for _, gate := range c.Gates {
		var result byte

		switch gate.Op {
		case XOR:
			result = wires[gate.Input0] ^ wires[gate.Input1]

		case AND:
			result = wires[gate.Input0] & wires[gate.Input1]

		case INV:
			result = wires[gate.Input0] ^ 1

		default:
			return nil, fmt.Errorf("%w: invalid gate %s",
				ErrMalformedCircuit, gate.Op)
		}

		wires[gate.Output] = result
	}

	// Construct outputs.
	result := make([]byte, c.NumOutputs)
	copy(result, wires[c.NumWires-c.NumOutputs:])

	return result, nil
}
