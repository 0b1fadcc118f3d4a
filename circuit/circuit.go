//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements Boolean circuits over GF(2).
package circuit

import (
	"errors"
	"fmt"
)

// ErrMalformedCircuit is returned when a circuit violates its
// structural invariants.
var ErrMalformedCircuit = errors.New("malformed circuit")

// Operation specifies gate function.
type Operation byte

// Gate functions.
const (
	XOR Operation = iota
	AND
	INV
)

// Stats holds statistics about circuit operations.
type Stats [INV + 1]int

func (op Operation) String() string {
	switch op {
	case XOR:
		return "XOR"
	case AND:
		return "AND"
	case INV:
		return "INV"
	default:
		return fmt.Sprintf("{Operation %d}", op)
	}
}

// Wire specifies a wire ID.
type Wire uint32

// ID returns the wire ID as integer.
func (w Wire) ID() int {
	return int(w)
}

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}

// Gate specifies a boolean gate.
type Gate struct {
	Input0 Wire
	Input1 Wire
	Output Wire
	Op     Operation
}

func (g Gate) String() string {
	return fmt.Sprintf("%v %v %v", g.Inputs(), g.Op, g.Output)
}

// Inputs returns gate input wires.
func (g Gate) Inputs() []Wire {
	switch g.Op {
	case XOR, AND:
		return []Wire{g.Input0, g.Input1}
	case INV:
		return []Wire{g.Input0}
	default:
		panic(fmt.Sprintf("unsupported gate type %s", g.Op))
	}
}

// Circuit specifies a boolean circuit. The first NumInputs wires are
// the circuit inputs and the last NumOutputs wires are the circuit
// outputs.
type Circuit struct {
	NumGates   int
	NumWires   int
	NumInputs  int
	NumOutputs int
	Gates      []Gate
	Stats      Stats
}

func (c *Circuit) String() string {
	var stats string

	for k := XOR; k <= INV; k++ {
		v := c.Stats[k]
		if len(stats) > 0 {
			stats += " "
		}
		stats += fmt.Sprintf("%s=%d", k, v)
	}
	return fmt.Sprintf("#gates=%d (%s) #in=%d #out=%d #w=%d",
		c.NumGates, stats, c.NumInputs, c.NumOutputs, c.NumWires)
}

// NumAND returns the number of AND gates in the circuit.
func (c *Circuit) NumAND() int {
	var count int
	for _, gate := range c.Gates {
		if gate.Op == AND {
			count++
		}
	}
	return count
}

// Cost computes the relative computational cost of the circuit.
func (c *Circuit) Cost() int {
	return c.Stats[AND]*4 + c.Stats[INV]*2
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump() {
	fmt.Printf("circuit %s\n", c)
	for id, gate := range c.Gates {
		fmt.Printf("%04d\t%s\n", id, gate)
	}
}

// Verify checks the circuit's structural invariants: every gate input
// must be a circuit input or the output of an earlier gate, gate
// outputs must define fresh wires in increasing order, and the output
// wire set must be non-empty.
func (c *Circuit) Verify() error {
	if c.NumInputs < 1 || c.NumInputs > c.NumWires {
		return fmt.Errorf("%w: %d inputs, %d wires",
			ErrMalformedCircuit, c.NumInputs, c.NumWires)
	}
	if c.NumOutputs < 1 || c.NumOutputs > c.NumWires {
		return fmt.Errorf("%w: %d outputs, %d wires",
			ErrMalformedCircuit, c.NumOutputs, c.NumWires)
	}
	if len(c.Gates) != c.NumGates {
		return fmt.Errorf("%w: %d gates, expected %d",
			ErrMalformedCircuit, len(c.Gates), c.NumGates)
	}

	defined := make([]bool, c.NumWires)
	for i := 0; i < c.NumInputs; i++ {
		defined[i] = true
	}
	last := Wire(c.NumInputs - 1)

	for id, gate := range c.Gates {
		for _, w := range gate.Inputs() {
			if w.ID() >= c.NumWires || !defined[w.ID()] {
				return fmt.Errorf("%w: gate %d: undefined input %s",
					ErrMalformedCircuit, id, w)
			}
		}
		out := gate.Output
		if out.ID() >= c.NumWires {
			return fmt.Errorf("%w: gate %d: output %s out of range",
				ErrMalformedCircuit, id, out)
		}
		if out <= last {
			return fmt.Errorf("%w: gate %d: output %s not in wire order",
				ErrMalformedCircuit, id, out)
		}
		defined[out.ID()] = true
		last = out
	}
	for w := c.NumWires - c.NumOutputs; w < c.NumWires; w++ {
		if !defined[w] {
			return fmt.Errorf("%w: output wire w%d undefined",
				ErrMalformedCircuit, w)
		}
	}
	return nil
}
