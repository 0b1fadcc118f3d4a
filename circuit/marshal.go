//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// MAGIC is a magic number for the binary circuit format
	// version 0.
	MAGIC = 0x63697230 // cir0

	// maxElements bounds decoded header counts so that a malformed
	// circuit cannot force absurd allocations.
	maxElements = 1 << 24
)

var (
	bo = binary.BigEndian
)

// Marshal marshals the circuit in the binary circuit format.
func (c *Circuit) Marshal(out io.Writer) error {
	var data = []interface{}{
		uint32(MAGIC),
		uint32(c.NumGates),
		uint32(c.NumWires),
		uint32(c.NumInputs),
		uint32(c.NumOutputs),
	}
	for _, v := range data {
		if err := binary.Write(out, bo, v); err != nil {
			return err
		}
	}

	for _, g := range c.Gates {
		switch g.Op {
		case XOR, AND:
			data = []interface{}{
				byte(g.Op),
				uint32(g.Input0), uint32(g.Input1), uint32(g.Output),
			}

		case INV:
			data = []interface{}{
				byte(g.Op),
				uint32(g.Input0), uint32(g.Output),
			}

		default:
			return fmt.Errorf("unsupported gate type %s", g.Op)
		}
		for _, v := range data {
			if err := binary.Write(out, bo, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unmarshal unmarshals a circuit from the binary circuit format.
func Unmarshal(in io.Reader) (*Circuit, error) {
	var header struct {
		Magic      uint32
		NumGates   uint32
		NumWires   uint32
		NumInputs  uint32
		NumOutputs uint32
	}
	if err := binary.Read(in, bo, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}
	if header.Magic != MAGIC {
		return nil, fmt.Errorf("%w: invalid magic %08x",
			ErrMalformedCircuit, header.Magic)
	}
	if header.NumGates > maxElements || header.NumWires > maxElements ||
		header.NumInputs > maxElements || header.NumOutputs > maxElements {
		return nil, fmt.Errorf("%w: gates=%d wires=%d inputs=%d outputs=%d",
			ErrMalformedCircuit, header.NumGates, header.NumWires,
			header.NumInputs, header.NumOutputs)
	}

	circ := &Circuit{
		NumGates:   int(header.NumGates),
		NumWires:   int(header.NumWires),
		NumInputs:  int(header.NumInputs),
		NumOutputs: int(header.NumOutputs),
	}
	for i := 0; i < circ.NumGates; i++ {
		var op byte
		if err := binary.Read(in, bo, &op); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
		}
		var gate Gate
		gate.Op = Operation(op)

		var wires []uint32
		switch gate.Op {
		case XOR, AND:
			wires = make([]uint32, 3)
		case INV:
			wires = make([]uint32, 2)
		default:
			return nil, fmt.Errorf("%w: invalid gate type %d",
				ErrMalformedCircuit, op)
		}
		if err := binary.Read(in, bo, wires); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
		}
		switch gate.Op {
		case XOR, AND:
			gate.Input0 = Wire(wires[0])
			gate.Input1 = Wire(wires[1])
			gate.Output = Wire(wires[2])
		case INV:
			gate.Input0 = Wire(wires[0])
			gate.Output = Wire(wires[1])
		}
		circ.Stats[gate.Op]++
		circ.Gates = append(circ.Gates, gate)
	}
	if err := circ.Verify(); err != nil {
		return nil, err
	}
	return circ, nil
}
