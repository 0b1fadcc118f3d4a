//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

var reParts = regexp.MustCompilePOSIX("[[:space:]]+")

// Parse parses a circuit from its text format. The first line holds
// the gate and wire counts, the second line the input and output wire
// counts. Each remaining line is one gate record:
//
//	nIn nOut in... out OP
//
// for example "2 1 0 1 2 AND". Gates must be listed in wire order.
func Parse(in io.Reader) (*Circuit, error) {
	r := bufio.NewReader(in)

	// NumGates NumWires
	line, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}
	if len(line) != 2 {
		return nil, fmt.Errorf("%w: invalid 1st line", ErrMalformedCircuit)
	}
	numGates, err := strconv.Atoi(line[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}
	numWires, err := strconv.Atoi(line[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}

	// NumInputs NumOutputs
	line, err = readLine(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}
	if len(line) != 2 {
		return nil, fmt.Errorf("%w: invalid 2nd line", ErrMalformedCircuit)
	}
	numInputs, err := strconv.Atoi(line[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}
	numOutputs, err := strconv.Atoi(line[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
	}

	var gates []Gate
	var stats Stats

	for {
		line, err = readLine(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
		}
		if len(line) < 3 {
			return nil, fmt.Errorf("%w: invalid gate: %v",
				ErrMalformedCircuit, line)
		}
		nIn, err := strconv.Atoi(line[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
		}
		nOut, err := strconv.Atoi(line[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
		}
		if nOut != 1 || 2+nIn+nOut+1 != len(line) {
			return nil, fmt.Errorf("%w: invalid gate: %v",
				ErrMalformedCircuit, line)
		}

		wires := make([]Wire, nIn+nOut)
		for i := 0; i < nIn+nOut; i++ {
			v, err := strconv.Atoi(line[2+i])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedCircuit, err)
			}
			if v < 0 || v >= numWires {
				return nil, fmt.Errorf("%w: wire %d out of range",
					ErrMalformedCircuit, v)
			}
			wires[i] = Wire(v)
		}

		var gate Gate
		switch line[len(line)-1] {
		case "XOR":
			gate.Op = XOR
		case "AND":
			gate.Op = AND
		case "INV":
			gate.Op = INV
		default:
			return nil, fmt.Errorf("%w: invalid operation '%s'",
				ErrMalformedCircuit, line[len(line)-1])
		}
		switch gate.Op {
		case XOR, AND:
			if nIn != 2 {
				return nil, fmt.Errorf("%w: %s: expected 2 inputs, got %d",
					ErrMalformedCircuit, gate.Op, nIn)
			}
			gate.Input0 = wires[0]
			gate.Input1 = wires[1]
			gate.Output = wires[2]

		case INV:
			if nIn != 1 {
				return nil, fmt.Errorf("%w: %s: expected 1 input, got %d",
					ErrMalformedCircuit, gate.Op, nIn)
			}
			gate.Input0 = wires[0]
			gate.Output = wires[1]
		}
		stats[gate.Op]++
		gates = append(gates, gate)
	}

	circ := &Circuit{
		NumGates:   numGates,
		NumWires:   numWires,
		NumInputs:  numInputs,
		NumOutputs: numOutputs,
		Gates:      gates,
		Stats:      stats,
	}
	if err := circ.Verify(); err != nil {
		return nil, err
	}
	return circ, nil
}

func readLine(r *bufio.Reader) ([]string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || len(line) == 0) {
			return nil, err
		}
		parts := reParts.Split(line, -1)
		var result []string
		for _, part := range parts {
			if len(part) > 0 {
				result = append(result, part)
			}
		}
		if len(result) > 0 {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
