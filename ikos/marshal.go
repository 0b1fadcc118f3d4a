//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/mpcith/prg"
)

const (
	// MAGIC is a magic number for the binary proof format version 1.
	MAGIC = 0x696b7031 // ikp1

	// maxElements bounds decoded element counts so that a malformed
	// proof cannot force absurd allocations.
	maxElements = 1 << 24
)

var (
	bo = binary.BigEndian
)

// Marshal marshals the proof in the binary proof format.
func (p *Proof) Marshal(out io.Writer) error {
	if err := p.validate(); err != nil {
		return err
	}
	var data = []interface{}{
		uint32(MAGIC),
		byte(p.Mode),
		uint32(p.Parties),
		uint32(p.Emulations),
		uint32(len(p.Execs)),
	}
	for _, v := range data {
		if err := binary.Write(out, bo, v); err != nil {
			return err
		}
	}
	for _, emu := range p.Commitments {
		for _, c := range emu {
			if err := writeData(out, c); err != nil {
				return err
			}
		}
	}
	for idx := range p.Audits {
		if err := p.Audits[idx].marshal(out); err != nil {
			return err
		}
	}
	for idx := range p.Execs {
		if err := p.Execs[idx].marshal(out, p.Mode, p.Parties); err != nil {
			return err
		}
	}
	return nil
}

func (a *Audit) marshal(out io.Writer) error {
	if err := binary.Write(out, bo, uint32(a.Emulation)); err != nil {
		return err
	}
	for i := range a.Nonces {
		if _, err := out.Write(a.Nonces[i][:]); err != nil {
			return err
		}
	}
	for i := range a.Seeds {
		if _, err := out.Write(a.Seeds[i][:]); err != nil {
			return err
		}
	}
	return writeData(out, a.AuxC)
}

func (x *Execution) marshal(out io.Writer, mode Mode, n int) error {
	if err := writeData(out, x.WitnessComm); err != nil {
		return err
	}
	if err := binary.Write(out, bo, uint32(len(x.Rows))); err != nil {
		return err
	}
	for _, row := range x.Rows {
		for _, msg := range row {
			if _, err := out.Write([]byte{msg.D, msg.E}); err != nil {
				return err
			}
		}
	}
	for _, o := range x.Outputs {
		if err := writeData(out, o); err != nil {
			return err
		}
	}
	if mode == Interactive {
		if err := binary.Write(out, bo, uint32(x.Challenge)); err != nil {
			return err
		}
	}
	for idx := range x.Opened {
		o := &x.Opened[idx]
		if err := binary.Write(out, bo, uint32(o.Party)); err != nil {
			return err
		}
		if _, err := out.Write(o.Nonce[:]); err != nil {
			return err
		}
		if _, err := out.Write(o.Seed[:]); err != nil {
			return err
		}
		if err := writeData(out, o.AuxC); err != nil {
			return err
		}
	}
	if x.Challenge != n-1 {
		if _, err := out.Write(x.WitnessNonce[:]); err != nil {
			return err
		}
		return writeData(out, x.Witness)
	}
	return nil
}

// UnmarshalProof unmarshals a proof from the binary proof format.
// Any structural violation fails with ErrMalformedProof before
// verification begins.
func UnmarshalProof(in io.Reader) (*Proof, error) {
	var header struct {
		Magic      uint32
		Mode       byte
		Parties    uint32
		Emulations uint32
		Execs      uint32
	}
	if err := binary.Read(in, bo, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if header.Magic != MAGIC {
		return nil, fmt.Errorf("%w: invalid magic %08x",
			ErrMalformedProof, header.Magic)
	}
	if header.Parties < 2 || header.Parties > maxElements ||
		header.Execs < 1 || header.Execs > maxElements ||
		header.Emulations <= header.Execs || header.Emulations > maxElements {
		return nil, fmt.Errorf("%w: n=%d m=%d r=%d", ErrMalformedProof,
			header.Parties, header.Emulations, header.Execs)
	}

	proof := &Proof{
		Mode:       Mode(header.Mode),
		Parties:    int(header.Parties),
		Emulations: int(header.Emulations),
	}
	n := proof.Parties

	proof.Commitments = make([][][]byte, proof.Emulations)
	for m := range proof.Commitments {
		proof.Commitments[m] = make([][]byte, n)
		for i := 0; i < n; i++ {
			data, err := readData(in)
			if err != nil {
				return nil, err
			}
			proof.Commitments[m][i] = data
		}
	}

	proof.Audits = make([]Audit, proof.Emulations-int(header.Execs))
	for idx := range proof.Audits {
		if err := proof.Audits[idx].unmarshal(in, n); err != nil {
			return nil, err
		}
	}

	proof.Execs = make([]Execution, header.Execs)
	for idx := range proof.Execs {
		if err := proof.Execs[idx].unmarshal(in, proof.Mode, n); err != nil {
			return nil, err
		}
	}
	if err := proof.validate(); err != nil {
		return nil, err
	}
	return proof, nil
}

func (a *Audit) unmarshal(in io.Reader, n int) error {
	var emulation uint32
	if err := binary.Read(in, bo, &emulation); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if emulation > maxElements {
		return fmt.Errorf("%w: bad emulation %d", ErrMalformedProof,
			emulation)
	}
	a.Emulation = int(emulation)

	a.Nonces = make([]Nonce, n)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(in, a.Nonces[i][:]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
	}
	a.Seeds = make([]prg.Seed, n)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(in, a.Seeds[i][:]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
	}
	aux, err := readData(in)
	if err != nil {
		return err
	}
	a.AuxC = aux
	return nil
}

func (x *Execution) unmarshal(in io.Reader, mode Mode, n int) error {
	comm, err := readData(in)
	if err != nil {
		return err
	}
	x.WitnessComm = comm

	var numRows uint32
	if err := binary.Read(in, bo, &numRows); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if numRows > maxElements {
		return fmt.Errorf("%w: %d broadcast rows", ErrMalformedProof, numRows)
	}
	x.Rows = make([][]Msg, numRows)
	var buf [2]byte
	for k := range x.Rows {
		row := make([]Msg, n)
		for j := range row {
			if _, err := io.ReadFull(in, buf[:]); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedProof, err)
			}
			row[j] = Msg{D: buf[0], E: buf[1]}
		}
		x.Rows[k] = row
	}

	x.Outputs = make([][]byte, n)
	for i := 0; i < n; i++ {
		data, err := readData(in)
		if err != nil {
			return err
		}
		x.Outputs[i] = data
	}

	if mode == Interactive {
		var challenge uint32
		if err := binary.Read(in, bo, &challenge); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
		x.Challenge = int(challenge)
	}

	x.Opened = make([]OpenedParty, n-1)
	for idx := range x.Opened {
		o := &x.Opened[idx]
		var party uint32
		if err := binary.Read(in, bo, &party); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
		if party > maxElements {
			return fmt.Errorf("%w: bad party %d", ErrMalformedProof, party)
		}
		o.Party = int(party)
		if _, err := io.ReadFull(in, o.Nonce[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
		if _, err := io.ReadFull(in, o.Seed[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
		aux, err := readData(in)
		if err != nil {
			return err
		}
		o.AuxC = aux
	}
	if mode == FiatShamir {
		// The challenge is not stored; recover it from the opened
		// set. The verifier re-derives and cross-checks it.
		x.Challenge = x.hidden(n)
	}

	if x.Challenge != n-1 {
		if _, err := io.ReadFull(in, x.WitnessNonce[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedProof, err)
		}
		witness, err := readData(in)
		if err != nil {
			return err
		}
		x.Witness = witness
	}
	return nil
}

func writeData(out io.Writer, data []byte) error {
	if err := binary.Write(out, bo, uint32(len(data))); err != nil {
		return err
	}
	_, err := out.Write(data)
	return err
}

func readData(in io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(in, bo, &length); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if length > maxElements {
		return nil, fmt.Errorf("%w: %d byte element", ErrMalformedProof,
			length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(in, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	return data, nil
}
