//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command zkmpc proves and verifies knowledge of Boolean circuit
// witnesses with the MPC-in-the-head protocol.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/markkurossi/text/superscript"

	"github.com/markkurossi/mpcith/circuit"
	"github.com/markkurossi/mpcith/ikos"
)

var (
	verbose = false
)

func main() {
	fEval := flag.Bool("eval", false, "evaluate circuit in cleartext")
	fProve := flag.Bool("prove", false, "prove knowledge of the witness")
	fVerify := flag.Bool("verify", false, "verify a proof")
	witness := flag.String("w", "", "witness bits, e.g. '11'")
	output := flag.String("out", "", "public output bits, e.g. '1'")
	proofFile := flag.String("p", "proof.ikos", "proof file")
	parties := flag.Int("n", 3, "number of virtual parties")
	rounds := flag.Int("r", 0, "number of rounds (0: derive from -sec)")
	emulations := flag.Int("m",
		0, "number of preprocessing emulations (0: parties*rounds)")
	sec := flag.Int("sec", 80, "soundness level in bits")
	fInteractive := flag.Bool("i", false, "interactive challenges")
	fVerbose := flag.Bool("v", false, "verbose output")
	fTime := flag.Bool("time", false, "print timing profile")
	flag.Parse()

	verbose = *fVerbose

	if len(flag.Args()) == 0 {
		fmt.Printf("No circuit files\n")
		os.Exit(1)
	}
	if *rounds == 0 {
		*rounds = ikos.RoundsForSoundness(*parties, *sec)
	}
	params := ikos.Params{
		Parties:    *parties,
		Rounds:     *rounds,
		Emulations: *emulations,
	}

	for _, arg := range flag.Args() {
		circ, err := loadCircuit(arg)
		if err != nil {
			fmt.Printf("Failed to load circuit '%s': %s\n", arg, err)
			os.Exit(1)
		}
		if verbose {
			fmt.Printf("Circuit: %v\n", circ)
		}

		switch {
		case *fEval:
			err = evalCircuit(circ, *witness)

		case *fProve:
			err = prove(circ, *witness, params, *fInteractive,
				*proofFile, *fTime)

		case *fVerify:
			err = verify(circ, *output, params, *proofFile, *fTime)

		default:
			fmt.Printf("No mode specified: expected -eval, -prove, or -verify\n")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("%s: %s\n", arg, err)
			os.Exit(1)
		}
	}
}

func loadCircuit(name string) (*circuit.Circuit, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(name, ".bcirc") {
		return circuit.Unmarshal(f)
	}
	return circuit.Parse(f)
}

func evalCircuit(circ *circuit.Circuit, witness string) error {
	bits, err := parseBits(witness, circ.NumInputs)
	if err != nil {
		return err
	}
	result, err := circ.Compute(bits)
	if err != nil {
		return err
	}
	fmt.Printf("Result: %s\n", formatBits(result))
	return nil
}

func prove(circ *circuit.Circuit, witness string, params ikos.Params,
	interactive bool, proofFile string, profile bool) error {

	bits, err := parseBits(witness, circ.NumInputs)
	if err != nil {
		return err
	}
	output, err := circ.Compute(bits)
	if err != nil {
		return err
	}

	timing := ikos.NewTiming()

	var proof *ikos.Proof
	if interactive {
		proof, err = ikos.ProveInteractive(circ, bits, output, params, nil)
	} else {
		proof, err = ikos.Prove(circ, bits, output, params)
	}
	if err != nil {
		return err
	}
	timing.Sample("Prove", nil)

	f, err := os.Create(proofFile)
	if err != nil {
		return err
	}
	if err := proof.Marshal(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	info, err := os.Stat(proofFile)
	if err != nil {
		return err
	}
	timing.Sample("Marshal", []string{
		ikos.FileSize(info.Size()).String(),
	})

	if verbose {
		dumpProof(proof)
	}
	if profile {
		timing.Print()
	}
	fmt.Printf("Output: %s\n", formatBits(output))
	fmt.Printf("Proof: %v: %s\n", proof, proofFile)
	return nil
}

func verify(circ *circuit.Circuit, output string, params ikos.Params,
	proofFile string, profile bool) error {

	bits, err := parseBits(output, circ.NumOutputs)
	if err != nil {
		return err
	}
	f, err := os.Open(proofFile)
	if err != nil {
		return err
	}
	defer f.Close()

	timing := ikos.NewTiming()

	proof, err := ikos.UnmarshalProof(f)
	if err != nil {
		return err
	}
	timing.Sample("Unmarshal", nil)

	if verbose {
		dumpProof(proof)
	}
	if err := ikos.Verify(circ, bits, proof, params); err != nil {
		return fmt.Errorf("REJECT: %w", err)
	}
	timing.Sample("Verify", nil)

	if profile {
		timing.Print()
	}
	fmt.Printf("ACCEPT\n")
	return nil
}

// dumpProof prints the audited emulations and the per-execution
// challenges and opened parties.
func dumpProof(proof *ikos.Proof) {
	fmt.Printf("Proof: %v\n", proof)
	var audited string
	for _, a := range proof.Audits {
		if len(audited) > 0 {
			audited += " "
		}
		audited += "E" + superscript.Itoa(a.Emulation)
	}
	fmt.Printf("audited %s\n", audited)
	for idx := range proof.Execs {
		x := &proof.Execs[idx]
		var opened string
		for _, o := range x.Opened {
			if len(opened) > 0 {
				opened += " "
			}
			opened += "P" + superscript.Itoa(o.Party)
		}
		fmt.Printf("%4d: hidden P%s, opened %s\n",
			idx, superscript.Itoa(x.Challenge), opened)
	}
}

func parseBits(arg string, n int) ([]byte, error) {
	if len(arg) != n {
		return nil, fmt.Errorf("got %d bits, expected %d", len(arg), n)
	}
	bits := make([]byte, n)
	for i, r := range arg {
		switch r {
		case '0':
		case '1':
			bits[i] = 1
		default:
			return nil, fmt.Errorf("invalid bit '%c'", r)
		}
	}
	return bits, nil
}

func formatBits(bits []byte) string {
	var sb strings.Builder
	for _, bit := range bits {
		if bit == 0 {
			sb.WriteRune('0')
		} else {
			sb.WriteRune('1')
		}
	}
	return sb.String()
}
