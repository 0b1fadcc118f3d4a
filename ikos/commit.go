//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ikos

import (
	"hash"
	"io"
)

// NonceSize is the commitment randomizer size in bytes.
const NonceSize = 32

// Nonce is a commitment randomizer. It makes the commitment hiding;
// the hash makes it binding.
type Nonce [NonceSize]byte

func newNonce(rnd io.Reader) (Nonce, error) {
	var nonce Nonce
	_, err := io.ReadFull(rnd, nonce[:])
	return nonce, err
}

// commitData binds the parts to a digest: H(nonce || parts), each
// part length-prefixed so the digest input is unambiguous. The
// preprocessing commitment of a party covers its seed, plus the
// dealer corrections for the last party; the witness share
// commitment covers the last party's input share. Opening reveals
// the nonce and the parts; the verifier recomputes and compares.
func commitData(newHash func() hash.Hash, nonce Nonce, parts ...[]byte) []byte {
	h := newHash()
	h.Write(nonce[:])

	var length [4]byte
	for _, part := range parts {
		bo.PutUint32(length[:], uint32(len(part)))
		h.Write(length[:])
		h.Write(part)
	}
	return h.Sum(nil)
}
