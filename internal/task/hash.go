// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"
)

// Hasher builds a sha256 digest from length-prefixed fields,
// so that ("ab", "c") and ("a", "bc") hash differently.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// String adds one field.
func (h *Hasher) String(s string) *Hasher {
	var prefix [8]byte

	binary.BigEndian.PutUint64(prefix[:], uint64(len(s)))
	h.h.Write(prefix[:])
	h.h.Write([]byte(s))

	return h
}

// Strings adds the element count followed by every element.
func (h *Hasher) Strings(ss []string) *Hasher {
	h.Int(len(ss))

	for _, s := range ss {
		h.String(s)
	}

	return h
}

// Int adds an integer field.
func (h *Hasher) Int(n int) *Hasher {
	return h.String(strconv.Itoa(n))
}

// Sum returns the hex encoded digest.
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}
