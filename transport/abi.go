// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// wordSize is the ABI word width: every static parameter occupies one
// 32-byte slot, and every dynamic parameter's tail is padded to a
// multiple of it, matching the surrounding ledger's canonical ABI rules.
const wordSize = 32

// Selector returns the first 4 bytes of the Keccak-256 hash of a
// canonical function signature, e.g. "saveSecret(uint64,bytes)" — the
// same derivation the surrounding ledger's ABI uses to route calls.
func Selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	sum := h.Sum(nil)
	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}

var (
	selSaveCommitmentsAndShares = Selector("saveCommitmentsAndShares(uint64,bytes,bytes)")
	selGetCommitmentsAndShares  = Selector("getCommitmentsAndShares(uint64,address)")
	selSaveSecret               = Selector("saveSecret(uint64,bytes)")
	selGetSecret                = Selector("getSecret(uint64,address)")
)

// ErrMalformedABI is returned when decoding encounters a payload that
// does not match the expected shape for its function signature.
var ErrMalformedABI = errors.New("transport: malformed abi payload")

func packUint64Word(v uint64) [wordSize]byte {
	var w [wordSize]byte
	binary.BigEndian.PutUint64(w[wordSize-8:], v)
	return w
}

func packAddressWord(addr [20]byte) [wordSize]byte {
	var w [wordSize]byte
	copy(w[wordSize-20:], addr[:])
	return w
}

func padded(b []byte) []byte {
	rem := len(b) % wordSize
	if rem == 0 {
		return b
	}
	return append(append([]byte{}, b...), make([]byte, wordSize-rem)...)
}

// packDynamicBytesArgs packs one or more static head words followed by
// one or more dynamic `bytes` arguments, head-then-tail, matching
// Solidity's standard ABI calling convention.
func packDynamicBytesArgs(selector [4]byte, headWords [][wordSize]byte, dynArgs [][]byte) []byte {
	headSlots := len(headWords) + len(dynArgs)
	out := make([]byte, 0, 4+headSlots*wordSize)
	out = append(out, selector[:]...)

	for _, w := range headWords {
		out = append(out, w[:]...)
	}

	offset := headSlots * wordSize
	var tail []byte
	for _, arg := range dynArgs {
		offsetWord := packUint64Word(uint64(offset))
		out = append(out, offsetWord[:]...)
		var lenWord [wordSize]byte
		binary.BigEndian.PutUint64(lenWord[wordSize-8:], uint64(len(arg)))
		tail = append(tail, lenWord[:]...)
		tail = append(tail, padded(arg)...)
		offset += wordSize + len(padded(arg))
	}
	return append(out, tail...)
}

// EncodeBytesOutputs packs one or more `bytes` return values in the
// same head/tail shape a contract call's return data takes: one offset
// word per value, followed by each value's length-prefixed, word-padded
// tail. Used to build getCommitmentsAndShares/getSecret return payloads.
func EncodeBytesOutputs(values ...[]byte) []byte {
	headSlots := len(values)
	out := make([]byte, 0, headSlots*wordSize)
	offset := headSlots * wordSize
	var tail []byte
	for _, v := range values {
		offsetWord := packUint64Word(uint64(offset))
		out = append(out, offsetWord[:]...)
		var lenWord [wordSize]byte
		binary.BigEndian.PutUint64(lenWord[wordSize-8:], uint64(len(v)))
		tail = append(tail, lenWord[:]...)
		tail = append(tail, padded(v)...)
		offset += wordSize + len(padded(v))
	}
	return append(out, tail...)
}

// PackSaveCommitmentsAndShares encodes a saveCommitmentsAndShares call.
func PackSaveCommitmentsAndShares(epoch uint64, commitments, shares []byte) []byte {
	return packDynamicBytesArgs(selSaveCommitmentsAndShares, [][wordSize]byte{packUint64Word(epoch)}, [][]byte{commitments, shares})
}

// PackGetCommitmentsAndShares encodes a getCommitmentsAndShares call.
func PackGetCommitmentsAndShares(epoch uint64, sender [20]byte) []byte {
	out := make([]byte, 0, 4+2*wordSize)
	out = append(out, selGetCommitmentsAndShares[:]...)
	epochWord := packUint64Word(epoch)
	addrWord := packAddressWord(sender)
	out = append(out, epochWord[:]...)
	out = append(out, addrWord[:]...)
	return out
}

// PackSaveSecret encodes a saveSecret call.
func PackSaveSecret(epoch uint64, secret []byte) []byte {
	return packDynamicBytesArgs(selSaveSecret, [][wordSize]byte{packUint64Word(epoch)}, [][]byte{secret})
}

// PackGetSecret encodes a getSecret call.
func PackGetSecret(epoch uint64, sender [20]byte) []byte {
	out := make([]byte, 0, 4+2*wordSize)
	out = append(out, selGetSecret[:]...)
	epochWord := packUint64Word(epoch)
	addrWord := packAddressWord(sender)
	out = append(out, epochWord[:]...)
	out = append(out, addrWord[:]...)
	return out
}

func readWord(data []byte, idx int) ([wordSize]byte, error) {
	start := idx * wordSize
	if start+wordSize > len(data) {
		return [wordSize]byte{}, fmt.Errorf("%w: short head at word %d", ErrMalformedABI, idx)
	}
	var w [wordSize]byte
	copy(w[:], data[start:start+wordSize])
	return w, nil
}

func readDynamicBytesAt(data []byte, headIdx int) ([]byte, error) {
	offsetWord, err := readWord(data, headIdx)
	if err != nil {
		return nil, err
	}
	offset := int(binary.BigEndian.Uint64(offsetWord[wordSize-8:]))
	if offset+wordSize > len(data) {
		return nil, fmt.Errorf("%w: dynamic offset out of range", ErrMalformedABI)
	}
	var lenWord [wordSize]byte
	copy(lenWord[:], data[offset:offset+wordSize])
	length := int(binary.BigEndian.Uint64(lenWord[wordSize-8:]))
	start := offset + wordSize
	if start+length > len(data) {
		return nil, fmt.Errorf("%w: dynamic bytes out of range", ErrMalformedABI)
	}
	return data[start : start+length], nil
}

// UnpackCommitmentsAndShares decodes the (bytes, bytes) return value of
// a getCommitmentsAndShares call.
func UnpackCommitmentsAndShares(data []byte) (commitments, shares []byte, err error) {
	commitments, err = readDynamicBytesAt(data, 0)
	if err != nil {
		return nil, nil, err
	}
	shares, err = readDynamicBytesAt(data, 1)
	if err != nil {
		return nil, nil, err
	}
	return commitments, shares, nil
}

// UnpackSecret decodes the single `bytes` return value of a getSecret
// call.
func UnpackSecret(data []byte) ([]byte, error) {
	return readDynamicBytesAt(data, 0)
}
