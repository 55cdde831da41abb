// Package base58 implements the base58btc text encoding used by did:key
// identifiers and multibase 'z' values.
package base58

import (
	"errors"
	"fmt"

	mrbase58 "github.com/mr-tron/base58"
)

// Alphabet is the Bitcoin base58 alphabet (no 0, O, I or l).
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// MultibasePrefix marks a base58btc value in multibase notation.
const MultibasePrefix = 'z'

// ErrInvalidCharacter is returned when the input holds a rune outside Alphabet.
var ErrInvalidCharacter = errors.New("base58: invalid character")

// Encode encodes data as base58btc. Every leading 0x00 byte becomes a
// leading '1'. Empty input encodes to the empty string.
func Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	return mrbase58.Encode(data)
}

// Decode decodes a base58btc string. Every leading '1' becomes a leading
// 0x00 byte. The empty string decodes to an empty slice.
func Decode(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}

	for i := 0; i < len(s); i++ {
		if !isAlphabet(s[i]) {
			return nil, fmt.Errorf("%w %q at offset %d", ErrInvalidCharacter, s[i], i)
		}
	}

	decoded, err := mrbase58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCharacter, err)
	}

	return decoded, nil
}

// DecodeMultibase decodes a multibase base58btc value ("z...").
func DecodeMultibase(s string) ([]byte, error) {
	if len(s) == 0 || s[0] != MultibasePrefix {
		return nil, fmt.Errorf("base58: value is not multibase base58btc")
	}

	return Decode(s[1:])
}

// EncodeMultibase encodes data as a multibase base58btc value ("z...").
func EncodeMultibase(data []byte) string {
	return string(MultibasePrefix) + Encode(data)
}

func isAlphabet(c byte) bool {
	switch {
	case c >= '1' && c <= '9':
		return true
	case c >= 'A' && c <= 'H', c >= 'J' && c <= 'N', c >= 'P' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'k', c >= 'm' && c <= 'z':
		return true
	}

	return false
}
