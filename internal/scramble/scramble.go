// Package scramble implements the string-scrambler peer described in
// spec.md §6: a deterministic, fixed- or scaled-length alphabet-mapped
// pseudonym for UTF-8 text, built from a byte-level one-time pad produced
// by AES-CBC with a fixed, key-derived IV. It takes its own 32-byte secret
// and shares nothing with package cryptopan — the two are independent
// collaborators, not variants of one core.
package scramble

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// SecretLen is the required secret length: 16 bytes for the AES-128 key,
// 16 bytes for the fixed IV seed.
const SecretLen = 32

const keyLen = 16

// ErrInvalidKey is returned when the secret is missing or too short.
var ErrInvalidKey = errors.New("scramble: invalid key")

// ErrEmptyAlphabet is returned when the output alphabet has fewer than two
// symbols (a one-symbol alphabet cannot encode distinguishable pseudonyms).
var ErrEmptyAlphabet = errors.New("scramble: alphabet must have at least 2 symbols")

// Scrambler maps UTF-8 strings onto a fixed pseudonym alphabet,
// deterministically, for one 32-byte secret.
type Scrambler struct {
	block cipher.Block
	iv    [keyLen]byte
}

// New constructs a Scrambler. The first 16 bytes of secret are the AES-128
// key; the next 16 bytes seed a fixed CBC IV that is reused for every call
// — reuse is intentional here (it is what makes the pad, and therefore the
// mapping, deterministic across calls and processes), unlike a general
// AES-CBC encryption use where IV reuse would be a defect.
func New(secret []byte) (*Scrambler, error) {
	if len(secret) < SecretLen {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, SecretLen, len(secret))
	}
	block, err := aes.NewCipher(secret[:keyLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	s := &Scrambler{block: block}
	copy(s.iv[:], secret[keyLen:SecretLen])
	return s, nil
}

// Pseudonym maps s onto alphabet, producing a string of the requested
// length built entirely from alphabet's symbols. The same (secret, s,
// alphabet, length) always produces the same pseudonym.
func (sc *Scrambler) Pseudonym(s string, alphabet []rune, length int) (string, error) {
	if len(alphabet) < 2 {
		return "", ErrEmptyAlphabet
	}
	if length <= 0 {
		length = len([]rune(s))
	}

	pad := sc.pad(s, length)

	out := make([]rune, length)
	for i := 0; i < length; i++ {
		out[i] = alphabet[int(pad[i])%len(alphabet)]
	}
	return string(out), nil
}

// pad derives n bytes of keystream deterministic in (secret, s): the
// message s is zero-padded to a whole number of blocks and CBC-encrypted
// under the fixed IV, absorbing every byte of s into the final ciphertext
// block (a CBC-MAC-shaped digest). That digest then seeds a second CBC
// pass over zero blocks, long enough to cover n bytes — a message-keyed
// IV, not a reused one, for this second pass. Two distinct strings almost
// certainly produce two distinct digests and therefore two distinct pads.
func (sc *Scrambler) pad(s string, n int) []byte {
	blockSize := sc.block.BlockSize()

	msg := []byte(s)
	padLen := blockSize
	if len(msg) > 0 {
		padLen = ((len(msg) + blockSize - 1) / blockSize) * blockSize
	}
	padded := make([]byte, padLen)
	copy(padded, msg)

	digestBlocks := make([]byte, padLen)
	cipher.NewCBCEncrypter(sc.block, sc.iv[:]).CryptBlocks(digestBlocks, padded)
	digest := digestBlocks[padLen-blockSize:]

	want := n
	if rem := want % blockSize; rem != 0 {
		want += blockSize - rem
	}
	if want == 0 {
		want = blockSize
	}

	zero := make([]byte, want)
	out := make([]byte, want)
	cipher.NewCBCEncrypter(sc.block, digest).CryptBlocks(out, zero)
	return out[:n]
}
