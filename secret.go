package cryptopan

import (
	"crypto/aes"
	"fmt"
)

// SecretLen is the required length, in bytes, of a construction secret:
// 16 bytes for the AES-128 key K, followed by 16 bytes for the raw pad
// seed R.
const SecretLen = 32

// keyLen is the length of K and of R individually, and of a single AES
// block.
const keyLen = 16

// secret holds the derived key schedule and working pad for an Anonymiser.
// Every byte slice here is owned exclusively by the secret; none may
// escape through an accessor, and zero overwrites all of them in place.
type secret struct {
	block cipherBlock
	k     [keyLen]byte
	pad   [keyLen]byte
}

// cipherBlock is the subset of cipher.Block the core needs. Isolated as an
// interface so zeroisation can drop the reference without reaching into
// crypto/aes internals.
type cipherBlock interface {
	BlockSize() int
	Encrypt(dst, src []byte)
}

// newSecret splits raw into K and R, schedules AES-128 under K, and
// computes the working pad P = AES_ECB_Encrypt(K, R). raw must be at least
// SecretLen bytes; only the first SecretLen are used. ASCII-string secrets
// are converted to bytes by NewFromString before reaching here — no
// further derivation happens.
func newSecret(raw []byte) (*secret, error) {
	if len(raw) < SecretLen {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, SecretLen, len(raw))
	}

	k := raw[:keyLen]
	r := raw[keyLen:SecretLen]

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	s := &secret{block: block}
	copy(s.k[:], k)

	// P = AES_ECB_Encrypt(K, R): a single block encryption, no chaining,
	// no padding.
	block.Encrypt(s.pad[:], r)

	return s, nil
}

// encryptBlock runs one AES-ECB block encryption of a 16-byte input,
// writing the 16-byte result to dst. dst and src must each be exactly one
// block and may alias different backing arrays (they must not overlap).
func (s *secret) encryptBlock(dst, src []byte) {
	s.block.Encrypt(dst, src)
}

// zero overwrites all secret-bearing fields in place and drops the cipher
// reference. Safe to call more than once.
func (s *secret) zero() {
	for i := range s.k {
		s.k[i] = 0
	}
	for i := range s.pad {
		s.pad[i] = 0
	}
	s.block = nil
}
