// Package cryptopan implements Crypto-PAn prefix-preserving pseudonymisation
// of IP and MAC addresses.
//
// An Anonymiser is constructed from a 32-byte secret and provides a
// deterministic, invertible, prefix-preserving bijection on byte sequences
// of length 1 to 16: addresses that share an n-bit prefix before the
// transform share an n-bit prefix after it. The same secret always produces
// the same output, on any machine, in any process.
//
// The transform is a bit cascade: one AES-128 block encryption per address
// bit, with the cipher's input built from the bits already known (the
// address bits processed so far) and a working pad derived once at
// construction time. Deanonymise runs the identical cascade but feeds back
// reconstructed plaintext bits instead of ciphertext bits, recovering the
// original address one bit at a time.
//
// Close zeroises the working pad and key material; an Anonymiser must not
// be used afterward.
package cryptopan
