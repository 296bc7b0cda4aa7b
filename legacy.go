package cryptopan

import "encoding/binary"

// Anonymise4 is the legacy host-order IPv4 entry point, kept only for
// regression parity with the original Crypto-PAn reference implementation,
// which took and returned a raw uint32 in the host's native byte order
// rather than a network-order byte slice. in's bytes, in native order, are
// handed to the 4-byte path unchanged, and the result is read back in
// native order, so this only agrees with Anonymise(b) for a network-order
// b on a big-endian host; on a little-endian host the byte-for-byte
// mapping differs, matching the original reference's behavior of indexing
// bits directly on the in-memory representation of the word rather than
// its network-order form.
func (a *Anonymiser) Anonymise4(in uint32) (uint32, error) {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], in)
	out, err := a.Anonymise(buf[:])
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(out), nil
}

// Deanonymise4 is the inverse of Anonymise4.
func (a *Anonymiser) Deanonymise4(in uint32) (uint32, error) {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], in)
	out, err := a.Deanonymise(buf[:])
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(out), nil
}
