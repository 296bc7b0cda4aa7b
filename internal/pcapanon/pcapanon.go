// Package pcapanon streams a libpcap capture and rewrites every MAC,
// IPv4, and IPv6 address it finds — in Ethernet, ARP, IPv4, IPv6, and
// Radiotap+802.11 headers — through a *cryptopan.Anonymiser, preserving
// packet structure. Packet length is preserved only when Run is called
// with truncate false; with truncate true, bytes past the headers the
// handler examined are dropped.
//
// Adapted from the teacher's pcap reader/writer loop: the header walking
// (eth.go, radiotap.go) is unchanged in shape, but every address rewrite
// now goes through the real Crypto-PAn bit cascade instead of a
// per-length pseudonym map, which was not prefix-preserving.
package pcapanon

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/metrics"
)

// MaxPacketLen bounds a single captured packet's length; packets
// exceeding it are rejected rather than silently truncated.
const MaxPacketLen uint32 = 256 * 1024

// Anonymizer rewrites MAC and IP addresses in place.
type Anonymizer interface {
	MAC(b []byte) error
	IPv4(b []byte) error
	IPv6(b []byte) error
}

// CoreAnonymizer adapts a *cryptopan.Anonymiser to the Anonymizer
// interface, copying each rewritten address back over its original bytes
// so callers can keep mutating packet buffers in place the way the
// teacher's handlers do.
type CoreAnonymizer struct {
	Anon *cryptopan.Anonymiser
}

// MAC rewrites a 6-byte MAC address in place.
func (c *CoreAnonymizer) MAC(b []byte) error {
	out, err := c.Anon.AnonymiseMAC(net.HardwareAddr(b))
	if err != nil {
		return err
	}
	copy(b, out)
	return nil
}

// IPv4 rewrites a 4-byte IPv4 address in place.
func (c *CoreAnonymizer) IPv4(b []byte) error {
	out, err := c.Anon.AnonymiseFamily(b, cryptopan.FamilyV4)
	if err != nil {
		return err
	}
	copy(b, out)
	return nil
}

// IPv6 rewrites a 16-byte IPv6 address in place.
func (c *CoreAnonymizer) IPv6(b []byte) error {
	out, err := c.Anon.AnonymiseFamily(b, cryptopan.FamilyV6)
	if err != nil {
		return err
	}
	copy(b, out)
	return nil
}

// Handler anonymizes one packet's addresses and reports how many leading
// bytes of b it actually examined (the rest can be truncated away).
type Handler interface {
	Handle(b []byte, anon Anonymizer) (n int, err error)
}

// Handlers maps pcap link-layer type to the handler that understands it.
// https://www.tcpdump.org/linktypes.html
var Handlers = map[uint32]Handler{
	1:   &EthHandler{},
	127: &Radiotap80211Handler{},
}

// magicLE and magicBE are the two pcap global-header byte orderings.
const (
	magicLE uint32 = 0xd4c3b2a1
	magicBE uint32 = 0xa1b2c3d4
)

// globalHeader is a pcap global header (magic read separately).
type globalHeader struct {
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	Sigfigs      uint32
	Snaplen      uint32
	LinkLayer    uint32
}

// packetHeader is a pcap per-packet header.
type packetHeader struct {
	TimestampSec  uint32
	TimestampUsec uint32
	Len           uint32
	OrigLen       uint32
}

// Stats summarises one Run.
type Stats struct {
	Packets uint64
	Errors  uint64
}

// Run reads a pcap stream from r, anonymizes every packet's addresses
// using anon, and writes the rewritten stream to w. If truncate is true,
// the portion of each packet beyond what its handler examined is dropped
// (the teacher's default; -no-truncate disables it at the CLI layer since
// keeping unexamined bytes risks leaking addresses the handler didn't
// reach). rec may be nil, in which case no metrics are recorded.
func Run(r io.Reader, w io.Writer, anon Anonymizer, truncate bool, log zerolog.Logger, rec *metrics.Recorder) (Stats, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	var magic uint32
	if err := binary.Read(br, binary.BigEndian, &magic); err != nil {
		return Stats{}, fmt.Errorf("pcapanon: read magic: %w", err)
	}
	var order binary.ByteOrder
	switch magic {
	case magicLE:
		order = binary.LittleEndian
	case magicBE:
		order = binary.BigEndian
	default:
		return Stats{}, fmt.Errorf("pcapanon: bad magic: 0x%x", magic)
	}
	// The magic is re-emitted using the same byte order it was read in,
	// not forced to big-endian: for a little-endian input, order.PutUint32
	// of magicBE produces the bytes d4 c3 b2 a1, i.e. magicLE, so the
	// output stream's declared byte order keeps matching how gh and every
	// packet header are actually encoded below.
	if err := binary.Write(bw, order, magicBE); err != nil {
		return Stats{}, fmt.Errorf("pcapanon: write magic: %w", err)
	}

	var gh globalHeader
	if err := binary.Read(br, order, &gh); err != nil {
		return Stats{}, fmt.Errorf("pcapanon: read global header: %w", err)
	}
	log.Info().
		Str("byte_order", fmt.Sprintf("%T", order)).
		Uint16("version_major", gh.VersionMajor).
		Uint16("version_minor", gh.VersionMinor).
		Uint32("snaplen", gh.Snaplen).
		Uint32("link_layer", gh.LinkLayer).
		Msg("detected pcap stream")

	h, ok := Handlers[gh.LinkLayer]
	if !ok {
		return Stats{}, fmt.Errorf("pcapanon: unsupported link layer %d (https://www.tcpdump.org/linktypes.html)", gh.LinkLayer)
	}
	if err := binary.Write(bw, order, &gh); err != nil {
		return Stats{}, fmt.Errorf("pcapanon: write global header: %w", err)
	}

	var stats Stats
	for {
		var ph packetHeader
		if err := binary.Read(br, order, &ph); err != nil {
			if err == io.EOF {
				return stats, nil
			}
			return stats, fmt.Errorf("pcapanon: read packet header: %w", err)
		}
		if ph.Len > MaxPacketLen {
			return stats, fmt.Errorf("pcapanon: max packet length exceeded: %d", ph.Len)
		}

		b := make([]byte, ph.Len)
		if _, err := io.ReadFull(br, b); err != nil {
			return stats, fmt.Errorf("pcapanon: read packet: %w", err)
		}

		start := time.Now()
		n, err := h.Handle(b, anon)
		if err != nil {
			stats.Errors++
			rec.IncErrors("handler")
			log.Warn().Err(err).Uint64("packet", stats.Packets).Msg("failed to anonymize packet")
			return stats, fmt.Errorf("pcapanon: anonymize packet %d: %w", stats.Packets, err)
		}
		rec.ObserveLatency(time.Since(start))
		rec.IncProcessed("packet")
		if truncate {
			b = b[:n]
			ph.Len = uint32(n)
		}

		if err := binary.Write(bw, order, &ph); err != nil {
			return stats, fmt.Errorf("pcapanon: write packet header: %w", err)
		}
		if _, err := bw.Write(b); err != nil {
			return stats, fmt.Errorf("pcapanon: write packet: %w", err)
		}
		stats.Packets++
	}
}

// isAllZeroes reports whether every byte of b is zero, used to skip
// anonymizing an ARP sender/target hardware address that was never filled
// in.
func isAllZeroes(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
