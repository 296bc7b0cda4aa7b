package pcapanon

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/heistp/cryptopan"
	"github.com/heistp/cryptopan/internal/metrics"
)

var testKey = []byte{
	21, 34, 23, 141, 51, 164, 207, 128, 19, 10, 91, 22, 73, 144, 125, 16,
	216, 152, 143, 131, 121, 121, 101, 39, 98, 87, 76, 45, 42, 132, 34, 2,
}

// buildEthIPv4Packet constructs a minimal Ethernet + IPv4 frame with
// distinguishable source/destination MACs and IPs so the test can verify
// in-place rewriting.
func buildEthIPv4Packet() []byte {
	b := make([]byte, 34) // 14-byte eth header + 20-byte IPv4 header
	copy(b[0:6], []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01})
	copy(b[6:12], []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02})
	binary.BigEndian.PutUint16(b[12:14], ipv4EtherType)
	b[14] = 0x45 // version 4, IHL 5
	copy(b[14+12:14+16], []byte{128, 11, 68, 132})
	copy(b[14+16:14+20], []byte{129, 118, 74, 4})
	return b
}

func buildPcapStream(t *testing.T, packets ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(0xa1b2c3d4)); err != nil {
		t.Fatal(err)
	}
	gh := globalHeader{VersionMajor: 2, VersionMinor: 4, Snaplen: 262144, LinkLayer: 1}
	if err := binary.Write(&buf, binary.BigEndian, &gh); err != nil {
		t.Fatal(err)
	}
	for _, p := range packets {
		ph := packetHeader{Len: uint32(len(p)), OrigLen: uint32(len(p))}
		if err := binary.Write(&buf, binary.BigEndian, &ph); err != nil {
			t.Fatal(err)
		}
		buf.Write(p)
	}
	return buf.Bytes()
}

func TestRunRewritesAddressesInPlace(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	pkt := buildEthIPv4Packet()
	stream := buildPcapStream(t, pkt)

	var out bytes.Buffer
	stats, err := Run(bytes.NewReader(stream), &out, &CoreAnonymizer{Anon: anon}, true, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Packets != 1 {
		t.Fatalf("Packets = %d, want 1", stats.Packets)
	}

	// re-parse the rewritten stream and confirm the source IP changed and
	// is deterministic against a direct core call.
	rewritten := out.Bytes()
	ghSize := binary.Size(globalHeader{})
	phSize := binary.Size(packetHeader{})
	pktStart := 4 + ghSize + phSize
	rewrittenPkt := rewritten[pktStart : pktStart+len(pkt)]

	wantIP, err := anon.Anonymise([]byte{128, 11, 68, 132})
	if err != nil {
		t.Fatalf("Anonymise: %v", err)
	}
	gotIP := rewrittenPkt[14+12 : 14+16]
	if !bytes.Equal(gotIP, wantIP) {
		t.Fatalf("source IP = % x, want % x", gotIP, wantIP)
	}

	wantMAC, err := anon.AnonymiseMAC([]byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01})
	if err != nil {
		t.Fatalf("AnonymiseMAC: %v", err)
	}
	gotMAC := rewrittenPkt[0:6]
	if !bytes.Equal(gotMAC, wantMAC) {
		t.Fatalf("dest MAC = % x, want % x", gotMAC, wantMAC)
	}

	if bytes.Equal(rewrittenPkt, pkt) {
		t.Fatal("packet was not modified")
	}
}

func TestUnsupportedLinkLayer(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xa1b2c3d4))
	gh := globalHeader{LinkLayer: 9999}
	binary.Write(&buf, binary.BigEndian, &gh)

	var out bytes.Buffer
	if _, err := Run(&buf, &out, &CoreAnonymizer{Anon: anon}, true, zerolog.Nop(), nil); err == nil {
		t.Fatal("expected error for unsupported link layer")
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	anon, err := cryptopan.New(testKey)
	if err != nil {
		t.Fatalf("cryptopan.New: %v", err)
	}
	defer anon.Close()

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	stream := buildPcapStream(t, buildEthIPv4Packet())
	var out bytes.Buffer
	if _, err := Run(bytes.NewReader(stream), &out, &CoreAnonymizer{Anon: anon}, true, zerolog.Nop(), rec); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(rec.Processed.WithLabelValues("packet")); got != 1 {
		t.Fatalf("processed counter = %v, want 1", got)
	}
}
