package pcapanon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	typeMgmt     uint = 0
	typeControl  uint = 1
	typeData     uint = 2
	typeReserved uint = 3
)

const (
	cfWrapper     uint = 0x7
	cfBlockAckReq uint = 0x8
	cfBlockAck    uint = 0x9
	cfPSPoll      uint = 0xa
	cfRTS         uint = 0xb
	cfCTS         uint = 0xc
	cfACK         uint = 0xd
	cfEnd         uint = 0xe
	cfEndAck      uint = 0xf
)

// cfMACs maps control-frame subtype to the number of MAC addresses it
// carries. Wireshark: (wlan.fc.type eq 1) and (wlan.fc.subtype eq 8)
var cfMACs = map[uint]int{
	cfWrapper:     1,
	cfBlockAckReq: 2,
	cfBlockAck:    2,
	cfPSPoll:      1,
	cfRTS:         2,
	cfCTS:         1,
	cfACK:         1,
	cfEnd:         1,
	cfEndAck:      2,
}

const qosMask = 0x8

// Radiotap80211Handler anonymizes Radiotap-wrapped 802.11 frames.
type Radiotap80211Handler struct{}

// Handle anonymizes one packet.
func (h *Radiotap80211Handler) Handle(b []byte, anon Anonymizer) (n int, err error) {
	slurp := func(x int, inc bool) error {
		if n+x > len(b) {
			return fmt.Errorf("short packet trying to slurp %d bytes at pos %d (increase snaplen)", x, n)
		}
		if inc {
			n += x
		}
		return nil
	}

	r := bytes.NewBuffer(b)
	var rh radiotapHeader
	if err = rh.Read(r); err != nil {
		return
	}
	n = int(rh.Len)

	r = bytes.NewBuffer(b[n:])
	var fc uint8
	if err = binary.Read(r, binary.LittleEndian, &fc); err != nil {
		return
	}
	n++
	_, typ, styp := parseFC(fc)
	var flags uint8
	if err = binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return
	}
	n++
	tods, fromds, order := parseFlags(flags)

	if err = slurp(2, true); err != nil { // duration/ID
		return
	}

	var nmacs int
	switch typ {
	case typeMgmt, typeData:
		nmacs = 3
	case typeControl:
		nm, ok := cfMACs[styp]
		if !ok {
			return n, fmt.Errorf("invalid control frame subtype: 0x%x", styp)
		}
		nmacs = nm
	default:
		return n, fmt.Errorf("impossible 802.11 type reserved")
	}

	for i := 0; i < nmacs; i++ {
		if err = slurp(6, false); err != nil {
			return
		}
		if err = anon.MAC(b[n : n+6]); err != nil {
			return
		}
		n += 6
	}

	if typ != typeControl {
		if err = slurp(2, true); err != nil { // sequence control
			return
		}
	}

	if typ == typeData && tods && fromds {
		if err = slurp(6, false); err != nil {
			return
		}
		if err = anon.MAC(b[n : n+6]); err != nil {
			return
		}
		n += 6
	}

	qosDataFrame := false
	if typ == typeData && (styp&qosMask) != 0 {
		qosDataFrame = true
		if err = slurp(2, true); err != nil { // QoS control
			return
		}
	}

	if typ == typeControl && styp == cfWrapper {
		if err = slurp(2, true); err != nil { // carried frame control
			return
		}
	}

	// HT control: https://mrncciew.com/2014/10/20/cwap-ht-control-field/
	if (typ == typeControl && styp == cfWrapper) || (qosDataFrame && order) ||
		(typ == typeMgmt && order) {
		if err = slurp(4, true); err != nil {
			return
		}
	}

	return
}

// radiotapHeader is a Radiotap capture header.
type radiotapHeader struct {
	Version uint8
	Pad     uint8
	Len     uint16
	Present uint32
}

func (h *radiotapHeader) Read(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, h)
}

func parseFC(fc uint8) (ver, typ, styp uint) {
	ver = uint(fc & 0x3)
	typ = uint((fc >> 2) & 0x3)
	styp = uint((fc >> 4) & 0xF)
	return
}

func parseFlags(flags uint8) (tods, fromds, order bool) {
	tods = flags&0x01 == 0x01
	fromds = flags&0x02 == 0x02
	order = flags&0x80 == 0x80
	return
}
