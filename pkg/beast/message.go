package beast

import (
	"fmt"
	"strconv"
)

// Sentinel marks the start of a frame and doubles as the escape byte.
const Sentinel byte = 0x1A

const (
	timestampLen = 6
	signalLen    = 1
	headerLen    = timestampLen + signalLen
)

// Kind identifies a frame type by its selector byte.
type Kind byte

// Frame kinds.
const (
	KindModeAC          Kind = 0x31
	KindModeSShort      Kind = 0x32
	KindModeSLong       Kind = 0x33
	KindRadarcapeStatus Kind = 0x34
)

// Kinds lists every valid kind in selector order.
var Kinds = []Kind{KindModeAC, KindModeSShort, KindModeSLong, KindRadarcapeStatus}

// Valid reports whether k is a known selector.
func (k Kind) Valid() bool {
	return k >= KindModeAC && k <= KindRadarcapeStatus
}

// PayloadLen returns the payload length in bytes, or 0 for an unknown kind.
func (k Kind) PayloadLen() int {
	switch k {
	case KindModeAC:
		return 2
	case KindModeSShort:
		return 7
	case KindModeSLong, KindRadarcapeStatus:
		return 14
	default:
		return 0
	}
}

// frameLen is the logical (unstuffed) length after the selector byte.
func (k Kind) frameLen() int {
	return headerLen + k.PayloadLen()
}

// String returns the name used in human-readable output.
func (k Kind) String() string {
	switch k {
	case KindModeAC:
		return "MODE_AC"
	case KindModeSShort:
		return "MODE_S_SHORT"
	case KindModeSLong:
		return "MODE_S_LONG"
	case KindRadarcapeStatus:
		return "RADARCAPE_STATUS"
	default:
		return "UNKNOWN(0x" + strconv.FormatUint(uint64(k), 16) + ")"
	}
}

// Message is one decoded frame. Messages are never modified after Decode
// returns them, and they do not alias the decoder's input buffer.
type Message struct {
	// Kind is the frame type.
	Kind Kind

	// Timestamp is the 48-bit capture timestamp. Its unit depends on the
	// receiver's clock domain.
	Timestamp uint64

	// Signal is the relative signal level.
	Signal uint8

	// Payload holds the unstuffed message bytes; its length is Kind.PayloadLen().
	Payload []byte

	// Raw is the frame exactly as it appeared in the stream, from the
	// sentinel through the last consumed byte, stuffing included.
	Raw []byte
}

// newMessage builds a Message from the logical frame bytes and the raw span.
func newMessage(kind Kind, logical, raw []byte) Message {
	var ts uint64
	for _, b := range logical[:timestampLen] {
		ts = ts<<8 | uint64(b)
	}
	return Message{
		Kind:      kind,
		Timestamp: ts,
		Signal:    logical[timestampLen],
		Payload:   append([]byte(nil), logical[headerLen:]...),
		Raw:       append([]byte(nil), raw...),
	}
}

// AppendText appends the human-readable form of m to dst:
//
//	Type: MODE_S_LONG      Time: 0123456789AB Signal:  42 Data: 8D4840D6...
func (m Message) AppendText(dst []byte) []byte {
	return fmt.Appendf(dst, "Type: %-16s Time: %06X Signal: %3d Data: %X",
		m.Kind, m.Timestamp, m.Signal, m.Payload)
}

// String returns the human-readable form of m without a trailing newline.
func (m Message) String() string {
	return string(m.AppendText(nil))
}
