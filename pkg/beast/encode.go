package beast

import "fmt"

// MaxTimestamp is the largest value that fits the 48-bit timestamp field.
const MaxTimestamp = 1<<48 - 1

// AppendFrame appends an escape-stuffed frame to dst. The payload length must
// match kind and the timestamp must fit in 48 bits.
func AppendFrame(dst []byte, kind Kind, timestamp uint64, signal uint8, payload []byte) ([]byte, error) {
	if !kind.Valid() {
		return dst, fmt.Errorf("beast: invalid kind 0x%02X", byte(kind))
	}
	if len(payload) != kind.PayloadLen() {
		return dst, fmt.Errorf("beast: %s payload is %d bytes, want %d", kind, len(payload), kind.PayloadLen())
	}
	if timestamp > MaxTimestamp {
		return dst, fmt.Errorf("beast: timestamp %#x exceeds 48 bits", timestamp)
	}

	dst = append(dst, Sentinel, byte(kind))
	for shift := 40; shift >= 0; shift -= 8 {
		dst = appendStuffed(dst, byte(timestamp>>shift))
	}
	dst = appendStuffed(dst, signal)
	for _, b := range payload {
		dst = appendStuffed(dst, b)
	}
	return dst, nil
}

func appendStuffed(dst []byte, b byte) []byte {
	if b == Sentinel {
		return append(dst, Sentinel, Sentinel)
	}
	return append(dst, b)
}
