// Package beast decodes the Mode-S Beast binary framing used by aviation
// surveillance receivers.
//
// A Beast stream is a concatenation of frames. Each frame starts with the
// sentinel byte 0x1A followed by a selector byte that fixes the frame kind
// and its logical length:
//
//	0x1A 0x31  Mode A/C          6-byte timestamp, 1-byte signal,  2-byte payload
//	0x1A 0x32  Mode S short      6-byte timestamp, 1-byte signal,  7-byte payload
//	0x1A 0x33  Mode S long       6-byte timestamp, 1-byte signal, 14-byte payload
//	0x1A 0x34  Radarcape status  6-byte timestamp, 1-byte signal, 14-byte payload
//
// Inside a frame a literal 0x1A is doubled. The decoder removes the stuffing,
// resynchronizes on garbage, and never fails on malformed input.
//
// # Usage
//
// Feed chunks of input and carry the returned remainder into the next call:
//
//	var pending []byte
//	for {
//	    n, err := r.Read(chunk)
//	    pending = append(pending, chunk[:n]...)
//	    rest, msgs := beast.Decode(pending)
//	    for _, m := range msgs {
//	        // forward m
//	    }
//	    pending = append(pending[:0], rest...)
//	    if err != nil {
//	        break
//	    }
//	}
//
// Payloads are opaque; this package does not interpret Mode A/C or Mode S
// contents.
package beast
