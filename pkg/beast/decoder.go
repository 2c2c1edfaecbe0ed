package beast

// state is the position of the decoder within a candidate frame.
type state uint8

const (
	// stateScanning looks for the next sentinel.
	stateScanning state = iota
	// stateHeader has consumed a sentinel and expects a selector byte.
	stateHeader
	// stateBody collects logical frame bytes.
	stateBody
)

// String returns a human-readable state name.
func (s state) String() string {
	switch s {
	case stateScanning:
		return "Scanning"
	case stateHeader:
		return "InHeader"
	case stateBody:
		return "InBody"
	default:
		return "Unknown"
	}
}

// Stats counts input the decoder dropped. A deferred partial frame is not
// counted until a later call resolves it.
type Stats struct {
	// DiscardedBytes is the number of input bytes that did not end up in any
	// emitted message.
	DiscardedBytes int

	// BadSelectors counts sentinels followed by an unknown selector byte.
	BadSelectors int

	// AbandonedFrames counts frames cut short by an unstuffed sentinel.
	AbandonedFrames int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.DiscardedBytes += o.DiscardedBytes
	s.BadSelectors += o.BadSelectors
	s.AbandonedFrames += o.AbandonedFrames
}

// Decode extracts every complete frame from buf.
//
// The returned remainder starts at the sentinel of the last unfinished
// candidate frame, or is empty when buf ends while scanning. It aliases buf;
// the caller prefixes it onto the next chunk. Malformed input is skipped.
func Decode(buf []byte) ([]byte, []Message) {
	return DecodeStats(buf, nil)
}

// DecodeStats is Decode, additionally accumulating drop counters into st
// when st is non-nil.
func DecodeStats(buf []byte, st *Stats) ([]byte, []Message) {
	var (
		local   Stats
		msgs    []Message
		cur     = stateScanning
		start   int
		kind    Kind
		logical = make([]byte, 0, KindModeSLong.frameLen())
	)

	for i := 0; i < len(buf); {
		b := buf[i]
		switch cur {
		case stateScanning:
			i++
			if b != Sentinel {
				local.DiscardedBytes++
				continue
			}
			start = i - 1
			cur = stateHeader

		case stateHeader:
			if k := Kind(b); !k.Valid() {
				// Drop the sentinel only; the selector byte is rescanned and
				// may itself begin a frame.
				local.BadSelectors++
				local.DiscardedBytes++
				cur = stateScanning
				continue
			}
			kind = Kind(b)
			logical = logical[:0]
			cur = stateBody
			i++

		case stateBody:
			if b == Sentinel {
				if i+1 == len(buf) {
					// Cannot tell an escape from a new frame yet.
					return finish(buf[start:], msgs, st, local)
				}
				if buf[i+1] != Sentinel {
					// Back up: this sentinel starts the next candidate.
					local.AbandonedFrames++
					local.DiscardedBytes += i - start
					cur = stateScanning
					continue
				}
				i++
			}
			logical = append(logical, buf[i])
			i++
			if len(logical) == kind.frameLen() {
				msgs = append(msgs, newMessage(kind, logical, buf[start:i]))
				cur = stateScanning
			}
		}
	}

	if cur != stateScanning {
		return finish(buf[start:], msgs, st, local)
	}
	return finish(nil, msgs, st, local)
}

func finish(rest []byte, msgs []Message, st *Stats, local Stats) ([]byte, []Message) {
	if st != nil {
		st.Add(local)
	}
	return rest, msgs
}
