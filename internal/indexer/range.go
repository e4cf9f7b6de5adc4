package indexer

import "fmt"

// Window is an inclusive range of checkpoint sequence numbers processed
// together. Progress only moves at window boundaries.
type Window struct {
	From uint64
	To   uint64
}

// Len is the number of checkpoints in w.
func (w Window) Len() uint64 {
	return w.To - w.From + 1
}

// SplitRange cuts [from, to] into consecutive windows of at most size
// checkpoints. The last window may be shorter.
func SplitRange(from, to, size uint64) ([]Window, error) {
	if size == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("checkpoint range end %d is before start %d", to, from)
	}

	var windows []Window
	for start := from; ; {
		// to-start cannot overflow; start+size-1 can near MaxUint64.
		end := to
		if to-start >= size {
			end = start + size - 1
		}
		windows = append(windows, Window{From: start, To: end})
		if end == to {
			return windows, nil
		}
		start = end + 1
	}
}
