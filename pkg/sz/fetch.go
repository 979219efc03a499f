package sz

import "fmt"

// fetchSequential executes a plan over a single handle, filling buf
// positionally: ranges must be visited in plan order because the buffer is
// assembled by position, not by content. Suited to plans with few, large
// ranges (inline, crossline, subvolume).
func fetchSequential(h Handle, p plan, buf []byte) error {
	pos := 0
	for _, r := range p.ranges {
		if _, err := h.ReadAt(buf[pos:pos+r.length], r.off); err != nil {
			return fmt.Errorf("%w: read %d bytes at offset %d: %w", ErrIO, r.length, r.off, err)
		}
		pos += r.length
	}
	return nil
}
