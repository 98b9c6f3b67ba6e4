package laz

import "io"

// FilePosition is an absolute byte offset in a stream.
type FilePosition int64

// Tell returns the current position of s.
func Tell(s io.Seeker) (FilePosition, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	return FilePosition(pos), err
}

// SeekTo moves s to the position.
func (p FilePosition) SeekTo(s io.Seeker) error {
	_, err := s.Seek(int64(p), io.SeekStart)
	return err
}

// Add returns the position n bytes after p.
func (p FilePosition) Add(n uint64) FilePosition {
	return p + FilePosition(n) //nolint:gosec
}

// Since returns the number of bytes between an earlier position and p.
func (p FilePosition) Since(earlier FilePosition) uint64 {
	if p < earlier {
		return 0
	}

	return uint64(p - earlier)
}
