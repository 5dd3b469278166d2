package common

import "github.com/dustin/go-humanize"

// Stats contains engine statistics.
//
// The B-tree has no compaction and no secondary segments; NumSegments
// reports the page count so Stats stays comparable to the teacher's other
// engines even though only one engine now implements it.
type Stats struct {
	NumKeys       int64
	NumSegments   int
	TotalDiskSize int64

	WriteCount int64
	ReadCount  int64

	// Amplification factors
	WriteAmp float64 // bytes written to disk / bytes written by user
	SpaceAmp float64 // disk space used / logical data size
}

// String renders a one-line human-readable summary, used by cmd/benchmark
// and cmd/demo instead of printing raw byte counts.
func (s Stats) String() string {
	return humanize.Comma(s.NumKeys) + " keys, " +
		humanize.Bytes(uint64(s.TotalDiskSize)) + " on disk, " +
		humanize.FormatFloat("#.##", s.WriteAmp) + "x write-amp"
}
