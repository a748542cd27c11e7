// Package bytesize parses human-readable byte sizes used in configuration
// files, such as "64Mi", "10MB", or plain numbers.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize represents a size in bytes that can be unmarshaled from
// human-readable strings.
//
// Supported formats:
//   - Plain numbers: 1024, 1073741824
//   - Binary units (x1024): Ki/KiB, Mi/MiB, Gi/GiB
//   - Decimal units (x1000): K/KB, M/MB, G/GB
//   - Bytes: B
type ByteSize uint64

// Common byte size constants.
const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var unitMultipliers = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
}

// Parse converts a human-readable size string into a ByteSize.
func Parse(s string) (ByteSize, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	mult, ok := unitMultipliers[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}

	return ByteSize(value * float64(mult)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so ByteSize fields can be
// decoded from config files.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// String renders the size with the largest exact binary unit.
func (b ByteSize) String() string {
	switch {
	case b >= GiB && b%GiB == 0:
		return fmt.Sprintf("%dGi", uint64(b/GiB))
	case b >= MiB && b%MiB == 0:
		return fmt.Sprintf("%dMi", uint64(b/MiB))
	case b >= KiB && b%KiB == 0:
		return fmt.Sprintf("%dKi", uint64(b/KiB))
	default:
		return strconv.FormatUint(uint64(b), 10)
	}
}

// Bytes returns the size as a plain integer.
func (b ByteSize) Bytes() uint64 { return uint64(b) }
