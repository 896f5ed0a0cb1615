package rate

import "fmt"

// Source tags which tier of the resolution chain produced a rate.
type Source int

// Resolution tiers, from most to least trusted.
const (
	LiveProvider Source = iota + 1
	PivotComposed
	Reference
	Mock
)

var sourceNames = map[Source]string{
	LiveProvider:  "LiveProvider",
	PivotComposed: "PivotComposed",
	Reference:     "Reference",
	Mock:          "Mock",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Lowest returns the less trusted of a and b. A zero Source counts as
// LiveProvider.
func Lowest(a, b Source) Source {
	if a < LiveProvider {
		a = LiveProvider
	}
	if b > a {
		return b
	}
	return a
}

// ParseSource is the inverse of Source.String.
func ParseSource(s string) (Source, error) {
	for k, v := range sourceNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown rate source %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(b []byte) error {
	v, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
