package product

import "strings"

type CodingKind int

const (
	FlagCodingKind CodingKind = iota
	IndexCodingKind
)

// CodingEntry is one named flag or index value. For flags Mask selects the
// bits and Value is the pattern they must match; for indices both hold the
// index value.
type CodingEntry struct {
	Name        string
	Mask        int
	Value       int
	Description string
}

// SampleCoding assigns meaning to raw band samples, either as bit flags or
// as enumerated indices.
type SampleCoding struct {
	name    string
	Kind    CodingKind
	entries []CodingEntry
}

func NewFlagCoding(name string) *SampleCoding {
	return &SampleCoding{name: name, Kind: FlagCodingKind}
}

func NewIndexCoding(name string) *SampleCoding {
	return &SampleCoding{name: name, Kind: IndexCodingKind}
}

func (c *SampleCoding) Name() string { return c.name }

func (c *SampleCoding) IsFlagCoding() bool { return c.Kind == FlagCodingKind }

func (c *SampleCoding) AddFlag(name string, mask int, description string) {
	c.entries = append(c.entries, CodingEntry{Name: name, Mask: mask, Value: mask, Description: description})
}

func (c *SampleCoding) AddIndex(name string, value int, description string) {
	c.entries = append(c.entries, CodingEntry{Name: name, Mask: value, Value: value, Description: description})
}

func (c *SampleCoding) Entries() []CodingEntry { return c.entries }

func (c *SampleCoding) Entry(name string) (CodingEntry, bool) {
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return CodingEntry{}, false
}

// Matches reports whether a raw sample carries entry e.
func (c *SampleCoding) Matches(e CodingEntry, raw int64) bool {
	if c.Kind == IndexCodingKind {
		return raw == int64(e.Value)
	}
	return raw&int64(e.Mask) == int64(e.Value)
}

func (c *SampleCoding) Clone() *SampleCoding {
	clone := &SampleCoding{name: c.name, Kind: c.Kind}
	clone.entries = append(clone.entries, c.entries...)
	return clone
}

// SizeInBytes approximates the persisted size: one int32 value plus the name
// and description text per entry.
func (c *SampleCoding) SizeInBytes() int64 {
	var size int64
	for _, e := range c.entries {
		size += 4 + int64(len(e.Name)+len(e.Description))
	}
	return size
}
