package race

import "fmt"

// VenueTable maps two-digit venue codes to display names. It is built once
// and only read afterwards.
type VenueTable struct {
	names map[int]string
}

// NewVenueTable copies names into a new table.
func NewVenueTable(names map[int]string) VenueTable {
	copied := make(map[int]string, len(names))
	for code, name := range names {
		copied[code] = name
	}
	return VenueTable{names: copied}
}

// DefaultVenues returns the ten JRA racecourses.
func DefaultVenues() VenueTable {
	return NewVenueTable(map[int]string{
		1:  "札幌",
		2:  "函館",
		3:  "福島",
		4:  "新潟",
		5:  "東京",
		6:  "中山",
		7:  "中京",
		8:  "京都",
		9:  "阪神",
		10: "小倉",
	})
}

// Name returns the venue name for code and whether it is known.
// Unknown codes yield "unknown(NN)".
func (v VenueTable) Name(code int) (string, bool) {
	if name, ok := v.names[code]; ok {
		return name, true
	}
	return fmt.Sprintf("unknown(%02d)", code), false
}
