package lang

import (
	"strings"
	"time"
)

// timezoneTable maps abbreviation to fixed UTC offset in seconds.
var timezoneTable = map[string]int{
	"UTC":  0,
	"GMT":  0,
	"EST":  -5 * 3600,
	"EDT":  -4 * 3600,
	"CST":  -6 * 3600,
	"CDT":  -5 * 3600,
	"MST":  -7 * 3600,
	"MDT":  -6 * 3600,
	"PST":  -8 * 3600,
	"PDT":  -7 * 3600,
	"WET":  0,
	"WEST": 1 * 3600,
	"BST":  1 * 3600,
	"CET":  1 * 3600,
	"CEST": 2 * 3600,
	"MEZ":  1 * 3600, // de-DE names for CET and CEST
	"MESZ": 2 * 3600,
	"EET":  2 * 3600,
	"EEST": 3 * 3600,
	"IST":  5*3600 + 1800, // +5:30
	"SGT":  8 * 3600,
	"HKT":  8 * 3600,
	"JST":  9 * 3600,
	"AEST": 10 * 3600,
	"AEDT": 11 * 3600,
	"NZST": 12 * 3600,
	"NZDT": 13 * 3600,
}

// tzLocations maps timezone abbreviation to a fixed-offset location.
var tzLocations map[string]*time.Location

func init() {
	tzLocations = make(map[string]*time.Location, len(timezoneTable))
	for name, offset := range timezoneTable {
		tzLocations[name] = time.FixedZone(name, offset)
	}
}

// LookupTimezone returns the location for an abbreviation, case-insensitively.
// Returns nil if not recognized.
func LookupTimezone(name string) *time.Location {
	return tzLocations[strings.ToUpper(name)]
}

// IsTimezone returns true if the given name is a known timezone abbreviation.
func IsTimezone(name string) bool {
	return LookupTimezone(name) != nil
}
