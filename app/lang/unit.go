package lang

import (
	"github.com/shopspring/decimal"
)

// DurationUnit identifies a unit of time.
type DurationUnit uint8

const (
	UnitNone DurationUnit = iota
	UnitMillisecond
	UnitSecond
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

// unitDef defines a unit with its conversion factor to seconds.
type unitDef struct {
	Unit   DurationUnit
	Short  string
	Full   string // full singular name (e.g. "hour")
	FullPl string // full plural name (e.g. "hours")
	// ToBase is the conversion factor: seconds = value * ToBase
	ToBase decimal.Decimal
	// Calendar units are added to dates with calendar arithmetic.
	Calendar bool
}

var allUnits = []unitDef{
	{Unit: UnitMillisecond, Short: "ms", Full: "millisecond", FullPl: "milliseconds", ToBase: decimal.New(1, -3)},
	{Unit: UnitSecond, Short: "s", Full: "second", FullPl: "seconds", ToBase: decimal.NewFromInt(1)},
	{Unit: UnitMinute, Short: "min", Full: "minute", FullPl: "minutes", ToBase: decimal.NewFromInt(60)},
	{Unit: UnitHour, Short: "h", Full: "hour", FullPl: "hours", ToBase: decimal.NewFromInt(3600)},
	{Unit: UnitDay, Short: "d", Full: "day", FullPl: "days", ToBase: decimal.NewFromInt(86400)},
	{Unit: UnitWeek, Short: "wk", Full: "week", FullPl: "weeks", ToBase: decimal.NewFromInt(604800)},
	// 1/12 of a Julian year
	{Unit: UnitMonth, Short: "mo", Full: "month", FullPl: "months", ToBase: decimal.NewFromInt(2629800), Calendar: true},
	{Unit: UnitYear, Short: "yr", Full: "year", FullPl: "years", ToBase: decimal.NewFromInt(31557600), Calendar: true},
}

func lookupUnitDef(u DurationUnit) (unitDef, bool) {
	for _, d := range allUnits {
		if d.Unit == u {
			return d, true
		}
	}
	return unitDef{}, false
}

func (u DurationUnit) String() string {
	if d, ok := lookupUnitDef(u); ok {
		return d.Full
	}
	return "none"
}

// Seconds returns the length of one unit in seconds.
func (u DurationUnit) Seconds() decimal.Decimal {
	if d, ok := lookupUnitDef(u); ok {
		return d.ToBase
	}
	return decimal.Zero
}

// IsCalendar reports whether the unit varies in length on a calendar.
func (u DurationUnit) IsCalendar() bool {
	d, ok := lookupUnitDef(u)
	return ok && d.Calendar
}

// ConvertDuration converts v from one unit to another.
func ConvertDuration(v decimal.Decimal, from, to DurationUnit) (decimal.Decimal, error) {
	if from == UnitNone || to == UnitNone {
		return decimal.Zero, errorf(ErrUnsupported, "cannot convert between %s and %s", from, to)
	}
	if from == to {
		return v, nil
	}
	// v_base = v * from.ToBase
	// result = v_base / to.ToBase
	return v.Mul(from.Seconds()).Div(to.Seconds()), nil
}

// smallerUnit returns whichever unit is shorter.
func smallerUnit(a, b DurationUnit) DurationUnit {
	if a.Seconds().LessThanOrEqual(b.Seconds()) {
		return a
	}
	return b
}

// bestUnitForSeconds picks the largest fixed unit that represents secs as a
// whole number, falling back to seconds.
func bestUnitForSeconds(secs decimal.Decimal) DurationUnit {
	for _, u := range []DurationUnit{UnitDay, UnitHour, UnitMinute} {
		if secs.Mod(u.Seconds()).IsZero() {
			return u
		}
	}
	return UnitSecond
}
