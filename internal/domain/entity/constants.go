package entity

// Unit constants for Request quantities
const (
	UnitPieces   = "pieces"
	UnitKilogram = "kg"
	UnitTon      = "ton"
	UnitMeter    = "meter"
	UnitSquareM  = "m2"
	UnitCubicM   = "m3"
	UnitLiter    = "liter"
)

var validUnits = map[string]bool{
	UnitPieces:   true,
	UnitKilogram: true,
	UnitTon:      true,
	UnitMeter:    true,
	UnitSquareM:  true,
	UnitCubicM:   true,
	UnitLiter:    true,
}

// IsValidUnit returns true if the unit is one of the supported measures
func IsValidUnit(unit string) bool {
	return validUnits[unit]
}
