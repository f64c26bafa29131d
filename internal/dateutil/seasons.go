package dateutil

import "fmt"

// Season is a southern hemisphere season, either temperate or tropical
type Season int

const (
	Summer Season = iota + 1
	Autumn
	Winter
	Spring
	Wet
	Dry
)

var seasonNames = map[Season]string{
	Summer: "Summer",
	Autumn: "Autumn",
	Winter: "Winter",
	Spring: "Spring",
	Wet:    "Wet",
	Dry:    "Dry",
}

// month-1 indexed
var temperateSeasonByMonth = [12]Season{
	Summer, Summer,
	Autumn, Autumn, Autumn,
	Winter, Winter, Winter,
	Spring, Spring, Spring,
	Summer,
}

var tropicalSeasonByMonth = [12]Season{
	Wet, Wet, Wet, Wet,
	Dry, Dry, Dry, Dry, Dry, Dry,
	Wet, Wet,
}

func (s Season) String() string {
	if name, ok := seasonNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Season(%d)", int(s))
}

// IsTemperate reports whether s belongs to the four-season temperate calendar
func (s Season) IsTemperate() bool {
	return s >= Summer && s <= Spring
}

// IsTropical reports whether s belongs to the wet/dry tropical calendar
func (s Season) IsTropical() bool {
	return s == Wet || s == Dry
}

// ParseSeason converts a case-sensitive season name back to a Season
func ParseSeason(name string) (Season, error) {
	for s, n := range seasonNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown season %q", name)
}

// GetTemperateSeasonForMonth maps a month to Summer/Autumn/Winter/Spring
func GetTemperateSeasonForMonth(month int) (Season, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return temperateSeasonByMonth[month-1], nil
}

// GetTropicalSeasonForMonth maps a month to Wet/Dry
func GetTropicalSeasonForMonth(month int) (Season, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return tropicalSeasonByMonth[month-1], nil
}

// TemperateSeasonYear returns the year a month's temperate season occurrence
// is counted in. December opens the following year's summer.
func TemperateSeasonYear(year, month int) int {
	if month == 12 {
		return year + 1
	}
	return year
}
