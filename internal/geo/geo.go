package geo

import "math"

const (
	earthRadiusKM = 6371.0
	kmPerNM       = 1.852
)

// DistanceNM calculates the great-circle distance in nautical miles between
// two lat/lon points using the haversine formula.
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad

	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c / kmPerNM
}

// BearingDeg calculates the initial great-circle bearing in degrees from
// point 1 to point 2. Returns a value in [0, 360) where 0 is north and
// 90 is east.
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad
	dLon := (lon2 - lon1) * rad

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * 180.0 / math.Pi

	return math.Mod(bearing+360.0, 360.0)
}

// Octant is one of the eight compass directions.
type Octant string

const (
	North     Octant = "north"
	Northeast Octant = "northeast"
	East      Octant = "east"
	Southeast Octant = "southeast"
	South     Octant = "south"
	Southwest Octant = "southwest"
	West      Octant = "west"
	Northwest Octant = "northwest"
)

type octantSector struct {
	start, end float64
	name       Octant
}

// North wraps across 0/360, so it is listed with start > end and handled
// separately below.
var octantSectors = []octantSector{
	{337.5, 22.5, North},
	{22.5, 67.5, Northeast},
	{67.5, 112.5, East},
	{112.5, 157.5, Southeast},
	{157.5, 202.5, South},
	{202.5, 247.5, Southwest},
	{247.5, 292.5, West},
	{292.5, 337.5, Northwest},
}

// CompassOctant maps a bearing in degrees into one of eight 45-degree
// sectors centered on the cardinal and intercardinal directions.
func CompassOctant(bearing float64) Octant {
	for _, sector := range octantSectors {
		if sector.start > sector.end {
			if bearing >= sector.start || bearing < sector.end {
				return sector.name
			}
		} else if bearing >= sector.start && bearing < sector.end {
			return sector.name
		}
	}
	return North
}
