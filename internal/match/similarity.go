package match

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Jaccard returns |A ∩ B| / |A ∪ B| for two token sets.
//
// Two empty sets score 0.0, not 1.0: two contentless sightings share nothing
// and must never look like a perfect match.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees. Inputs are not range-checked; coordinate
// validation belongs to the API boundary.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusMeters * c
}

// LocationSimilarity scores two free-text location strings by keyword
// overlap. Used when one or both sightings lack geocoded coordinates.
func LocationSimilarity(locA, locB string) float64 {
	return Jaccard(Keywords(locA), Keywords(locB))
}
