package match

import "fmt"

// Weighting between the text and location signals. Verified coordinates are
// trusted more than free text, so text and location carry equal weight when
// both entries are geocoded; the free-text location fallback is a weaker
// signal and is down-weighted to 30%.
const (
	coordTextWeight = 0.5
	coordLocWeight  = 0.5
	textOnlyWeight  = 0.7
	locTextWeight   = 0.3
)

// DefaultDecayMeters is the distance at which the geographic signal decays
// to zero: 0m scores 1.0, 500m scores 0.5, >=1000m scores 0.0. Empirically
// chosen against the reference data; tunable, not derivable.
const DefaultDecayMeters = 1000.0

// Input carries the fields of one sighting that participate in scoring.
// Lat/Lon are nil until the sighting has been geocoded.
type Input struct {
	Text     string
	Location string
	Lat      *float64
	Lon      *float64
}

// HasCoords reports whether the sighting carries a full coordinate pair.
func (in Input) HasCoords() bool { return in.Lat != nil && in.Lon != nil }

// Scorer combines text similarity and a location signal into a single
// 0..1 match score with reason strings for UI transparency.
type Scorer struct {
	// DecayMeters is the linear-decay horizon for the geographic signal.
	DecayMeters float64
}

// NewScorer returns a Scorer with the default decay horizon.
func NewScorer() Scorer {
	return Scorer{DecayMeters: DefaultDecayMeters}
}

// Score computes the combined match score between a base sighting and a
// candidate.
//
// When both sightings are geocoded the location signal is geographic
// distance with linear decay and the score is 50/50 text/location.
// Otherwise the location signal falls back to keyword overlap of the
// free-text locations and the score is 70/30 text/location.
//
// The returned reasons slice is never empty; "low similarity" is appended
// as an explicit fallback so every result stays auditable. The score is not
// clamped; callers round for display only.
func (s Scorer) Score(base, cand Input) (float64, []string) {
	var reasons []string

	textSim := Jaccard(Keywords(base.Text), Keywords(cand.Text))
	if textSim > 0 {
		reasons = append(reasons, fmt.Sprintf("text similarity %.2f", textSim))
	}

	var score float64
	if base.HasCoords() && cand.HasCoords() {
		distance := Haversine(*base.Lat, *base.Lon, *cand.Lat, *cand.Lon)

		locScore := 0.0
		if distance < s.DecayMeters {
			locScore = 1.0 - distance/s.DecayMeters
			if locScore < 0 {
				locScore = 0
			}
			reasons = append(reasons, fmt.Sprintf("distance %.0fm (score %.2f)", distance, locScore))
		} else {
			reasons = append(reasons, fmt.Sprintf("distance %.0fm (too far)", distance))
		}

		score = coordTextWeight*textSim + coordLocWeight*locScore
	} else {
		locScore := 0.0
		if base.Location != "" && cand.Location != "" {
			locScore = LocationSimilarity(base.Location, cand.Location)
			if locScore > 0 {
				reasons = append(reasons, fmt.Sprintf("location text similarity %.2f", locScore))
			}
		}

		score = textOnlyWeight*textSim + locTextWeight*locScore
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "low similarity")
	}

	return score, reasons
}
