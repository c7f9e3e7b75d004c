package dispatch

import (
	"strings"
	"time"

	"github.com/zynd/dispatch/internal/domain/responder"
	"github.com/zynd/dispatch/internal/platform/geo"
)

// skillRules maps symptom keywords to required capability tags. Matching
// is case-insensitive substring search over the symptom text.
var skillRules = []struct {
	keywords []string
	skills   []string
}{
	{[]string{"chest", "heart"}, []string{"cardiac", "cardiac_care"}},
	{[]string{"stroke", "head"}, []string{"stroke", "head_trauma"}},
	{[]string{"trauma", "injury"}, []string{"trauma"}},
}

// RequiredSkills derives capability tags from symptom text. An empty
// result means any responder qualifies.
func RequiredSkills(symptoms string) []string {
	lower := strings.ToLower(symptoms)
	seen := map[string]bool{}
	var out []string
	for _, rule := range skillRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				for _, s := range rule.skills {
					if !seen[s] {
						seen[s] = true
						out = append(out, s)
					}
				}
				break
			}
		}
	}
	return out
}

// Assignment is the matcher's decision for one case.
type Assignment struct {
	Ambulance           *responder.Responder
	Hospital            *responder.Responder
	AmbulanceDistanceKm float64
	HospitalDistanceKm  float64
	ETAMinutes          int
	EstimatedArrival    time.Time
}

func skillsIntersect(have, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		for _, h := range have {
			if h == r {
				return true
			}
		}
	}
	return false
}

// nearest picks the candidate at minimum haversine distance to (lat, lng)
// after skill filtering. Ties keep the first-encountered candidate, so the
// choice is deterministic for a fixed input ordering.
func nearest(candidates []*responder.Responder, required []string, lat, lng float64) (*responder.Responder, float64) {
	var best *responder.Responder
	var bestDist float64
	for _, c := range candidates {
		if !skillsIntersect(c.Skills, required) {
			continue
		}
		d := geo.DistanceKm(lat, lng, c.Latitude, c.Longitude)
		if best == nil || d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, bestDist
}

// Match selects the best ambulance and hospital for a case from a fixed
// responder snapshot. The two selections are independent: a nil ambulance
// with a populated hospital is a valid result, and the caller decides what
// a nil ambulance means for dispatch. Greedy nearest-match, not a global
// assignment.
func Match(c *Case, ambulances, hospitals []*responder.Responder, now time.Time) *Assignment {
	required := RequiredSkills(c.Symptoms)

	a := &Assignment{}
	a.Ambulance, a.AmbulanceDistanceKm = nearest(ambulances, required, c.Latitude, c.Longitude)
	a.Hospital, a.HospitalDistanceKm = nearest(hospitals, required, c.Latitude, c.Longitude)
	if a.Ambulance != nil {
		a.ETAMinutes = geo.ETAMinutes(a.AmbulanceDistanceKm)
		a.EstimatedArrival = geo.EstimatedArrival(now, a.AmbulanceDistanceKm)
	}
	return a
}
