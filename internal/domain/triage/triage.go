// Package triage classifies incoming emergencies from free-text symptom
// descriptions and call transcripts. The rule tables are ordered keyword
// lists; the package is designed to be swapped for a model-backed classifier
// behind the same interface.
package triage

import "strings"

// Severity levels, lowest to highest.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Emotional state tags derived from voice transcripts.
const (
	EmotionCalm     = "calm"
	EmotionPanic    = "panic"
	EmotionPain     = "pain"
	EmotionConfused = "confused"
)

// Result is the outcome of classifying a call.
type Result struct {
	Severity       string `json:"severity"`
	EmotionalState string `json:"emotional_state"`
}

// emotionRules are evaluated in priority order; the first rule whose
// keyword appears in the transcript wins.
var emotionRules = []struct {
	state    string
	keywords []string
}{
	{EmotionPanic, []string{"help", "please", "hurry", "dying", "can't breathe"}},
	{EmotionPain, []string{"hurts", "pain", "ache", "burning", "stabbing"}},
	{EmotionConfused, []string{"don't know", "not sure", "maybe", "think"}},
}

var criticalSymptoms = []string{"chest pain", "can't breathe", "unconscious", "severe bleeding", "stroke"}

var highSymptoms = []string{"severe pain", "broken bone", "high fever", "head injury"}

// Classify derives severity and emotional state from symptom text and the
// voice transcript. A panicked caller escalates severity to critical; a
// caller in pain escalates to high.
func Classify(symptoms, transcript string) Result {
	emotionalState := EmotionCalm
	lowerTranscript := strings.ToLower(transcript)
	for _, rule := range emotionRules {
		if containsAny(lowerTranscript, rule.keywords) {
			emotionalState = rule.state
			break
		}
	}

	severity := SeverityMedium
	lowerSymptoms := strings.ToLower(symptoms)
	switch {
	case containsAny(lowerSymptoms, criticalSymptoms) || emotionalState == EmotionPanic:
		severity = SeverityCritical
	case containsAny(lowerSymptoms, highSymptoms) || emotionalState == EmotionPain:
		severity = SeverityHigh
	}

	return Result{Severity: severity, EmotionalState: emotionalState}
}

// ValidSeverity reports whether s is one of the recognized severity levels.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
