package diagnosis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Age categories used by the rule table.
const (
	AgePuppy   = "puppy"
	AgeKitten  = "kitten"
	AgeAdult   = "adult"
	AgeSenior  = "senior"
	AgeUnknown = "unknown"
)

// Pet describes the animal being diagnosed. Instances are owned by a single
// diagnosis call and never mutated.
type Pet struct {
	Name               string   `json:"name"`
	Species            string   `json:"species"` // dog, cat, bird, rabbit, ...
	Breed              string   `json:"breed,omitempty"`
	Age                float64  `json:"age"` // years
	Weight             float64  `json:"weight,omitempty"`
	Gender             string   `json:"gender"`
	MedicalHistory     []string `json:"medical_history,omitempty"`
	CurrentMedications []string `json:"current_medications,omitempty"`
	Allergies          []string `json:"allergies,omitempty"`
	LastVetVisit       string   `json:"last_vet_visit,omitempty"`
}

// AgeCategory buckets the pet by species and age. Species without an
// age-based rule map to "unknown", which matches no rule table entry, so age
// modifiers are inert for them.
func (p Pet) AgeCategory() string {
	switch strings.ToLower(p.Species) {
	case "dog":
		switch {
		case p.Age < 0.5:
			return AgePuppy
		case p.Age < 7:
			return AgeAdult
		default:
			return AgeSenior
		}
	case "cat":
		switch {
		case p.Age < 0.5:
			return AgeKitten
		case p.Age < 10:
			return AgeAdult
		default:
			return AgeSenior
		}
	default:
		return AgeUnknown
	}
}

func (p Pet) IsSenior() bool {
	return p.AgeCategory() == AgeSenior
}

// Validate checks the basic constraints a pet must satisfy before diagnosis.
// An unknown species is tolerated; it only disables species rules.
func (p Pet) Validate() error {
	if strings.TrimSpace(p.Species) == "" {
		return &ValidationError{Field: "species", Reason: "must not be empty"}
	}
	if p.Age < 0 {
		return &ValidationError{Field: "age", Reason: "must not be negative"}
	}
	return nil
}

// ValidationError reports a pet attribute that fails its basic constraints.
// The diagnose call fails atomically; no partial result is produced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid pet: %s %s", e.Field, e.Reason)
}

// Session carries one pet, its reported symptoms and per-symptom details
// through the pipeline. Sessions are never shared across calls.
type Session struct {
	Pet              Pet            `json:"pet"`
	ReportedSymptoms []string       `json:"reported_symptoms"`
	SymptomDetails   map[string]any `json:"symptom_details,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	SessionID        string         `json:"session_id"`
}

// NewSession creates a session with a fresh id and the current UTC timestamp.
func NewSession(pet Pet, symptoms []string, details map[string]any) Session {
	return Session{
		Pet:              pet,
		ReportedSymptoms: symptoms,
		SymptomDetails:   details,
		Timestamp:        time.Now().UTC(),
		SessionID:        uuid.New().String(),
	}
}
