package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// LoadError reports a knowledge source that exists but does not match the
// expected shape. The store keeps whatever other sources loaded cleanly.
type LoadError struct {
	Source string
	Index  int
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: entry %d: %s", e.Source, e.Index, e.Reason)
}

// Store holds the immutable symptom, condition and treatment catalogs plus
// the pet rule table. Load it once at startup; afterwards it is read-only and
// safe to share across concurrent diagnoses.
type Store struct {
	dataDir string

	symptoms      []Symptom
	symptomByID   map[string]int
	conditions    []Condition
	conditionByID map[string]int
	treatments    []Treatment
	rules         RuleTable
}

func NewStore(dataDir string) *Store {
	return &Store{
		dataDir:       dataDir,
		symptomByID:   make(map[string]int),
		conditionByID: make(map[string]int),
	}
}

// NewStaticStore builds a store directly from in-memory catalogs, bypassing
// the file loader. Catalog order is preserved.
func NewStaticStore(symptoms []Symptom, conditions []Condition, treatments []Treatment, rules RuleTable) *Store {
	s := NewStore("")
	s.symptoms = symptoms
	s.conditions = conditions
	s.treatments = treatments
	s.rules = rules
	for i, sym := range symptoms {
		s.symptomByID[sym.ID] = i
	}
	for i, c := range conditions {
		s.conditionByID[c.ID] = i
	}
	return s
}

// LoadAll populates the catalogs and rule table from the data directory.
// A missing source file leaves that catalog empty; a source that is present
// but malformed contributes an error. All sources are attempted regardless,
// and the errors are joined.
func (s *Store) LoadAll() error {
	return errors.Join(
		s.loadSymptoms(),
		s.loadConditions(),
		s.loadTreatments(),
		s.loadRules(),
	)
}

// readSource reads one source file. A missing file is tolerated and reported
// via the bool, never the error.
func (s *Store) readSource(name string) ([]byte, bool, error) {
	path := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("knowledge source %s not found, catalog left empty", name)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return data, true, nil
}

func (s *Store) loadSymptoms() error {
	data, ok, err := s.readSource("symptoms.json")
	if err != nil || !ok {
		return err
	}

	var doc struct {
		Symptoms []Symptom `json:"symptoms"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse symptoms.json: %w", err)
	}

	// Validate the whole catalog before committing anything, so a failed
	// source leaves the store untouched rather than half-indexed.
	byID := make(map[string]int, len(doc.Symptoms))
	for i, sym := range doc.Symptoms {
		if sym.ID == "" {
			return &LoadError{Source: "symptoms.json", Index: i, Reason: "missing id"}
		}
		if sym.Name == "" {
			return &LoadError{Source: "symptoms.json", Index: i, Reason: "missing name"}
		}
		byID[sym.ID] = i
	}
	s.symptoms = doc.Symptoms
	s.symptomByID = byID
	return nil
}

func (s *Store) loadConditions() error {
	data, ok, err := s.readSource("conditions.json")
	if err != nil || !ok {
		return err
	}

	var doc struct {
		Conditions []Condition `json:"conditions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse conditions.json: %w", err)
	}

	byID := make(map[string]int, len(doc.Conditions))
	for i, c := range doc.Conditions {
		if c.ID == "" {
			return &LoadError{Source: "conditions.json", Index: i, Reason: "missing id"}
		}
		if c.Name == "" {
			return &LoadError{Source: "conditions.json", Index: i, Reason: "missing name"}
		}
		if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
			return &LoadError{Source: "conditions.json", Index: i, Reason: fmt.Sprintf("confidence_threshold %v outside [0,1]", c.ConfidenceThreshold)}
		}
		switch c.EmergencyLevel {
		case EmergencyLow, EmergencyMedium, EmergencyHigh, EmergencyCritical:
		default:
			return &LoadError{Source: "conditions.json", Index: i, Reason: fmt.Sprintf("unknown emergency_level %q", c.EmergencyLevel)}
		}
		byID[c.ID] = i
	}
	s.conditions = doc.Conditions
	s.conditionByID = byID
	return nil
}

func (s *Store) loadTreatments() error {
	data, ok, err := s.readSource("treatments.json")
	if err != nil || !ok {
		return err
	}

	var doc struct {
		Treatments []Treatment `json:"treatments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse treatments.json: %w", err)
	}

	for i, t := range doc.Treatments {
		if t.ID == "" {
			return &LoadError{Source: "treatments.json", Index: i, Reason: "missing id"}
		}
		if t.ConditionID == "" {
			return &LoadError{Source: "treatments.json", Index: i, Reason: "missing condition_id"}
		}
		// A condition_id with no matching condition is tolerated; the
		// treatment simply never surfaces in a recommendation.
	}
	s.treatments = doc.Treatments
	return nil
}

func (s *Store) loadRules() error {
	data, ok, err := s.readSource("rules.json")
	if err != nil || !ok {
		return err
	}

	var table RuleTable
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("parse rules.json: %w", err)
	}
	s.rules = table
	return nil
}

// Symptoms returns the full symptom catalog in source order.
func (s *Store) Symptoms() []Symptom { return s.symptoms }

// Conditions returns the full condition catalog in source order.
func (s *Store) Conditions() []Condition { return s.conditions }

// Rules returns the pet rule table.
func (s *Store) Rules() RuleTable { return s.rules }

// SymptomsByCategory returns all symptoms in a category, source order preserved.
func (s *Store) SymptomsByCategory(category string) []Symptom {
	var out []Symptom
	for _, sym := range s.symptoms {
		if sym.Category == category {
			out = append(out, sym)
		}
	}
	return out
}

// SymptomCategories returns the distinct symptom categories in order of first
// appearance.
func (s *Store) SymptomCategories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, sym := range s.symptoms {
		if !seen[sym.Category] {
			seen[sym.Category] = true
			out = append(out, sym.Category)
		}
	}
	return out
}

// CandidateConditions returns, in catalog order, every condition whose
// required symptoms are all present and none of whose exclusion symptoms is
// present. A condition with no required symptoms qualifies vacuously.
func (s *Store) CandidateConditions(symptomIDs []string) []Condition {
	present := symptomSet(symptomIDs)

	var out []Condition
	for _, c := range s.conditions {
		requiredMatch := true
		for _, req := range c.RequiredSymptoms {
			if !present[req] {
				requiredMatch = false
				break
			}
		}
		if !requiredMatch {
			continue
		}

		excluded := false
		for _, excl := range c.ExclusionSymptoms {
			if present[excl] {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, c)
		}
	}
	return out
}

// Confidence scores how well the present symptoms match a condition, in [0,1].
// Required matches count double weight; a condition declaring no symptoms at
// all scores 0.
func (s *Store) Confidence(c Condition, symptomIDs []string) float64 {
	if len(c.RequiredSymptoms)+len(c.OptionalSymptoms) == 0 {
		return 0.0
	}

	present := symptomSet(symptomIDs)
	score := 0
	for _, req := range c.RequiredSymptoms {
		if present[req] {
			score += 2
		}
	}
	for _, opt := range c.OptionalSymptoms {
		if present[opt] {
			score++
		}
	}

	maxScore := len(c.RequiredSymptoms)*2 + len(c.OptionalSymptoms)
	confidence := float64(score) / float64(maxScore)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// TreatmentsFor returns all treatments for a condition, catalog order
// preserved.
func (s *Store) TreatmentsFor(conditionID string) []Treatment {
	var out []Treatment
	for _, t := range s.treatments {
		if t.ConditionID == conditionID {
			out = append(out, t)
		}
	}
	return out
}

// Symptom looks up one symptom by id.
func (s *Store) Symptom(id string) (Symptom, bool) {
	i, ok := s.symptomByID[id]
	if !ok {
		return Symptom{}, false
	}
	return s.symptoms[i], true
}

// Condition looks up one condition by id.
func (s *Store) Condition(id string) (Condition, bool) {
	i, ok := s.conditionByID[id]
	if !ok {
		return Condition{}, false
	}
	return s.conditions[i], true
}

func symptomSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
