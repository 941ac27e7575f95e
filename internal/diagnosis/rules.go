package diagnosis

import (
	"fmt"
	"strings"

	"github.com/agenthands/pawsense/internal/knowledge"
)

// Urgency of an emergency symptom.
type Urgency string

const (
	UrgencyNone     Urgency = ""
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// emergencySymptoms is the fixed fast-path table consulted before any
// scoring. It is deliberately independent of Condition.EmergencyLevel: a
// symptom listed here triggers immediately even if no condition references
// it.
var emergencySymptoms = map[string]Urgency{
	"difficulty_breathing": UrgencyCritical,
	"severe_bleeding":      UrgencyCritical,
	"unconscious":          UrgencyCritical,
	"seizures":             UrgencyCritical,
	"severe_trauma":        UrgencyCritical,
	"bloated_abdomen":      UrgencyHigh,
	"persistent_vomiting":  UrgencyHigh,
	"inability_to_urinate": UrgencyHigh,
}

// Condition id markers carrying age and species restrictions. These are a
// naming convention baked into existing data files: renaming a condition id
// silently changes its exclusion behavior, so ids must keep their marker.
const (
	markerAdultOnly  = "adult_only"
	markerYoungOnly  = "young_only"
	markerFelineOnly = "feline_only"
	markerCanineOnly = "canine_only"
)

// speciesExclusions lists, per marker, the species a condition does not
// apply to.
var speciesExclusions = map[string][]string{
	markerFelineOnly: {"dog", "bird", "rabbit"},
	markerCanineOnly: {"cat", "bird", "rabbit"},
}

// RuleProcessor evaluates emergency, risk and exclusion rules against the
// knowledge store. It is stateless; one instance may serve concurrent calls.
type RuleProcessor struct {
	store *knowledge.Store
}

func NewRuleProcessor(store *knowledge.Store) *RuleProcessor {
	return &RuleProcessor{store: store}
}

// CheckEmergency scans the reported symptoms against the fixed emergency
// table. Alerts follow the order symptoms were reported in. The result is an
// emergency when any matched symptom is high or critical urgency.
func (rp *RuleProcessor) CheckEmergency(symptoms []string, pet Pet) (bool, []string) {
	var alerts []string
	maxUrgency := UrgencyNone

	for _, symptom := range symptoms {
		urgency, ok := emergencySymptoms[symptom]
		if !ok {
			continue
		}
		alerts = append(alerts, fmt.Sprintf("URGENT: %s requires immediate veterinary attention", titleCase(symptom)))

		if urgency == UrgencyCritical {
			maxUrgency = UrgencyCritical
		} else if urgency == UrgencyHigh && maxUrgency != UrgencyCritical {
			maxUrgency = UrgencyHigh
		}
	}

	return maxUrgency == UrgencyHigh || maxUrgency == UrgencyCritical, alerts
}

// RiskMultipliers merges the species and age-category risk factors for the
// pet into one condition id -> multiplier map. A condition present in both
// maps combines multiplicatively. Conditions absent from the map default to
// 1.0 at scoring time.
func (rp *RuleProcessor) RiskMultipliers(pet Pet, symptoms []string) map[string]float64 {
	rules := rp.store.Rules()

	multipliers := make(map[string]float64)

	if speciesRules, ok := rules.Species[strings.ToLower(pet.Species)]; ok {
		for conditionID, factor := range speciesRules.RiskFactors {
			multipliers[conditionID] = factor
		}
	}

	if ageRules, ok := rules.AgeCategories[pet.AgeCategory()]; ok {
		for conditionID, factor := range ageRules.RiskFactors {
			if existing, ok := multipliers[conditionID]; ok {
				multipliers[conditionID] = existing * factor
			} else {
				multipliers[conditionID] = factor
			}
		}
	}

	return multipliers
}

// ApplyExclusions drops conditions incompatible with the pet's age or
// species, based on the id marker convention. Relative order is preserved.
func (rp *RuleProcessor) ApplyExclusions(conditions []knowledge.Condition, symptoms []string, pet Pet) []knowledge.Condition {
	species := strings.ToLower(pet.Species)

	var filtered []knowledge.Condition
	for _, c := range conditions {
		if pet.Age < 1 && strings.Contains(c.ID, markerAdultOnly) {
			continue
		}
		if pet.Age > 10 && strings.Contains(c.ID, markerYoungOnly) {
			continue
		}

		excluded := false
		for marker, excludedSpecies := range speciesExclusions {
			if !strings.Contains(c.ID, marker) {
				continue
			}
			for _, sp := range excludedSpecies {
				if species == sp {
					excluded = true
					break
				}
			}
			if excluded {
				break
			}
		}
		if !excluded {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// titleCase turns a snake_case symptom id into a display string, e.g.
// "difficulty_breathing" -> "Difficulty Breathing".
func titleCase(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
