package knowledge

// Symptom is a single observable sign an owner can report.
type Symptom struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	SeverityLevels []string `json:"severity_levels"`
	Description    string   `json:"description"`
	CommonPets     []string `json:"common_pets"`
}

// Emergency levels a condition can declare.
const (
	EmergencyLow      = "low"
	EmergencyMedium   = "medium"
	EmergencyHigh     = "high"
	EmergencyCritical = "critical"
)

// Condition is a health condition described by the symptoms that must be
// present, symptoms that strengthen the match, and symptoms that rule it out.
type Condition struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	Severity            string   `json:"severity"`
	RequiredSymptoms    []string `json:"required_symptoms"`
	OptionalSymptoms    []string `json:"optional_symptoms"`
	ExclusionSymptoms   []string `json:"exclusion_symptoms"`
	ConfidenceThreshold float64  `json:"confidence_threshold"`
	Description         string   `json:"description"`
	EmergencyLevel      string   `json:"emergency_level"`
}

// Treatment is a care plan for a condition. Several treatments may reference
// the same condition; catalog order decides which one is primary.
type Treatment struct {
	ID             string   `json:"id"`
	ConditionID    string   `json:"condition_id"`
	TreatmentType  string   `json:"treatment_type"` // home_care, vet_visit, emergency
	Description    string   `json:"description"`
	Instructions   []string `json:"instructions"`
	Duration       string   `json:"duration"`
	Precautions    []string `json:"precautions"`
	WhenToSeekHelp []string `json:"when_to_seek_help"`
}

// RiskRules holds per-condition confidence multipliers for one species or
// age category.
type RiskRules struct {
	RiskFactors map[string]float64 `json:"risk_factors"`
}

// RuleTable maps species and age categories to their risk rules.
// Read-only after load.
type RuleTable struct {
	Species       map[string]RiskRules `json:"species"`
	AgeCategories map[string]RiskRules `json:"age_categories"`
}
