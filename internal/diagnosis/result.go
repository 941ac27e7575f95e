package diagnosis

import "github.com/agenthands/pawsense/internal/knowledge"

// ConditionScore is one ranked diagnosis candidate.
type ConditionScore struct {
	Condition      knowledge.Condition `json:"condition"`
	Confidence     float64             `json:"confidence"`
	BaseConfidence float64             `json:"base_confidence"`
	RiskMultiplier float64             `json:"risk_multiplier"`
}

// Recommendations carries the treatment guidance for the top-ranked
// condition, or the generic monitoring advice when nothing ranked.
type Recommendations struct {
	// Generic branch (no condition survived thresholding).
	PrimaryAction   string   `json:"primary_action,omitempty"`
	HomeCare        []string `json:"home_care,omitempty"`
	VetConsultation string   `json:"vet_consultation,omitempty"`

	// Diagnosis branch. Confidence stays unconditional: a top condition can
	// legitimately score 0.0 and the field must still serialize.
	PrimaryDiagnosis string   `json:"primary_diagnosis,omitempty"`
	Confidence       float64  `json:"confidence"`
	Severity         string   `json:"severity,omitempty"`
	TreatmentType    string   `json:"treatment_type,omitempty"`
	Description      string   `json:"description,omitempty"`
	Instructions     []string `json:"instructions,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	Precautions      []string `json:"precautions,omitempty"`
	SeekHelpIf       []string `json:"seek_help_if,omitempty"`
}

// Result is the output of one diagnose call. Emergency results carry alerts
// and a single recommendation; normal results carry the ranked conditions
// and guidance. Results are never persisted.
type Result struct {
	Emergency         bool             `json:"emergency"`
	Alerts            []string         `json:"alerts,omitempty"`
	Recommendation    string           `json:"recommendation,omitempty"`
	Confidence        float64          `json:"confidence,omitempty"`
	Conditions        []ConditionScore `json:"conditions"`
	Recommendations   *Recommendations `json:"recommendations,omitempty"`
	PetSpecificNotes  []string         `json:"pet_specific_notes,omitempty"`
	FollowUpQuestions []string         `json:"follow_up_questions,omitempty"`
	SessionID         string           `json:"session_id,omitempty"`
	Timestamp         string           `json:"timestamp,omitempty"`
	Explanation       string           `json:"explanation"`
}
