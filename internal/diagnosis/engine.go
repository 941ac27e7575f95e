package diagnosis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/pawsense/internal/knowledge"
)

const emergencyRecommendation = "SEEK IMMEDIATE VETERINARY ATTENTION"

// Engine runs the diagnostic pipeline: emergency gate, candidate retrieval,
// risk derivation, exclusion filtering, scoring, ranking, then
// recommendation, note, question and explanation generation. It never
// mutates the store or the session, so one engine serves concurrent calls.
type Engine struct {
	store *knowledge.Store
	rules *RuleProcessor

	// MaxConditions caps the ranked list; MaxExplained caps how many ranked
	// conditions the explanation covers.
	MaxConditions int
	MaxExplained  int
}

func NewEngine(store *knowledge.Store) *Engine {
	return &Engine{
		store:         store,
		rules:         NewRuleProcessor(store),
		MaxConditions: 3,
		MaxExplained:  2,
	}
}

// Diagnose evaluates one session. The stages run in fixed order; an
// emergency short-circuits before any scoring. The call fails atomically on
// invalid pet attributes, never with a partial result.
func (e *Engine) Diagnose(session Session) (*Result, error) {
	if err := session.Pet.Validate(); err != nil {
		return nil, err
	}

	isEmergency, alerts := e.rules.CheckEmergency(session.ReportedSymptoms, session.Pet)
	if isEmergency {
		result := &Result{
			Emergency:      true,
			Alerts:         alerts,
			Recommendation: emergencyRecommendation,
			Confidence:     1.0,
			Conditions:     []ConditionScore{},
		}
		result.Explanation = e.ExplainReasoning(result)
		return result, nil
	}

	candidates := e.store.CandidateConditions(session.ReportedSymptoms)
	multipliers := e.rules.RiskMultipliers(session.Pet, session.ReportedSymptoms)
	filtered := e.rules.ApplyExclusions(candidates, session.ReportedSymptoms, session.Pet)

	scores := make([]ConditionScore, 0, len(filtered))
	for _, c := range filtered {
		base := e.store.Confidence(c, session.ReportedSymptoms)

		multiplier, ok := multipliers[c.ID]
		if !ok {
			multiplier = 1.0
		}
		adjusted := base * multiplier
		if adjusted > 1.0 {
			adjusted = 1.0
		}

		scores = append(scores, ConditionScore{
			Condition:      c,
			Confidence:     adjusted,
			BaseConfidence: base,
			RiskMultiplier: multiplier,
		})
	}

	// Stable sort: equal confidences keep their post-exclusion order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Confidence > scores[j].Confidence
	})

	probable := make([]ConditionScore, 0, len(scores))
	for _, score := range scores {
		if score.Confidence >= score.Condition.ConfidenceThreshold {
			probable = append(probable, score)
		}
	}
	if len(probable) > e.MaxConditions {
		probable = probable[:e.MaxConditions]
	}

	result := &Result{
		Emergency:         false,
		Conditions:        probable,
		Recommendations:   e.generateRecommendations(probable, session.Pet),
		PetSpecificNotes:  e.petSpecificNotes(session.Pet, session.ReportedSymptoms),
		FollowUpQuestions: e.followUpQuestions(probable),
		SessionID:         session.SessionID,
		Timestamp:         session.Timestamp.Format(time.RFC3339),
	}
	result.Explanation = e.ExplainReasoning(result)
	return result, nil
}

func (e *Engine) generateRecommendations(conditions []ConditionScore, pet Pet) *Recommendations {
	if len(conditions) == 0 {
		return &Recommendations{
			PrimaryAction:   "Monitor symptoms and consult veterinarian if they persist",
			HomeCare:        []string{"Ensure pet is comfortable", "Monitor for changes"},
			VetConsultation: "Recommended if symptoms worsen or persist beyond 24-48 hours",
		}
	}

	top := conditions[0]
	rec := &Recommendations{
		PrimaryDiagnosis: top.Condition.Name,
		Confidence:       top.Confidence,
		Severity:         top.Condition.Severity,
	}

	treatments := e.store.TreatmentsFor(top.Condition.ID)
	if len(treatments) > 0 {
		treatment := treatments[0]
		rec.TreatmentType = treatment.TreatmentType
		rec.Description = treatment.Description
		rec.Instructions = treatment.Instructions
		rec.Duration = treatment.Duration
		rec.Precautions = treatment.Precautions
		rec.SeekHelpIf = treatment.WhenToSeekHelp
	}

	return rec
}

// petSpecificNotes emits monitoring notes in a fixed order: senior, young,
// medical history, current medications.
func (e *Engine) petSpecificNotes(pet Pet, symptoms []string) []string {
	var notes []string

	if pet.IsSenior() {
		notes = append(notes, "Senior pets may require more frequent monitoring and veterinary care.")
	}
	if pet.Age < 1 {
		notes = append(notes, "Young pets can deteriorate quickly - monitor closely for changes.")
	}
	if len(pet.MedicalHistory) > 0 {
		notes = append(notes, "Consider pet's medical history when evaluating symptoms.")
	}
	if len(pet.CurrentMedications) > 0 {
		notes = append(notes, "Current medications may affect symptoms or treatment options.")
	}

	return notes
}

func (e *Engine) followUpQuestions(conditions []ConditionScore) []string {
	if len(conditions) == 0 {
		return []string{
			"How long have the symptoms been present?",
			"Have you noticed any changes in eating or drinking habits?",
			"Has your pet been exposed to any new environments or animals?",
		}
	}

	top := conditions[0].Condition
	return []string{
		fmt.Sprintf("Have you noticed any other symptoms related to %s?", top.Category),
		"When did you first notice these symptoms?",
		"Have the symptoms been getting better, worse, or staying the same?",
	}
}

// ExplainReasoning renders a textual justification of the result, covering
// at most the top MaxExplained conditions.
func (e *Engine) ExplainReasoning(result *Result) string {
	if result.Emergency {
		return "Emergency condition detected based on critical symptoms requiring immediate attention."
	}
	if len(result.Conditions) == 0 {
		return "No specific conditions identified. Symptoms may be minor or require additional information."
	}

	limit := e.MaxExplained
	if limit > len(result.Conditions) {
		limit = len(result.Conditions)
	}

	explanations := make([]string, 0, limit)
	for _, score := range result.Conditions[:limit] {
		explanation := fmt.Sprintf("%s (Confidence: %.1f%%): Matches %d required symptoms",
			score.Condition.Name, score.Confidence*100, len(score.Condition.RequiredSymptoms))
		if score.RiskMultiplier != 1.0 {
			explanation += fmt.Sprintf(" with %.1fx risk adjustment for your pet", score.RiskMultiplier)
		}
		explanations = append(explanations, explanation)
	}

	return strings.Join(explanations, " | ")
}
