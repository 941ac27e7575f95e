package server

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/pawsense/internal/config"
	"github.com/agenthands/pawsense/internal/diagnosis"
	"github.com/agenthands/pawsense/internal/knowledge"
)

type Server struct {
	Store  *knowledge.Store
	Engine *diagnosis.Engine
}

// NewServer loads the knowledge base and builds the diagnosis engine.
// Config values may be overridden by DATA_DIR and PORT env vars (the PORT
// override is applied by the caller when binding). A knowledge source that
// fails to load is reported and skipped; the server runs on whatever
// catalogs loaded cleanly.
func NewServer(cfg *config.Config) *Server {
	dataDir := cfg.Knowledge.DataDir
	if envDir := os.Getenv("DATA_DIR"); envDir != "" {
		dataDir = envDir
	}

	store := knowledge.NewStore(dataDir)
	if err := store.LoadAll(); err != nil {
		log.Printf("knowledge base loaded with errors: %v", err)
	}
	log.Printf("knowledge base loaded: %d symptoms, %d conditions", len(store.Symptoms()), len(store.Conditions()))

	engine := diagnosis.NewEngine(store)
	if cfg.Diagnosis.MaxConditions > 0 {
		engine.MaxConditions = cfg.Diagnosis.MaxConditions
	}
	if cfg.Diagnosis.MaxExplained > 0 {
		engine.MaxExplained = cfg.Diagnosis.MaxExplained
	}

	return &Server{
		Store:  store,
		Engine: engine,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/diagnose", s.Diagnose)
	r.GET("/api/symptoms", s.ListSymptoms)
	r.GET("/api/symptoms/categories", s.ListSymptomCategories)
	r.GET("/api/conditions", s.ListConditions)

	return r
}

type DiagnoseRequest struct {
	Name               string         `json:"name"`
	Species            string         `json:"species" binding:"required"`
	Breed              string         `json:"breed"`
	Age                float64        `json:"age" binding:"gte=0"`
	Weight             float64        `json:"weight"`
	Gender             string         `json:"gender"`
	MedicalHistory     []string       `json:"medical_history"`
	CurrentMedications []string       `json:"current_medications"`
	Allergies          []string       `json:"allergies"`
	LastVetVisit       string         `json:"last_vet_visit"`
	Symptoms           []string       `json:"symptoms"`
	SymptomDetails     map[string]any `json:"symptom_details"`
}

func (s *Server) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	pet := diagnosis.Pet{
		Name:               req.Name,
		Species:            strings.ToLower(req.Species),
		Breed:              req.Breed,
		Age:                req.Age,
		Weight:             req.Weight,
		Gender:             req.Gender,
		MedicalHistory:     req.MedicalHistory,
		CurrentMedications: req.CurrentMedications,
		Allergies:          req.Allergies,
		LastVetVisit:       req.LastVetVisit,
	}

	session := diagnosis.NewSession(pet, req.Symptoms, req.SymptomDetails)

	result, err := s.Engine.Diagnose(session)
	if err != nil {
		var verr *diagnosis.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		log.Printf("Diagnosis failed for session %s: %v", session.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Diagnosis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"symptoms":   len(s.Store.Symptoms()),
		"conditions": len(s.Store.Conditions()),
	})
}

func (s *Server) ListSymptoms(c *gin.Context) {
	symptoms := make([]gin.H, 0, len(s.Store.Symptoms()))
	for _, sym := range s.Store.Symptoms() {
		symptoms = append(symptoms, gin.H{
			"id":              sym.ID,
			"name":            sym.Name,
			"category":        sym.Category,
			"description":     sym.Description,
			"severity_levels": sym.SeverityLevels,
		})
	}
	c.JSON(http.StatusOK, gin.H{"symptoms": symptoms})
}

func (s *Server) ListSymptomCategories(c *gin.Context) {
	categories := make([]gin.H, 0)
	for _, category := range s.Store.SymptomCategories() {
		grouped := make([]gin.H, 0)
		for _, sym := range s.Store.SymptomsByCategory(category) {
			grouped = append(grouped, gin.H{
				"id":   sym.ID,
				"name": sym.Name,
			})
		}
		categories = append(categories, gin.H{
			"category": category,
			"symptoms": grouped,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) ListConditions(c *gin.Context) {
	conditions := make([]gin.H, 0, len(s.Store.Conditions()))
	for _, cond := range s.Store.Conditions() {
		conditions = append(conditions, gin.H{
			"id":          cond.ID,
			"name":        cond.Name,
			"category":    cond.Category,
			"description": cond.Description,
			"severity":    cond.Severity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"conditions": conditions})
}
