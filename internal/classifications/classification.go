// Package classifications records material classifications produced by the
// workflow engine. It provides types, data access, and the HTTP handler for
// classifying materials, querying stored results, and removing them.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/assay/internal/workflow"
)

// Classification is a stored workflow result for one material.
// It mirrors the classifications table with the stage trace kept as JSON.
type Classification struct {
	ID           uuid.UUID             `json:"id"`
	Material     string                `json:"material"`
	Description  string                `json:"description"`
	Category     string                `json:"category"`
	Subcategory  string                `json:"subcategory"`
	Grade        string                `json:"grade"`
	Corrections  int                   `json:"corrections"`
	Fallbacks    int                   `json:"fallbacks"`
	Trace        []workflow.StageTrace `json:"trace"`
	ModelName    string                `json:"model_name"`
	ClassifiedAt time.Time             `json:"classified_at"`
}

// ClassifyCommand carries a single material to classify.
type ClassifyCommand struct {
	Material string `json:"material"`
}

// BatchCommand carries the materials for a batch classification.
type BatchCommand struct {
	Materials []string `json:"materials"`
}

// BatchOutcome reports one material of a batch. Classification is set only
// when the material resolved and was recorded.
type BatchOutcome struct {
	Material       string          `json:"material"`
	Status         workflow.Status `json:"status"`
	Classification *Classification `json:"classification,omitempty"`
	Error          string          `json:"error,omitempty"`
}
