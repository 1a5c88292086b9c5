package classifications

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/query"
	"github.com/JaimeStill/assay/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("material", "Material").
	Project("description", "Description").
	Project("category", "Category").
	Project("subcategory", "Subcategory").
	Project("grade", "Grade").
	Project("corrections", "Corrections").
	Project("fallbacks", "Fallbacks").
	Project("trace", "Trace").
	Project("model_name", "ModelName").
	Project("classified_at", "ClassifiedAt")

var defaultSort = query.SortField{
	Field:      "ClassifiedAt",
	Descending: true,
}

const returning = `RETURNING id, material, description, category, subcategory, grade,
		corrections, fallbacks, trace, model_name, classified_at`

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored. Category, Subcategory, and Grade match exactly;
// Material matches as a case-insensitive substring.
type Filters struct {
	Material    *string `json:"material,omitempty"`
	Category    *string `json:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty"`
	Grade       *string `json:"grade,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Material", f.Material).
		WhereEquals("Category", f.Category).
		WhereEquals("Subcategory", f.Subcategory).
		WhereEquals("Grade", f.Grade)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m := values.Get("material"); m != "" {
		f.Material = &m
	}

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if s := values.Get("subcategory"); s != "" {
		f.Subcategory = &s
	}

	if g := values.Get("grade"); g != "" {
		f.Grade = &g
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	var traceRaw []byte

	err := s.Scan(
		&c.ID,
		&c.Material,
		&c.Description,
		&c.Category,
		&c.Subcategory,
		&c.Grade,
		&c.Corrections,
		&c.Fallbacks,
		&traceRaw,
		&c.ModelName,
		&c.ClassifiedAt,
	)

	if err != nil {
		return c, err
	}

	if len(traceRaw) > 0 {
		if err := json.Unmarshal(traceRaw, &c.Trace); err != nil {
			return c, fmt.Errorf("unmarshal trace: %w", err)
		}
	}

	if c.Trace == nil {
		c.Trace = []workflow.StageTrace{}
	}

	return c, nil
}
