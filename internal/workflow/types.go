package workflow

// Other is the sentinel value a stage resolves to when no valid option could
// be obtained from the oracle.
const Other = "Other"

// Stage names one step of the narrowing state machine.
type Stage string

// Workflow stages in execution order. StageDescribe precedes narrowing and
// only appears in errors.
const (
	StageDescribe    Stage = "describe"
	StageCategory    Stage = "category"
	StageSubcategory Stage = "subcategory"
	StageGrade       Stage = "grade"
)

// Status is the final disposition of one material's workflow run.
type Status string

// Run statuses.
const (
	StatusResolved  Status = "resolved"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Request carries the inputs shared by every narrowing stage. Description is
// fetched once per material.
type Request struct {
	Material    string `json:"material"`
	Description string `json:"description"`
}

// StageTrace records how a single stage resolved.
type StageTrace struct {
	Stage       Stage  `json:"stage"`
	Options     int    `json:"options"`
	Answer      string `json:"answer,omitempty"`
	Value       string `json:"value"`
	Corrections int    `json:"corrections"`
	Corrected   bool   `json:"corrected"`
	Fallback    bool   `json:"fallback"`
	Skipped     bool   `json:"skipped"`
}

// Result is the classification of one material. Each level holds either a
// taxonomy member or Other.
type Result struct {
	Material    string       `json:"material"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory"`
	Grade       string       `json:"grade"`
	Trace       []StageTrace `json:"trace"`
}

// Corrections returns the total number of corrector oracle calls across stages.
func (r *Result) Corrections() int {
	n := 0
	for _, t := range r.Trace {
		n += t.Corrections
	}
	return n
}

// Fallbacks returns the number of stages that resolved to Other.
func (r *Result) Fallbacks() int {
	n := 0
	for _, t := range r.Trace {
		if t.Fallback || t.Skipped {
			n++
		}
	}
	return n
}

// Outcome is the per-material record produced by Batch.
type Outcome struct {
	Material string  `json:"material"`
	Status   Status  `json:"status"`
	Result   *Result `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
	Err      error   `json:"-"`
}
