// Package oracle defines the text-understanding collaborators the
// classification workflow consults, and the production adapter that backs
// them with a hosted language model.
//
// Oracles are unreliable by contract: a Classifier answer SHOULD name one of
// the offered options but may paraphrase, decorate, or invent. Callers
// validate every answer.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/assay/pkg/formatting"
)

var (
	// ErrUnavailable indicates the oracle did not answer: transport failure,
	// provider error, rate-limit wait aborted, timeout, or cancellation.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrMalformedResponse indicates the oracle answered with nothing usable:
	// an empty reply or a JSON object without an option.
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// Classifier picks one option for a subject.
type Classifier interface {
	// Classify asks which of options best fits subject, given a free-text detail such as a description.
	Classify(ctx context.Context, subject, detail string, options []string) (string, error)
	// Normalize asks the oracle to rewrite a previous answer as one of options.
	Normalize(ctx context.Context, answer string, options []string) (string, error)
}

// Describer produces a short free-text description of a material.
type Describer interface {
	Describe(ctx context.Context, material string) (string, error)
}

// Oracle is a single backend serving both collaborator roles.
type Oracle interface {
	Classifier
	Describer
}

type optionResponse struct {
	Option string `json:"option"`
}

// candidate extracts the answer from an option reply. A JSON object yields
// its option field; any other text is returned trimmed so the caller can
// validate or correct it.
func candidate(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	parsed, err := formatting.Parse[optionResponse](text)
	if err != nil {
		return text, nil
	}

	option := strings.TrimSpace(parsed.Option)
	if option == "" {
		return "", fmt.Errorf("%w: reply has no option: %q", ErrMalformedResponse, text)
	}
	return option, nil
}
