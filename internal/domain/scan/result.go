package scan

import (
	"fmt"
	"slices"
	"strings"
	"time"

	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"github.com/google/uuid"
)

// Kind selects which rule set classifies an input.
type Kind string

const (
	KindEmail Kind = "email"
	KindURL   Kind = "url"
	KindPort  Kind = "port"
)

// Kinds lists every supported scan kind in display order.
func Kinds() []Kind {
	return []Kind{KindEmail, KindURL, KindPort}
}

// ParseKind maps user input onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Kinds(), k) {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q (must be email, url or port)", sharedErrors.ErrUnknownKind, s)
}

// RiskLevel is the qualitative severity tier of a result.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel accepts the persisted spelling of a risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch r := RiskLevel(s); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidRisk, s)
}

// Status is the verdict of a result. Port scans are always StatusUnknown.
type Status string

const (
	StatusSafe    Status = "Safe"
	StatusRisky   Status = "Risky"
	StatusUnknown Status = "Unknown"
)

// ParseStatus accepts the persisted spelling of a status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSafe, StatusRisky, StatusUnknown:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidState, s)
}

// Result is the immutable outcome of one classification.
type Result struct {
	id        string
	kind      Kind
	input     string
	riskLevel RiskLevel
	status    Status
	timestamp time.Time
	details   []string
}

// NewResult creates a result stamped with a fresh ID and the given time.
func NewResult(kind Kind, input string, risk RiskLevel, status Status, at time.Time, details []string) (*Result, error) {
	if input == "" {
		return nil, sharedErrors.ErrEmptyInput
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	return &Result{
		id:        uuid.NewString(),
		kind:      kind,
		input:     input,
		riskLevel: risk,
		status:    status,
		timestamp: at,
		details:   append([]string(nil), details...),
	}, nil
}

// Reconstruct rebuilds a result read back from an exported report.
func Reconstruct(id string, kind Kind, input string, risk RiskLevel, status Status, at time.Time, details []string) *Result {
	return &Result{
		id:        id,
		kind:      kind,
		input:     input,
		riskLevel: risk,
		status:    status,
		timestamp: at,
		details:   append([]string(nil), details...),
	}
}

// Getters

func (r *Result) ID() string {
	return r.id
}

func (r *Result) Kind() Kind {
	return r.kind
}

// Input returns the stored snippet of the scanned input.
func (r *Result) Input() string {
	return r.input
}

func (r *Result) RiskLevel() RiskLevel {
	return r.riskLevel
}

func (r *Result) Status() Status {
	return r.status
}

func (r *Result) Timestamp() time.Time {
	return r.timestamp
}

// Details returns a copy of the ordered findings.
func (r *Result) Details() []string {
	return append([]string(nil), r.details...)
}
