package classifier

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
)

// Verdict is the outcome of evaluating one input against the rules.
type Verdict struct {
	Risk    scan.RiskLevel
	Status  scan.Status
	Details []string
	Matched []string
}

// Classifier applies the keyword heuristics for each scan kind. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules    Rules
	keywords []string
	domains  []string
	now      func() time.Time
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a classifier over rules. Keywords and domains are lower-cased
// and de-duplicated so each counts at most once.
func New(rules Rules, opts ...Option) *Classifier {
	c := &Classifier{
		rules:    rules,
		keywords: normalizeTerms(rules.PhishingKeywords),
		domains:  normalizeTerms(rules.SuspiciousDomains),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now reads the clock results are stamped with.
func (c *Classifier) Now() time.Time {
	return c.now()
}

// Classify evaluates text for the given kind and returns a new result.
// Callers must not pass blank input; it is rejected with ErrEmptyInput.
func (c *Classifier) Classify(kind scan.Kind, text string) (*scan.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, sharedErrors.ErrEmptyInput
	}

	var (
		verdict Verdict
		snippet = text
	)
	switch kind {
	case scan.KindEmail:
		verdict = c.EvaluateEmail(text)
		snippet = truncateRunes(text, consts.EmailSnippetLimit)
	case scan.KindURL:
		verdict = c.EvaluateURL(text)
	case scan.KindPort:
		verdict = c.EvaluatePort(text)
	default:
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownKind, kind)
	}

	return scan.NewResult(kind, snippet, verdict.Risk, verdict.Status, c.now(), verdict.Details)
}

// EvaluateEmail counts distinct phishing keywords, case-insensitively.
// The "@" and "http" notes are informational and never affect the score.
func (c *Classifier) EvaluateEmail(text string) Verdict {
	lower := strings.ToLower(text)

	var matched []string
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	n := len(matched)

	v := Verdict{Risk: scan.RiskLow, Status: scan.StatusSafe, Matched: matched}
	switch {
	case n >= c.rules.EmailHighThreshold:
		v.Risk = scan.RiskHigh
	case n >= c.rules.EmailMediumThreshold:
		v.Risk = scan.RiskMedium
	}
	if v.Risk != scan.RiskLow {
		v.Status = scan.StatusRisky
	}

	if n > 0 {
		v.Details = append(v.Details, fmt.Sprintf("Found %d suspicious keywords", n))
	}
	if strings.Contains(text, "@") {
		v.Details = append(v.Details, "Email format detected")
	}
	if strings.Contains(text, "http") {
		v.Details = append(v.Details, "Contains external links")
	}
	return v
}

// EvaluateURL flags the input when it contains a suspicious domain
// (case-insensitive) or a URL marker (case-sensitive). There is no
// Medium tier.
func (c *Classifier) EvaluateURL(text string) Verdict {
	lower := strings.ToLower(text)

	var matched []string
	for _, d := range c.domains {
		if strings.Contains(lower, d) {
			matched = append(matched, d)
		}
	}
	for _, m := range c.rules.URLMarkers {
		if m != "" && strings.Contains(text, m) {
			matched = append(matched, m)
		}
	}

	if len(matched) == 0 {
		return Verdict{
			Risk:    scan.RiskLow,
			Status:  scan.StatusSafe,
			Details: []string{"Domain appears legitimate"},
		}
	}
	return Verdict{
		Risk:    scan.RiskHigh,
		Status:  scan.StatusRisky,
		Details: []string{"Suspicious domain detected", "Potential phishing site"},
		Matched: matched,
	}
}

// EvaluatePort reports the fixed demonstration port set whatever the
// address. Status stays Unknown at every risk level.
func (c *Classifier) EvaluatePort(_ string) Verdict {
	ports := make([]string, 0, len(c.rules.DemoPorts))
	var services []string
	seen := map[string]bool{}
	for _, p := range c.rules.DemoPorts {
		ports = append(ports, strconv.Itoa(p.Port))
		if p.Service != "" && !seen[p.Service] {
			seen[p.Service] = true
			services = append(services, p.Service)
		}
	}

	v := Verdict{Risk: scan.RiskLow, Status: scan.StatusUnknown, Matched: ports}
	if len(ports) > c.rules.PortMediumThreshold {
		v.Risk = scan.RiskMedium
	}
	v.Details = append(v.Details, "Open ports: "+strings.Join(ports, ", "))
	if len(services) > 0 {
		v.Details = append(v.Details, strings.Join(services, ", ")+" services detected")
	}
	return v
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := map[string]bool{}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
