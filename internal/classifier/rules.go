package classifier

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"gopkg.in/yaml.v3"
)

// Rules is the read-only keyword/domain table the classifier and tutor
// evaluate against.
type Rules struct {
	PhishingKeywords     []string      `yaml:"phishing_keywords"`
	EmailHighThreshold   int           `yaml:"email_high_threshold"`
	EmailMediumThreshold int           `yaml:"email_medium_threshold"`
	SuspiciousDomains    []string      `yaml:"suspicious_domains"`
	URLMarkers           []string      `yaml:"url_markers"` // matched case-sensitively
	DemoPorts            []PortService `yaml:"demo_ports"`
	PortMediumThreshold  int           `yaml:"port_medium_threshold"`
	Responses            []Response    `yaml:"responses"` // first match wins
	Fallbacks            []string      `yaml:"fallbacks"`
}

// PortService names the service reported for a demonstration open port.
type PortService struct {
	Port    int    `yaml:"port"`
	Service string `yaml:"service"`
}

// Response is a canned tutor answer triggered by a keyword.
type Response struct {
	Keyword string `yaml:"keyword"`
	Answer  string `yaml:"answer"`
}

// DefaultRules returns the built-in table.
func DefaultRules() Rules {
	return Rules{
		PhishingKeywords: []string{
			"urgent", "verify account", "click here", "suspended", "prize", "winner", "bitcoin",
		},
		EmailHighThreshold:   3,
		EmailMediumThreshold: 1,
		SuspiciousDomains: []string{
			"bit.ly", "tinyurl.com", "paypal-security.com", "bank-verification.net",
		},
		URLMarkers: []string{"phishing", "scam"},
		DemoPorts: []PortService{
			{Port: 22, Service: "SSH"},
			{Port: 80, Service: "HTTP"},
			{Port: 443, Service: "HTTPS"},
			{Port: 8080, Service: "HTTP"},
		},
		PortMediumThreshold: 3,
		Responses:           defaultResponses(),
		Fallbacks: []string{
			"That's a great question! Cybersecurity is about protecting systems, networks and data from digital attacks. Try asking about a specific topic like phishing, passwords or malware.",
			"I'm still learning about that topic. Ask me about phishing, password security, malware or safe browsing and I'll explain.",
			"Staying curious is the first step to staying safe online. Name a specific threat and I'll tell you how to defend against it.",
		},
	}
}

// PasswordAnswer is the canned reply for questions mentioning passwords.
const PasswordAnswer = "Strong passwords are long, unique for every account, and mix upper- and lower-case letters, numbers and symbols. " +
	"Use a password manager so you don't have to remember them all, turn on two-factor authentication wherever it is offered, " +
	"and never share a password, even with someone claiming to be from IT support."

func defaultResponses() []Response {
	return []Response{
		// password first so it wins over any other keyword in the message
		{Keyword: "password", Answer: PasswordAnswer},
		{
			Keyword: "phishing",
			Answer: "Phishing is a cybersecurity attack where attackers impersonate legitimate organizations through emails, websites, or messages " +
				"to steal sensitive information like passwords, credit card numbers, or personal data. Always verify the sender and look for " +
				"suspicious links or urgent requests for personal information.",
		},
		{
			Keyword: "ransomware",
			Answer: "Ransomware encrypts your files and demands payment to unlock them. Keep offline backups, patch your software promptly " +
				"and never open unexpected attachments.",
		},
		{
			Keyword: "malware",
			Answer: "Malware is any software written to harm a device or steal data: viruses, worms, trojans, spyware and ransomware. " +
				"Install apps only from trusted sources, keep your system updated and run reputable antivirus software.",
		},
		{
			Keyword: "virus",
			Answer: "A computer virus attaches itself to legitimate files and spreads when they are shared or opened. Scan downloads, " +
				"avoid pirated software and keep your antivirus definitions current.",
		},
		{
			Keyword: "firewall",
			Answer: "A firewall filters network traffic using rules, blocking connections you did not ask for. Keep your operating system's " +
				"firewall enabled, especially on public networks.",
		},
		{
			Keyword: "encryption",
			Answer: "Encryption scrambles data so only someone with the right key can read it. Look for HTTPS in the address bar and " +
				"enable device encryption on phones and laptops.",
		},
		{
			Keyword: "vpn",
			Answer: "A VPN creates an encrypted tunnel between your device and a trusted server, protecting your traffic on untrusted " +
				"networks such as public Wi-Fi. It does not make you anonymous or protect you from phishing.",
		},
		{
			Keyword: "two-factor",
			Answer: "Two-factor authentication asks for a second proof of identity, like a code from an app, in addition to your password. " +
				"Even if your password leaks, an attacker still cannot log in.",
		},
		{
			Keyword: "social engineering",
			Answer: "Social engineering manipulates people rather than computers: fake support calls, pretexting and baiting. " +
				"Slow down, verify identities through a separate channel and never share one-time codes.",
		},
		{
			Keyword: "wifi",
			Answer: "Public Wi-Fi can be monitored by others on the same network. Prefer mobile data or a VPN for banking, and turn off " +
				"automatic connection to open networks.",
		},
	}
}

// LoadRules reads a YAML override. An empty path or missing file yields the
// defaults; fields left empty in the file keep their default values.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration.
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRules(), nil
		}
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}

	return ParseRules(data)
}

// ParseRules decodes YAML rules and merges them over the defaults.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidRules, err)
	}

	applyDefaults(&rules)
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func applyDefaults(r *Rules) {
	def := DefaultRules()
	if len(r.PhishingKeywords) == 0 {
		r.PhishingKeywords = def.PhishingKeywords
	}
	if r.EmailHighThreshold == 0 {
		r.EmailHighThreshold = def.EmailHighThreshold
	}
	if r.EmailMediumThreshold == 0 {
		r.EmailMediumThreshold = def.EmailMediumThreshold
	}
	if len(r.SuspiciousDomains) == 0 {
		r.SuspiciousDomains = def.SuspiciousDomains
	}
	if len(r.URLMarkers) == 0 {
		r.URLMarkers = def.URLMarkers
	}
	if len(r.DemoPorts) == 0 {
		r.DemoPorts = def.DemoPorts
	}
	if r.PortMediumThreshold == 0 {
		r.PortMediumThreshold = def.PortMediumThreshold
	}
	if len(r.Responses) == 0 {
		r.Responses = def.Responses
	}
	if len(r.Fallbacks) == 0 {
		r.Fallbacks = def.Fallbacks
	}
}

// Validate rejects tables the classifier cannot evaluate consistently.
func (r Rules) Validate() error {
	switch {
	case r.EmailMediumThreshold < 1:
		return fmt.Errorf("%w: email_medium_threshold must be at least 1", sharedErrors.ErrInvalidRules)
	case r.EmailHighThreshold < r.EmailMediumThreshold:
		return fmt.Errorf("%w: email_high_threshold (%d) below email_medium_threshold (%d)",
			sharedErrors.ErrInvalidRules, r.EmailHighThreshold, r.EmailMediumThreshold)
	case r.PortMediumThreshold < 0:
		return fmt.Errorf("%w: port_medium_threshold must not be negative", sharedErrors.ErrInvalidRules)
	case len(r.Fallbacks) == 0:
		return fmt.Errorf("%w: at least one fallback reply is required", sharedErrors.ErrInvalidRules)
	}
	for _, resp := range r.Responses {
		if strings.TrimSpace(resp.Keyword) == "" || resp.Answer == "" {
			return fmt.Errorf("%w: responses need a keyword and an answer", sharedErrors.ErrInvalidRules)
		}
	}
	return nil
}
