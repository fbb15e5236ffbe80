package classifier

import (
	"math/rand/v2"
	"strings"
)

// Picker returns an index in [0, n). It is the tutor's random source.
type Picker func(n int) int

// Reply is the tutor's answer to one message.
type Reply struct {
	Text    string `json:"text"`
	Keyword string `json:"keyword,omitempty"`
	Matched bool   `json:"matched"`
}

// Tutor answers chat messages from the response table.
type Tutor struct {
	responses []Response
	fallbacks []string
	pick      Picker
}

// NewTutor builds a tutor. A nil pick uses math/rand/v2.
func NewTutor(rules Rules, pick Picker) *Tutor {
	if pick == nil {
		pick = rand.IntN
	}
	responses := make([]Response, 0, len(rules.Responses))
	for _, r := range rules.Responses {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" {
			continue
		}
		responses = append(responses, Response{Keyword: kw, Answer: r.Answer})
	}
	return &Tutor{
		responses: responses,
		fallbacks: append([]string(nil), rules.Fallbacks...),
		pick:      pick,
	}
}

// Reply returns the answer of the first keyword found in the lower-cased
// message, or a fallback chosen by the picker.
func (t *Tutor) Reply(message string) Reply {
	lower := strings.ToLower(message)
	for _, r := range t.responses {
		if strings.Contains(lower, r.Keyword) {
			return Reply{Text: r.Answer, Keyword: r.Keyword, Matched: true}
		}
	}

	if len(t.fallbacks) == 0 {
		return Reply{}
	}
	idx := t.pick(len(t.fallbacks))
	if idx < 0 || idx >= len(t.fallbacks) {
		idx = 0
	}
	return Reply{Text: t.fallbacks[idx]}
}
