package progress

// Track groups lesson topics for one class or grade.
type Track struct {
	ID     string   `json:"id" yaml:"id"`
	Topics []string `json:"topics" yaml:"topics"`
}

// HasTopic reports whether topic belongs to the track.
func (t Track) HasTopic(topic string) bool {
	for _, candidate := range t.Topics {
		if candidate == topic {
			return true
		}
	}
	return false
}

// Curriculum is the ordered list of tracks.
type Curriculum []Track

// DefaultCurriculum returns the built-in lesson plan.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		{ID: "8", Topics: []string{"Introduction to Internet Safety", "Password Security", "Social Media Safety"}},
		{ID: "9", Topics: []string{"Malware Basics", "Phishing Awareness", "Safe Browsing"}},
		{ID: "10", Topics: []string{"Digital Privacy", "Data Protection", "Cyber Bullying"}},
		{ID: "11", Topics: []string{"Advanced Threats", "Network Security", "Encryption Basics"}},
		{ID: "12", Topics: []string{"Incident Response", "Risk Assessment", "Legal Aspects"}},
		{ID: "+2", Topics: []string{"Penetration Testing", "Forensics", "Advanced Cryptography"}},
		{ID: "College", Topics: []string{"Enterprise Security", "Threat Intelligence", "Security Architecture"}},
	}
}

// Lookup finds a track by ID.
func (c Curriculum) Lookup(id string) (Track, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// IDs returns the track IDs in order.
func (c Curriculum) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, t := range c {
		ids = append(ids, t.ID)
	}
	return ids
}
