// Package i18n holds the bilingual display strings and picks a language
// for a user-supplied tag.
package i18n

import (
	"golang.org/x/text/language"
)

// Lang is a supported display language.
type Lang string

const (
	English Lang = "en"
	Nepali  Lang = "ne"
)

// Label keys.
const (
	Title         = "title"
	Slogan        = "slogan"
	LearnerButton = "learnerButton"
	UserButton    = "userButton"
	LearnerDesc   = "learnerDesc"
	UserDesc      = "userDesc"
	About         = "about"
	Contact       = "contact"
	Offline       = "offline"
	SwitchTo      = "switchTo"
)

var labels = map[Lang]map[string]string{
	English: {
		Title:         "CyberShikshaX",
		Slogan:        "Educate. Detect. Defend.",
		LearnerButton: "I'm a Learner",
		UserButton:    "I'm a User",
		LearnerDesc:   "Master cybersecurity fundamentals through interactive lessons and quizzes",
		UserDesc:      "Access powerful security tools for real-world threat detection",
		About:         "About",
		Contact:       "Contact",
		Offline:       "Offline Mode",
		SwitchTo:      "नेपाली",
	},
	Nepali: {
		Title:         "साइबर शिक्षा X",
		Slogan:        "शिक्षा दिनुहोस्। पत्ता लगाउनुहोस्। रक्षा गर्नुहोस्।",
		LearnerButton: "म एक विद्यार्थी हुँ",
		UserButton:    "म एक प्रयोगकर्ता हुँ",
		LearnerDesc:   "अन्तरक्रियात्मक पाठ र प्रश्नोत्तरी मार्फत साइबर सुरक्षाको आधारभूत कुराहरू सिक्नुहोस्",
		UserDesc:      "वास्तविक संसारको खतरा पत्ता लगाउनका लागि शक्तिशाली सुरक्षा उपकरणहरू पहुँच गर्नुहोस्",
		About:         "बारेमा",
		Contact:       "सम्पर्क",
		Offline:       "अफलाइन मोड",
		SwitchTo:      "English",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Nepali})

// Match negotiates a BCP-47 tag or Accept-Language value down to a
// supported language. Anything unrecognized resolves to English.
func Match(tag string) Lang {
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	if idx == 1 {
		return Nepali
	}
	return English
}

// Toggle returns the other language.
func Toggle(l Lang) Lang {
	if l == Nepali {
		return English
	}
	return Nepali
}

// Label returns the string for key, falling back to English and then to
// the key itself.
func Label(l Lang, key string) string {
	if v, ok := labels[l][key]; ok {
		return v
	}
	if v, ok := labels[English][key]; ok {
		return v
	}
	return key
}

// Table returns a copy of every label for l.
func Table(l Lang) map[string]string {
	src, ok := labels[l]
	if !ok {
		src = labels[English]
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
