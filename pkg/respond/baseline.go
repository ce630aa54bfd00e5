package respond

// Built-in crisis resources served when no catalog is configured or the
// configured one is unreachable. Deliberately small: a regional helpline set
// for Nepal and a global directory entry.

var baselineEN = []Resource{
	{
		Language:     "en",
		Region:       "NP",
		Type:         "hotline",
		Title:        "National Suicide Prevention Helpline",
		Description:  "Free and confidential support for people in distress, available across Nepal.",
		Contact:      "1166",
		Availability: "24/7",
		DisplayOrder: 1,
	},
	{
		Language:     "en",
		Region:       "NP",
		Type:         "hotline",
		Title:        "TPO Nepal Crisis Hotline",
		Description:  "Psychosocial counselling and crisis support by trained counsellors.",
		Contact:      "1660-010-2005",
		Availability: "8:00-18:00",
		DisplayOrder: 2,
	},
	{
		Language:     "en",
		Region:       "",
		Type:         "directory",
		Title:        "Find a Helpline",
		Description:  "International directory of verified crisis helplines by country.",
		Contact:      "https://findahelpline.com",
		Availability: "24/7",
		DisplayOrder: 10,
	},
}

var baselineNE = []Resource{
	{
		Language:     "ne",
		Region:       "NP",
		Type:         "hotline",
		Title:        "राष्ट्रिय आत्महत्या रोकथाम हेल्पलाइन",
		Description:  "संकटमा परेका व्यक्तिहरूका लागि निःशुल्क र गोप्य सहयोग, नेपालभर उपलब्ध।",
		Contact:      "1166",
		Availability: "24/7",
		DisplayOrder: 1,
	},
	{
		Language:     "ne",
		Region:       "NP",
		Type:         "hotline",
		Title:        "टिपिओ नेपाल संकट हटलाइन",
		Description:  "तालिमप्राप्त परामर्शदाताद्वारा मनोसामाजिक परामर्श र संकट सहयोग।",
		Contact:      "1660-010-2005",
		Availability: "8:00-18:00",
		DisplayOrder: 2,
	},
}

// baselineResources returns the built-in set for a matched base language
// code, falling back to English.
func baselineResources(langCode string) []Resource {
	switch langCode {
	case "ne":
		return baselineNE
	default:
		return baselineEN
	}
}
