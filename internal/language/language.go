package language

import "strings"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2 primary
	alt3    string // ISO 639-2 bibliographic alternate (e.g. "fre" vs "fra")
	display string
}

// Blu-ray track tags almost always carry ISO 639-2 codes; this table covers
// the languages that show up on retail discs.
var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"th", "tha", "", "Thai"},
	{"cs", "ces", "cze", "Czech"},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		if e.alt3 != "" {
			byCode[e.alt3] = e
		}
		// Some tools tag tracks with the full name instead of a code.
		byCode[strings.ToLower(e.display)] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	return byCode[code]
}

// Normalize maps any recognized language code or name to its primary ISO
// 639-2 form. Unrecognized codes pass through lowercased so track
// comparisons stay stable.
func Normalize(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if e := lookup(trimmed); e != nil {
		return e.code3
	}
	return trimmed
}

// IsEnglish reports whether the code identifies English in any of its forms.
func IsEnglish(code string) bool {
	return Normalize(code) == "eng"
}

// DisplayName returns a human-readable name for a track language tag.
// Returns "Unknown" for empty input and the uppercased code when unrecognized.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
