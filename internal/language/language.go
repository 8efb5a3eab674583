package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt     []string // legacy or alternate codes (e.g. "fre", "iw")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", nil, "English", []string{"english"}},
	{"id", "ind", []string{"in"}, "Indonesian", []string{"indonesian", "bahasa"}},
	{"ms", "msa", []string{"may"}, "Malay", []string{"malay"}},
	{"es", "spa", nil, "Spanish", []string{"spanish"}},
	{"fr", "fra", []string{"fre"}, "French", []string{"french"}},
	{"de", "deu", []string{"ger"}, "German", []string{"german"}},
	{"it", "ita", nil, "Italian", []string{"italian"}},
	{"pt", "por", nil, "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", nil, "Japanese", []string{"japanese"}},
	{"ko", "kor", nil, "Korean", []string{"korean"}},
	{"zh", "zho", []string{"chi"}, "Chinese", []string{"chinese"}},
	{"ru", "rus", nil, "Russian", []string{"russian"}},
	{"ar", "ara", nil, "Arabic", []string{"arabic"}},
	{"hi", "hin", nil, "Hindi", []string{"hindi"}},
	{"he", "heb", []string{"iw"}, "Hebrew", []string{"hebrew"}},
	{"nl", "nld", []string{"dut"}, "Dutch", []string{"dutch"}},
	{"pl", "pol", nil, "Polish", []string{"polish"}},
	{"sv", "swe", nil, "Swedish", []string{"swedish"}},
	{"tr", "tur", nil, "Turkish", []string{"turkish"}},
	{"vi", "vie", nil, "Vietnamese", []string{"vietnamese"}},
	{"th", "tha", nil, "Thai", []string{"thai"}},
	{"uk", "ukr", nil, "Ukrainian", []string{"ukrainian"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		for _, alt := range e.alt {
			byCode[alt] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if base := Base(code); base != code {
		return byCode[base]
	}
	return nil
}

// Base returns the lower-cased primary subtag of a language tag ("en-US" -> "en").
func Base(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		return code[:idx]
	}
	return code
}

// ToISO2 converts a recognized language code, regional tag, or word to ISO
// 639-1. Unknown 2-letter primary subtags pass through; anything else yields
// an empty string.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	if base := Base(code); len(base) == 2 {
		return base
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the original code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.TrimSpace(code)
}
