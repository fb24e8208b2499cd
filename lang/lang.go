package lang

import "sort"

// Auto is the translation code used when a recognition locale has no
// entry in the table. The translation service detects the language itself.
const Auto = "auto"

// Target is the language every segment is translated into.
const Target = "en"

// Default is the recognition locale selected when nothing else is configured.
const Default = "hi-IN"

// Table maps recognition locales to two-letter translation codes.
var Table = map[string]string{
	"en-US": "en",
	"hi-IN": "hi",
	"te-IN": "te",
	"ta-IN": "ta",
	"kn-IN": "kn",
	"ml-IN": "ml",
	"mr-IN": "mr",
	"bn-IN": "bn",
	"gu-IN": "gu",
}

var names = map[string]string{
	"en-US": "English",
	"hi-IN": "Hindi",
	"te-IN": "Telugu",
	"ta-IN": "Tamil",
	"kn-IN": "Kannada",
	"ml-IN": "Malayalam",
	"mr-IN": "Marathi",
	"bn-IN": "Bengali",
	"gu-IN": "Gujarati",
}

type Language struct {
	Tag  string `json:"tag"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Code returns the translation code for tag, or Auto.
func Code(tag string) string {
	if code, ok := Table[tag]; ok {
		return code
	}
	return Auto
}

func Known(tag string) bool {
	_, ok := Table[tag]
	return ok
}

func Name(tag string) string {
	if name, ok := names[tag]; ok {
		return name
	}
	return tag
}

// Supported lists the table sorted by tag, with the default first.
func Supported() []Language {
	langs := make([]Language, 0, len(Table))
	for tag, code := range Table {
		langs = append(langs, Language{Tag: tag, Code: code, Name: Name(tag)})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Tag == Default {
			return true
		}
		if langs[j].Tag == Default {
			return false
		}
		return langs[i].Tag < langs[j].Tag
	})
	return langs
}
