package domain

import "strings"

// Language identifies a supported runtime
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
)

// EntryFilePlaceholder is substituted with the profile's entry filename in command templates.
const EntryFilePlaceholder = "{file}"

// KnownLanguages lists every language tag a profile may be configured for.
var KnownLanguages = []Language{LanguagePython, LanguageJavaScript}

// ParseLanguage maps a raw tag onto a known language.
func ParseLanguage(raw string) (Language, bool) {
	tag := Language(strings.ToLower(strings.TrimSpace(raw)))
	for _, l := range KnownLanguages {
		if l == tag {
			return l, true
		}
	}
	return "", false
}

// LanguageProfile describes how to run code for one language
type LanguageProfile struct {
	Language  Language `json:"language"`
	Image     string   `json:"image"`
	EntryFile string   `json:"entryFile"`
	Command   []string `json:"command"`
	Limits    Limits   `json:"limits"`
}

// Cmd renders the command template into an argv; no shell is involved.
func (p LanguageProfile) Cmd() []string {
	argv := make([]string, len(p.Command))
	for i, part := range p.Command {
		argv[i] = strings.ReplaceAll(part, EntryFilePlaceholder, p.EntryFile)
	}
	return argv
}
