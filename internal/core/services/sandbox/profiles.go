package sandbox

import (
	"fmt"
	"sort"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/domain"
	"github.com/miderror/dev-mentor/internal/static/errs"
)

// ProfileTable maps languages to their immutable run profiles.
// It is resolved once at startup and only read afterwards.
type ProfileTable struct {
	profiles map[domain.Language]domain.LanguageProfile
}

// NewProfileTable builds the table of supported languages from the sandbox configuration
func NewProfileTable(cfg *config.SandboxCfg) *ProfileTable {
	limits := DefaultLimits(cfg)
	return NewProfileTableFrom(
		domain.LanguageProfile{
			Language:  domain.LanguagePython,
			Image:     cfg.PythonImage,
			EntryFile: "main.py",
			Command:   []string{"python", domain.EntryFilePlaceholder},
			Limits:    limits,
		},
		domain.LanguageProfile{
			Language:  domain.LanguageJavaScript,
			Image:     cfg.NodeImage,
			EntryFile: "index.js",
			Command:   []string{"node", domain.EntryFilePlaceholder},
			Limits:    limits,
		},
	)
}

// NewProfileTableFrom builds a table from explicit profiles
func NewProfileTableFrom(profiles ...domain.LanguageProfile) *ProfileTable {
	t := &ProfileTable{profiles: make(map[domain.Language]domain.LanguageProfile, len(profiles))}
	for _, p := range profiles {
		p.Command = append([]string(nil), p.Command...)
		t.profiles[p.Language] = p
	}
	return t
}

// DefaultLimits are the ceilings applied when a request does not override them
func DefaultLimits(cfg *config.SandboxCfg) domain.Limits {
	return domain.Limits{
		MemoryBytes: cfg.MemoryBytes,
		CPUShares:   cfg.CPUShares,
		PidsLimit:   cfg.PidsLimit,
		Timeout:     cfg.Timeout,
	}
}

// Lookup returns the profile for a language
func (t *ProfileTable) Lookup(lang domain.Language) (domain.LanguageProfile, error) {
	p, ok := t.profiles[lang]
	if !ok {
		return domain.LanguageProfile{}, fmt.Errorf("%w: %q", errs.ErrUnsupportedLanguage, lang)
	}
	return p, nil
}

// List returns all profiles ordered by language
func (t *ProfileTable) List() []domain.LanguageProfile {
	out := make([]domain.LanguageProfile, 0, len(t.profiles))
	for _, p := range t.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

// Images returns the distinct images used by the profiles
func (t *ProfileTable) Images() []string {
	seen := make(map[string]bool)
	images := make([]string, 0, len(t.profiles))
	for _, p := range t.profiles {
		if !seen[p.Image] {
			seen[p.Image] = true
			images = append(images, p.Image)
		}
	}
	sort.Strings(images)
	return images
}
