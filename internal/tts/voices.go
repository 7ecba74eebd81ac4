package tts

import (
	"strings"
	"sync"
)

// Registry maps language codes to voices. The table is fixed at construction;
// unknown language codes resolve to the default language's voice.
type Registry struct {
	mu          sync.RWMutex
	voices      map[string]*Voice
	defaultLang string
}

// builtinVoices is the stock voice table. Artifact paths follow the piper
// voices repository layout.
var builtinVoices = []*Voice{
	{Language: "en", ModelFile: "en/en_US/lessac/medium/en_US-lessac-medium.onnx", RemoteVoiceID: "sonic-english"},
	{Language: "es", ModelFile: "es/es_ES/davefx/medium/es_ES-davefx-medium.onnx", RemoteVoiceID: "sonic-spanish"},
	{Language: "fr", ModelFile: "fr/fr_FR/siwis/medium/fr_FR-siwis-medium.onnx", RemoteVoiceID: "sonic-french"},
	{Language: "de", ModelFile: "de/de_DE/thorsten/medium/de_DE-thorsten-medium.onnx", RemoteVoiceID: "sonic-german"},
}

// NewRegistry creates a registry seeded with the stock voice table
func NewRegistry(defaultLang string) *Registry {
	r := &Registry{
		voices:      make(map[string]*Voice, len(builtinVoices)),
		defaultLang: defaultLang,
	}
	for _, v := range builtinVoices {
		r.voices[v.Language] = v
	}
	return r
}

// Add registers or replaces a voice
func (r *Registry) Add(v *Voice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices[v.Language] = v
}

// Resolve returns the voice for a language code, falling back to the default
// language for unknown, empty or malformed codes.
func (r *Registry) Resolve(lang string) *Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang = strings.ToLower(strings.TrimSpace(lang))
	if v, ok := r.voices[lang]; ok {
		return v
	}
	// Accept region-qualified codes like "en-US"
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		if v, ok := r.voices[lang[:i]]; ok {
			return v
		}
	}
	return r.voices[r.defaultLang]
}

// Default returns the default language's voice
func (r *Registry) Default() *Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.voices[r.defaultLang]
}

// DefaultLanguage returns the configured default language code
func (r *Registry) DefaultLanguage() string {
	return r.defaultLang
}
