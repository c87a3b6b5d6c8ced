package mapping

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// logger is the package logger; defaults to slog.Default so callers that
// configure slog globally get registry messages for free.
var logger = slog.Default()

// fileFormat is the on-disk schema. Keys inside a mappings section are
// "channel:id" strings ("channel" alone for pitch bend), kept string-based
// for compatibility with existing mappings files.
type fileFormat struct {
	Mappings map[Source]map[string]string `json:"mappings"`
	Phrases  map[string]Phrase            `json:"phrases"`
}

// encodeKey renders a binding key for the file.
func encodeKey(src Source, k Key) string {
	if src == SourcePitchBend {
		return strconv.Itoa(int(k.Channel))
	}
	return fmt.Sprintf("%d:%d", k.Channel, k.ID)
}

// decodeKey parses a file key back into a Key. Malformed entries are
// skipped by the caller rather than failing the whole load.
func decodeKey(src Source, s string) (Key, bool) {
	if src == SourcePitchBend {
		ch, err := strconv.Atoi(s)
		if err != nil || ch < 0 || ch > 15 {
			return Key{}, false
		}
		return Key{Channel: uint8(ch)}, true
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Key{}, false
	}
	ch, err1 := strconv.Atoi(parts[0])
	id, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || ch < 0 || ch > 15 || id < 0 || id > 127 {
		return Key{}, false
	}
	return Key{Channel: uint8(ch), ID: uint8(id)}, true
}

// Load replaces the in-memory state with the contents of the mappings file.
// Best effort: a missing or malformed file leaves the registry untouched
// and returns the error.
func (r *Registry) Load() error {
	r.mu.Lock()
	path := r.path
	r.mu.Unlock()
	if path == "" {
		return r.errNoPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mapping: read %s: %w", path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("mapping: parse %s: %w", path, err)
	}

	bindings := emptyBindings()
	for src, entries := range f.Mappings {
		bucket, ok := bindings[src]
		if !ok {
			logger.Warn("mapping: unknown source section in file", "source", src)
			continue
		}
		for keyStr, fn := range entries {
			key, ok := decodeKey(src, keyStr)
			if !ok {
				logger.Warn("mapping: skipping malformed key", "source", src, "key", keyStr)
				continue
			}
			bucket[key] = fn
		}
	}

	phrases := make(map[string]Phrase, len(PhraseSlots))
	for slot, p := range f.Phrases {
		if validSlot(slot) {
			phrases[slot] = p
		}
	}

	r.mu.Lock()
	r.bindings = bindings
	r.phrases = phrases
	r.mu.Unlock()
	return nil
}

// Save writes the full registry to the mappings file. The write goes to a
// temp file in the same directory followed by a rename, so a failure never
// leaves a partially-written config behind.
func (r *Registry) Save() error {
	r.mu.Lock()
	path := r.path
	f := fileFormat{
		Mappings: make(map[Source]map[string]string, len(Sources)),
		Phrases:  make(map[string]Phrase, len(r.phrases)),
	}
	for _, src := range Sources {
		section := make(map[string]string, len(r.bindings[src]))
		for k, fn := range r.bindings[src] {
			section[encodeKey(src, k)] = fn
		}
		f.Mappings[src] = section
	}
	for slot, p := range r.phrases {
		f.Phrases[slot] = p
	}
	r.mu.Unlock()

	if path == "" {
		return r.errNoPath()
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("mapping: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mapping: create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("mapping: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("mapping: replace %s: %w", path, err)
	}
	return nil
}
