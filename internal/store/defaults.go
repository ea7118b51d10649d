package store

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/away0419/eunoia/internal/word"
)

//go:embed defaults/*.json
var defaultFiles embed.FS

// EmbeddedDefaults serves the bundled word sets compiled into the binary.
// Files are parsed once. Entries without an id get one derived from the
// category key, position and text, so ids survive restarts.
type EmbeddedDefaults struct {
	once    sync.Once
	records map[string]word.Record
	err     error
}

// NewEmbeddedDefaults returns the bundled default provider.
func NewEmbeddedDefaults() *EmbeddedDefaults {
	return &EmbeddedDefaults{}
}

func (d *EmbeddedDefaults) load() {
	d.records = make(map[string]word.Record)
	for _, def := range word.BuiltIns() {
		data, err := defaultFiles.ReadFile("defaults/" + def.Key + ".json")
		if err != nil {
			d.err = fmt.Errorf("bundled data for %s: %w", def.Key, err)
			return
		}
		var rec word.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			d.err = fmt.Errorf("bundled data for %s: %w", def.Key, err)
			return
		}
		for i := range rec.Words {
			rec.Words[i] = rec.Words[i].Normalized()
			rec.Words[i].Source = word.SourceBundled
			if rec.Words[i].ID == "" {
				rec.Words[i].ID = word.StableID(def.Key, i, rec.Words[i].Text)
			}
		}
		d.records[def.Key] = rec
	}
}

// Err reports a failure to parse the embedded data, if any.
func (d *EmbeddedDefaults) Err() error {
	d.once.Do(d.load)
	return d.err
}

// ReadDefault returns a copy of the bundled record for a built-in key.
func (d *EmbeddedDefaults) ReadDefault(key string) (*word.Record, bool) {
	d.once.Do(d.load)
	rec, ok := d.records[key]
	if !ok {
		return nil, false
	}
	out := word.Record{Category: rec.Category, Words: append([]word.Entry(nil), rec.Words...)}
	return &out, true
}
