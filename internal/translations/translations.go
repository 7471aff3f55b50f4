// internal/translations/translations.go
package translations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// DefaultGameType applies when no game type is mapped for an age group.
const DefaultGameType = "Coastal"

var (
	ErrNotFound    = errors.New("translation file not found")
	ErrNoFields    = errors.New("no field translations")
	ErrNoAgeGroups = errors.New("no age group translations")
)

// Field is the assignor venue for a town field label.
type Field struct {
	Venue    string `json:"venue"`
	SubVenue string `json:"sub-venue"`
}

// Translations maps town spreadsheet labels onto assignor values.
type Translations struct {
	Fields    map[string]map[string]Field `json:"fields"`
	AgeGroups map[string]string           `json:"age_groups"`
	GameTypes map[string]string           `json:"game_types,omitempty"`
}

// Load reads a translation file from disk.
func Load(path string) (*Translations, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open translation file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes translation JSON. Town names and sheet titles are matched
// case-insensitively so their keys are lower-cased here.
func Parse(r io.Reader) (*Translations, error) {
	var raw Translations
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode translation file: %w", err)
	}

	t := &Translations{GameTypes: raw.GameTypes}
	if raw.Fields != nil {
		t.Fields = make(map[string]map[string]Field, len(raw.Fields))
		for town, fields := range raw.Fields {
			t.Fields[normalize(town)] = fields
		}
	}
	if raw.AgeGroups != nil {
		t.AgeGroups = make(map[string]string, len(raw.AgeGroups))
		for sheet, ageGroup := range raw.AgeGroups {
			t.AgeGroups[normalize(sheet)] = ageGroup
		}
	}
	return t, nil
}

// FieldsFor returns the field table for a town.
func (t *Translations) FieldsFor(town string) (map[string]Field, error) {
	if t == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoFields, town)
	}
	fields, ok := t.Fields[normalize(town)]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoFields, town)
	}
	return fields, nil
}

// AgeGroupTable maps lower-cased sheet titles to age group labels.
func (t *Translations) AgeGroupTable() (map[string]string, error) {
	if t == nil || t.AgeGroups == nil {
		return nil, ErrNoAgeGroups
	}
	return t.AgeGroups, nil
}

// GameType returns the assignor game type for an age group.
func (t *Translations) GameType(ageGroup string) string {
	if t != nil {
		if gameType, ok := t.GameTypes[ageGroup]; ok && strings.TrimSpace(gameType) != "" {
			return gameType
		}
	}
	return DefaultGameType
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
