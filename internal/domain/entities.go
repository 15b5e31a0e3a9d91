package domain

import (
	"fmt"
	"strings"
)

// EntityMention is one extracted person or place: a canonical name plus any
// aliases observed in the same passage.
type EntityMention struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// VerseEntities is the extraction result for one verse, keyed by composite id.
type VerseEntities struct {
	ID     string          `json:"id"`
	People []EntityMention `json:"people"`
	Places []EntityMention `json:"places"`
}

// Normalize trims whitespace on names and aliases and drops mentions whose
// canonical name is empty after trimming.
func (v *VerseEntities) Normalize() {
	v.People = normalizeMentions(v.People)
	v.Places = normalizeMentions(v.Places)
}

func normalizeMentions(in []EntityMention) []EntityMention {
	out := make([]EntityMention, 0, len(in))
	for _, m := range in {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		aliases := make([]string, 0, len(m.Aliases))
		for _, a := range m.Aliases {
			a = strings.TrimSpace(a)
			if a != "" {
				aliases = append(aliases, a)
			}
		}
		out = append(out, EntityMention{Name: name, Aliases: aliases})
	}
	return out
}

// Validate enforces the boundary shape of an extraction entry.
func (v *VerseEntities) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("entity entry: missing id")
	}
	if _, _, _, err := ParseVerseID(v.ID); err != nil {
		return fmt.Errorf("entity entry: %w", err)
	}
	return nil
}
