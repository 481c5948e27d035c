// Package model defines the cached Pokemon entity and the request log row.
//
// All derived fields (types, abilities, base stats, SI conversions) are
// computed from the raw PokeAPI payload on read. The payload is the single
// source of truth; nothing derived is stored redundantly.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Pokemon is a locally cached copy of one PokeAPI resource.
type Pokemon struct {
	ID             int64           `json:"-"`
	PokemonID      int             `json:"id"`
	Name           string          `json:"name"`
	Height         int             `json:"height"` // decimeters, provider units
	Weight         int             `json:"weight"` // hectograms, provider units
	BaseExperience *int            `json:"base_experience"`
	RawData        json.RawMessage `json:"-"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`
}

func (p *Pokemon) String() string {
	return fmt.Sprintf("%s (#%d)", p.Name, p.PokemonID)
}

// HeightMeters converts the provider's decimeter height to meters.
func (p *Pokemon) HeightMeters() float64 {
	return float64(p.Height) * 0.1
}

// WeightKG converts the provider's hectogram weight to kilograms.
func (p *Pokemon) WeightKG() float64 {
	return float64(p.Weight) * 0.1
}

// payload mirrors the nested PokeAPI document shape for the derived fields.
// Absent keys decode to nil slices, which the accessors turn into empty
// containers rather than errors.
type payload struct {
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability struct {
			Name string `json:"name"`
		} `json:"ability"`
		IsHidden bool `json:"is_hidden"`
	} `json:"abilities"`
	Stats []struct {
		Stat struct {
			Name string `json:"name"`
		} `json:"stat"`
		BaseStat int `json:"base_stat"`
	} `json:"stats"`
}

func (p *Pokemon) decode() payload {
	var doc payload
	if len(p.RawData) > 0 {
		// Ignore decode errors: a malformed payload yields empty containers.
		_ = json.Unmarshal(p.RawData, &doc)
	}
	return doc
}

// Types returns the type names from the raw payload.
func (p *Pokemon) Types() []string {
	doc := p.decode()
	types := make([]string, 0, len(doc.Types))
	for _, t := range doc.Types {
		types = append(types, t.Type.Name)
	}
	return types
}

// Abilities returns the non-hidden ability names from the raw payload.
func (p *Pokemon) Abilities() []string {
	doc := p.decode()
	abilities := make([]string, 0, len(doc.Abilities))
	for _, a := range doc.Abilities {
		if !a.IsHidden {
			abilities = append(abilities, a.Ability.Name)
		}
	}
	return abilities
}

// HiddenAbilities returns the hidden ability names from the raw payload.
func (p *Pokemon) HiddenAbilities() []string {
	doc := p.decode()
	hidden := make([]string, 0)
	for _, a := range doc.Abilities {
		if a.IsHidden {
			hidden = append(hidden, a.Ability.Name)
		}
	}
	return hidden
}

// BaseStats returns the stat-name to base-value mapping from the raw payload.
func (p *Pokemon) BaseStats() map[string]int {
	doc := p.decode()
	stats := make(map[string]int, len(doc.Stats))
	for _, s := range doc.Stats {
		stats[s.Stat.Name] = s.BaseStat
	}
	return stats
}

// APIData is the flattened entity shape served by the JSON endpoint.
type APIData struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Height          int            `json:"height"`
	Weight          int            `json:"weight"`
	HeightMeters    float64        `json:"height_meters"`
	WeightKG        float64        `json:"weight_kg"`
	BaseExperience  *int           `json:"base_experience"`
	Types           []string       `json:"types"`
	Abilities       []string       `json:"abilities"`
	HiddenAbilities []string       `json:"hidden_abilities"`
	BaseStats       map[string]int `json:"base_stats"`
}

// APIData flattens the entity and its derived fields for presentation.
func (p *Pokemon) APIData() APIData {
	return APIData{
		ID:              p.PokemonID,
		Name:            p.Name,
		Height:          p.Height,
		Weight:          p.Weight,
		HeightMeters:    p.HeightMeters(),
		WeightKG:        p.WeightKG(),
		BaseExperience:  p.BaseExperience,
		Types:           p.Types(),
		Abilities:       p.Abilities(),
		HiddenAbilities: p.HiddenAbilities(),
		BaseStats:       p.BaseStats(),
	}
}
