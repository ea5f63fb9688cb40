package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the part a character plays in its series.
type Role string

const (
	RoleProtagonist Role = "Protagonist"
	RoleAntagonist  Role = "Antagonist"
	RoleSupporting  Role = "Supporting"
	RoleVillain     Role = "Villain"
	RoleAntiHero    Role = "Anti-Hero"
	RoleOther       Role = "Other"
)

// Roles lists every accepted role in display order.
var Roles = []Role{
	RoleProtagonist,
	RoleAntagonist,
	RoleSupporting,
	RoleVillain,
	RoleAntiHero,
	RoleOther,
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Character is a catalog entry. The store assigns ID, CreatedAt and UpdatedAt.
type Character struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;index" validate:"required,max=100"`
	Anime       string    `json:"anime" gorm:"size:100;not null;index" validate:"required,max=100"`
	Description string    `json:"description" gorm:"size:1000;not null" validate:"required,max=1000"`
	ImageURL    string    `json:"imageUrl" gorm:"column:image_url;not null" validate:"required,imageurl"`
	Role        Role      `json:"role" gorm:"size:20;not null;default:Other;index" validate:"role"`
	Abilities   []string  `json:"abilities" gorm:"type:text;serializer:json" validate:"dive,max=50"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a fresh id when none was set.
func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Normalize trims text fields, drops blank abilities and defaults an empty role.
func (c *Character) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Anime = strings.TrimSpace(c.Anime)
	c.Description = strings.TrimSpace(c.Description)
	c.ImageURL = strings.TrimSpace(c.ImageURL)
	c.Role = Role(strings.TrimSpace(string(c.Role)))
	if c.Role == "" {
		c.Role = RoleOther
	}
	c.Abilities = CleanAbilities(c.Abilities)
}

// CleanAbilities trims every entry and removes the blank ones. The result is
// never nil so it serializes as an empty list.
func CleanAbilities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// AbilityList accepts either a JSON array of strings or a single string.
type AbilityList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *AbilityList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = AbilityList{}
		} else {
			*l = AbilityList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// CreateCharacterRequest is the body of POST /api/characters.
type CreateCharacterRequest struct {
	Name        string      `json:"name"`
	Anime       string      `json:"anime"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl"`
	Role        Role        `json:"role"`
	Abilities   AbilityList `json:"abilities"`
}

// ToCharacter builds an unsaved, normalized record from the request.
func (r *CreateCharacterRequest) ToCharacter() *Character {
	c := &Character{
		Name:        r.Name,
		Anime:       r.Anime,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Role:        r.Role,
		Abilities:   []string(r.Abilities),
	}
	c.Normalize()
	return c
}

// UpdateCharacterRequest is the body of PUT /api/characters/:id. Nil fields
// were not sent and leave the stored value untouched.
type UpdateCharacterRequest struct {
	Name        *string      `json:"name"`
	Anime       *string      `json:"anime"`
	Description *string      `json:"description"`
	ImageURL    *string      `json:"imageUrl"`
	Role        *Role        `json:"role"`
	Abilities   *AbilityList `json:"abilities"`
}

// ApplyTo overwrites the fields present in the request and normalizes the
// result. An explicitly empty role resets the record to RoleOther.
func (r *UpdateCharacterRequest) ApplyTo(c *Character) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Anime != nil {
		c.Anime = *r.Anime
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.ImageURL != nil {
		c.ImageURL = *r.ImageURL
	}
	if r.Role != nil {
		c.Role = *r.Role
	}
	if r.Abilities != nil {
		c.Abilities = []string(*r.Abilities)
	}
	c.Normalize()
}

// SortOrder selects the ordering of a list query.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortNameAsc  SortOrder = "name-asc"
	SortNameDesc SortOrder = "name-desc"
	SortAnime    SortOrder = "anime"
)

// ParseSortOrder maps a query value to a SortOrder, falling back to SortNewest.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortNameAsc, SortNameDesc, SortAnime:
		return SortOrder(s)
	default:
		return SortNewest
	}
}

// ListQuery holds the filters of GET /api/characters.
type ListQuery struct {
	Search string
	// Role is only applied when it is one of Roles.
	Role Role
	Sort SortOrder
}
