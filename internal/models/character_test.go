package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCharacter() *Character {
	return &Character{
		Name:        "Naruto Uzumaki",
		Anime:       "Naruto",
		Description: "A young ninja who dreams of becoming the Hokage.",
		ImageURL:    "https://example.com/naruto.jpg",
		Role:        RoleProtagonist,
		Abilities:   []string{"Rasengan"},
	}
}

func TestValidate_ValidCharacter(t *testing.T) {
	assert.Empty(t, Validate(validCharacter()))
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	msgs := Validate(&Character{Name: "Incomplete Character", Role: RoleOther})

	assert.Equal(t, []string{
		MsgAnimeRequired,
		MsgDescriptionRequired,
		MsgImageURLRequired,
	}, msgs)
}

func TestValidate_LengthLimitsCountCharacters(t *testing.T) {
	c := validCharacter()
	c.Name = strings.Repeat("ナ", 100)
	assert.Empty(t, Validate(c), "100 multi-byte characters is within the limit")

	c.Name = strings.Repeat("a", 101)
	c.Anime = strings.Repeat("b", 101)
	c.Description = strings.Repeat("c", 1001)
	assert.Equal(t, []string{MsgNameTooLong, MsgAnimeTooLong, MsgDescriptionTooLong}, Validate(c))
}

func TestValidate_RoleMustBeEnumerated(t *testing.T) {
	c := validCharacter()
	c.Role = "Hokage"
	assert.Equal(t, []string{MsgRoleInvalid}, Validate(c))
}

func TestValidate_AbilityTooLongReportedOnce(t *testing.T) {
	c := validCharacter()
	c.Abilities = []string{strings.Repeat("x", 51), "ok", strings.Repeat("y", 60)}
	assert.Equal(t, []string{MsgAbilityTooLong}, Validate(c))
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://x/n.jpg", true},
		{"http://example.com/a/b/c.JPEG", true},
		{"https://cdn.example.com/img.webp?size=large", true},
		{"https://example.com/logo.svg", true},
		{"https://example.com/anim.gif", true},
		{"https://example.com/pic.png", true},
		{"ftp://example.com/pic.png", false},
		{"example.com/pic.png", false},
		{"https:///pic.png", false},
		{"https://example.com/pic.bmp", false},
		{"https://example.com/", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageURL(tt.url))
		})
	}
}

func TestNormalize(t *testing.T) {
	c := &Character{
		Name:      "  Sasuke Uchiha ",
		Anime:     " Naruto",
		Abilities: []string{"Sharingan", "", "   ", " Chidori "},
	}
	c.Normalize()

	assert.Equal(t, "Sasuke Uchiha", c.Name)
	assert.Equal(t, "Naruto", c.Anime)
	assert.Equal(t, RoleOther, c.Role)
	assert.Equal(t, []string{"Sharingan", "Chidori"}, c.Abilities)
}

func TestCreateRequest_AbilitiesAcceptsSingleString(t *testing.T) {
	var req CreateCharacterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Light","abilities":"Death Note"}`), &req))
	assert.Equal(t, AbilityList{"Death Note"}, req.Abilities)

	require.NoError(t, json.Unmarshal([]byte(`{"abilities":["Rasengan",""]}`), &req))
	c := req.ToCharacter()
	assert.Equal(t, []string{"Rasengan"}, c.Abilities)
	assert.Equal(t, RoleOther, c.Role)
}

func TestUpdateRequest_ApplyTo(t *testing.T) {
	c := validCharacter()

	var req UpdateCharacterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"role":""}`), &req))
	req.ApplyTo(c)

	assert.Equal(t, RoleOther, c.Role)
	assert.Equal(t, "Naruto Uzumaki", c.Name, "fields not sent are untouched")
	assert.Equal(t, []string{"Rasengan"}, c.Abilities)

	req = UpdateCharacterRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":" Naruto (Hokage) ","abilities":["Sage Mode"," "]}`), &req))
	req.ApplyTo(c)

	assert.Equal(t, "Naruto (Hokage)", c.Name)
	assert.Equal(t, []string{"Sage Mode"}, c.Abilities)
	assert.Equal(t, RoleOther, c.Role)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortNameAsc, ParseSortOrder("name-asc"))
	assert.Equal(t, SortNameDesc, ParseSortOrder("name-desc"))
	assert.Equal(t, SortAnime, ParseSortOrder("anime"))
	assert.Equal(t, SortNewest, ParseSortOrder(""))
	assert.Equal(t, SortNewest, ParseSortOrder("random"))
}
