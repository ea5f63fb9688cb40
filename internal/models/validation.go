package models

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Field messages reported to API clients.
const (
	MsgNameRequired        = "Please provide a name for the character"
	MsgNameTooLong         = "Name cannot be more than 100 characters"
	MsgAnimeRequired       = "Please provide the anime name"
	MsgAnimeTooLong        = "Anime name cannot be more than 100 characters"
	MsgDescriptionRequired = "Please provide a description"
	MsgDescriptionTooLong  = "Description cannot be more than 1000 characters"
	MsgImageURLRequired    = "Please provide an image URL"
	MsgImageURLInvalid     = "Please provide a valid image URL"
	MsgAbilityTooLong      = "Each ability cannot be more than 50 characters"
)

// MsgRoleInvalid lists the accepted roles.
var MsgRoleInvalid = "Role must be one of " + joinRoles(", ")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".svg":  true,
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func characterValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// Registration only fails for empty tags or nil funcs.
		_ = v.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
			return IsImageURL(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return Role(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// IsImageURL reports whether s is an absolute http(s) URL whose path ends in
// a known image extension.
func IsImageURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Validate checks c against the catalog constraints and returns one message
// per violated field. A nil result means the record may be persisted.
func Validate(c *Character) []string {
	err := characterValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	var messages []string
	seen := make(map[string]bool)
	for _, fe := range fieldErrs {
		msg := messageFor(fe)
		if seen[msg] {
			continue
		}
		seen[msg] = true
		messages = append(messages, msg)
	}
	return messages
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	if strings.HasPrefix(field, "abilities[") {
		return MsgAbilityTooLong
	}

	switch field + "." + fe.Tag() {
	case "name.required":
		return MsgNameRequired
	case "name.max":
		return MsgNameTooLong
	case "anime.required":
		return MsgAnimeRequired
	case "anime.max":
		return MsgAnimeTooLong
	case "description.required":
		return MsgDescriptionRequired
	case "description.max":
		return MsgDescriptionTooLong
	case "imageUrl.required":
		return MsgImageURLRequired
	case "imageUrl.imageurl":
		return MsgImageURLInvalid
	case "role.role":
		return MsgRoleInvalid
	}
	return fmt.Sprintf("%s is invalid", field)
}

func joinRoles(sep string) string {
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return strings.Join(names, sep)
}
