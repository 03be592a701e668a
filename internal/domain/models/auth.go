package models

import (
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/language"
)

// TranslatorClaims represents the JWT claims issued by the contest auth service.
type TranslatorClaims struct {
	jwt.RegisteredClaims          // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Username             string   `json:"username"`
	Role                 string   `json:"role"` // "translator" or "editor"
	Language             Language `json:"language"`
	Country              Country  `json:"country"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *TranslatorClaims) GetUserID() string {
	return c.Subject
}

// Identity converts verified claims into the requester identity used by services.
func (c *TranslatorClaims) Identity() Identity {
	return Identity{
		UserID:   c.Subject,
		Username: c.Username,
		Language: c.Language,
		Country:  c.Country,
		Editor:   c.Role == RoleEditor,
	}
}

const (
	RoleTranslator = "translator"
	RoleEditor     = "editor"
)

// Language is the translator's target language.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
	RTL  *bool  `json:"rtl,omitempty"` // nil = derive from the language code
}

// IsRTL reports whether the language is written right to left. An explicit
// flag wins; otherwise the likely script of the language code decides.
func (l Language) IsRTL() bool {
	if l.RTL != nil {
		return *l.RTL
	}

	tag, err := language.Parse(l.Code)
	if err != nil {
		return false
	}
	script, _ := tag.Script()
	return rtlScripts[script.String()]
}

var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Syrc": true,
	"Thaa": true,
	"Nkoo": true,
	"Adlm": true,
	"Rohg": true,
	"Mand": true,
	"Samr": true,
}

// Country identifies the delegation a translator prints for.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Identity is the authenticated requester.
type Identity struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Language Language `json:"language"`
	Country  Country  `json:"country"`
	Editor   bool     `json:"editor"`
}

// IsEditor reports whether the requester may see unpublished tasks and
// produce artifacts for other owners.
func (i Identity) IsEditor() bool {
	return i.Editor
}
