// Package identity decodes the authenticated identity issued by the
// managed auth provider.
package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskdeck/internal/service"
)

// AdminGroup is the provider group whose members are account admins.
const AdminGroup = "Admin"

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	Sub      string
	Email    string
	Name     string
	Username string
	Groups   []string
}

// IsAdmin reports membership in the Admin group.
func (i Identity) IsAdmin() bool {
	for _, g := range i.Groups {
		if g == AdminGroup {
			return true
		}
	}
	return false
}

// Validate returns ErrMissingIdentityField naming every absent required field.
func (i Identity) Validate() error {
	var missing []string
	if i.Email == "" {
		missing = append(missing, "email")
	}
	if i.Sub == "" {
		missing = append(missing, "sub")
	}
	if i.Name == "" {
		missing = append(missing, "name")
	}
	if i.Username == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", service.ErrMissingIdentityField, strings.Join(missing, ", "))
	}
	return nil
}

const claimsSchema = `{
  "type": "object",
  "required": ["sub", "email", "name", "cognito:username"],
  "properties": {
    "sub": {"type": "string", "minLength": 1},
    "email": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "cognito:username": {"type": "string", "minLength": 1},
    "cognito:groups": {"type": "array", "items": {"type": "string"}}
  }
}`

var claims = jsonschema.MustCompileString("identity-claims.json", claimsSchema)

// ErrInvalidToken is returned for a malformed or unverifiable ID token.
var ErrInvalidToken = errors.New("invalid identity token")

// LoadParser creates a parser from an optional PEM key file.
func LoadParser(publicKeyFile string) (*Parser, error) {
	if publicKeyFile == "" {
		return NewParser(nil)
	}
	pem, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity public key: %w", err)
	}
	return NewParser(pem)
}

// Parser turns provider ID tokens into identities.
type Parser struct {
	key *rsa.PublicKey
}

// NewParser creates a parser. When publicKeyPEM is empty the token
// signature is not checked; the token is expected to come straight from
// the provider's token endpoint.
func NewParser(publicKeyPEM []byte) (*Parser, error) {
	if len(publicKeyPEM) == 0 {
		return &Parser{}, nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid identity public key: %w", err)
	}
	return &Parser{key: key}, nil
}

// Verifies reports whether the parser checks token signatures.
func (p *Parser) Verifies() bool {
	return p.key != nil
}

// Parse decodes an ID token into an Identity.
func (p *Parser) Parse(token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	mc := jwt.MapClaims{}
	if p.key != nil {
		_, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (interface{}, error) {
			return p.key, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if err := claims.Validate(map[string]interface{}(mc)); err != nil {
		return Identity{}, fmt.Errorf("%w: %s", service.ErrMissingIdentityField, schemaMessage(err))
	}

	id := Identity{
		Sub:      stringClaim(mc, "sub"),
		Email:    stringClaim(mc, "email"),
		Name:     stringClaim(mc, "name"),
		Username: stringClaim(mc, "cognito:username"),
	}
	if groups, ok := mc["cognito:groups"].([]interface{}); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok {
				id.Groups = append(id.Groups, s)
			}
		}
	}
	return id, id.Validate()
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}

// schemaMessage returns the first leaf message of a schema validation error.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation != "" {
		return fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message)
	}
	return ve.Message
}
