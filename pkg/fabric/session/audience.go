package session

import (
	"fmt"
	"strings"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// Audience selects which API a token is issued for.
type Audience string

const (
	AudienceFabric  Audience = "fabric"
	AudiencePowerBI Audience = "powerbi"
	AudienceStorage Audience = "storage"
)

var scopes = map[Audience]string{
	AudienceFabric:  "https://api.fabric.microsoft.com/.default",
	AudiencePowerBI: "https://analysis.windows.net/powerbi/api/.default",
	AudienceStorage: "https://storage.azure.com/.default",
}

// Scope returns the OAuth scope for the audience.
func (a Audience) Scope() string {
	return scopes[a]
}

// ParseAudience parses fabric, powerbi or storage. Empty means fabric.
func ParseAudience(s string) (Audience, error) {
	if s == "" {
		return AudienceFabric, nil
	}
	a := Audience(strings.ToLower(s))
	if _, ok := scopes[a]; !ok {
		return "", fmt.Errorf("%w: unknown audience %q, expected fabric, powerbi or storage", errUtils.ErrInvalidConfig, s)
	}
	return a, nil
}
