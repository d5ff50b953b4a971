package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

// Identity is the caller as described by the access token claims.
type Identity struct {
	User      string    `json:"user" yaml:"user"`
	TenantID  string    `json:"tenantId" yaml:"tenantId"`
	ObjectID  string    `json:"objectId" yaml:"objectId"`
	AppID     string    `json:"appId,omitempty" yaml:"appId,omitempty"`
	ExpiresOn time.Time `json:"expiresOn" yaml:"expiresOn"`
}

// ParseIdentity reads identity claims from a JWT without verifying its signature.
// The claims are only displayed, never trusted for access decisions.
func ParseIdentity(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("%w: parse token: %v", errUtils.ErrInvalidResponse, err)
	}

	id := Identity{
		User:     firstClaim(claims, "upn", "unique_name", "preferred_username", "email"),
		TenantID: firstClaim(claims, "tid"),
		ObjectID: firstClaim(claims, "oid"),
		AppID:    firstClaim(claims, "appid", "azp"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresOn = exp.Time
	}
	if id.User == "" && id.AppID != "" {
		id.User = "app:" + id.AppID
	}
	return id, nil
}

func firstClaim(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
