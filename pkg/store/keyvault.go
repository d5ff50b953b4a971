// Package store resolves secrets that configuration refers to instead of holding them.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/cockroachdb/errors"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

const (
	keyVaultScheme    = "keyvault://"
	keyVaultDNSSuffix = ".vault.azure.net"

	statusCodeNotFound  = 404
	statusCodeForbidden = 403
)

// KeyVaultClient allows us to mock the Azure Key Vault client.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_keyvault_test.go -package=store
type KeyVaultClient interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// Reference points at one Key Vault secret: keyvault://<vault>/<secret>[/<version>].
// A vault without a dot is a vault name in the public cloud.
type Reference struct {
	Vault   string
	Name    string
	Version string
}

// IsReference reports whether value is a secret reference rather than a literal.
func IsReference(value string) bool {
	return strings.HasPrefix(value, keyVaultScheme)
}

// ParseReference parses a keyvault:// reference.
func ParseReference(value string) (Reference, error) {
	if !IsReference(value) {
		return Reference{}, fmt.Errorf("%w: %q does not start with %s", errUtils.ErrInvalidSecretReference, value, keyVaultScheme)
	}
	parts := strings.Split(strings.TrimPrefix(value, keyVaultScheme), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Reference{}, errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidSecretReference, value)).
			WithHint("Secret references look like keyvault://<vault>/<secret> or keyvault://<vault>/<secret>/<version>").
			Err()
	}
	ref := Reference{Vault: parts[0], Name: parts[1]}
	if len(parts) == 3 {
		ref.Version = parts[2]
	}
	return ref, nil
}

// VaultURL returns the vault endpoint.
func (r Reference) VaultURL() string {
	host := r.Vault
	if !strings.Contains(host, ".") {
		host += keyVaultDNSSuffix
	}
	return "https://" + host + "/"
}

func (r Reference) String() string {
	s := keyVaultScheme + r.Vault + "/" + r.Name
	if r.Version != "" {
		s += "/" + r.Version
	}
	return s
}

// KeyVaultStore reads secrets from one Azure Key Vault.
type KeyVaultStore struct {
	client   KeyVaultClient
	vaultURL string
}

// NewKeyVaultStore creates a store for vaultURL authenticated with cred.
func NewKeyVaultStore(vaultURL string, cred azcore.TokenCredential) (*KeyVaultStore, error) {
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUtils.ErrSecretUnavailable, err)
	}
	return &KeyVaultStore{client: client, vaultURL: vaultURL}, nil
}

// NewKeyVaultStoreWithClient creates a store around an existing client.
func NewKeyVaultStoreWithClient(vaultURL string, client KeyVaultClient) *KeyVaultStore {
	return &KeyVaultStore{client: client, vaultURL: vaultURL}
}

// Get returns the secret value. An empty version reads the latest version.
func (s *KeyVaultStore) Get(ctx context.Context, name, version string) (string, error) {
	resp, err := s.client.GetSecret(ctx, name, version, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case statusCodeNotFound:
				return "", fmt.Errorf("%w: secret %s not found in %s", errUtils.ErrSecretUnavailable, name, s.vaultURL)
			case statusCodeForbidden:
				return "", errUtils.Build(fmt.Errorf("%w: secret %s in %s: %v", errUtils.ErrUnauthorized, name, s.vaultURL, err)).
					WithHint("The signed-in identity needs the Key Vault Secrets User role on the vault").
					Err()
			}
		}
		return "", fmt.Errorf("%w: secret %s: %v", errUtils.ErrSecretUnavailable, name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("%w: secret %s has no value", errUtils.ErrSecretUnavailable, name)
	}
	log.Debug("Read secret from Key Vault", "vault", s.vaultURL, "name", name)
	return *resp.Value, nil
}

// Resolve returns value unchanged unless it is a reference, in which case the secret is read
// through a store created by open.
func Resolve(ctx context.Context, value string, open func(vaultURL string) (*KeyVaultStore, error)) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	ref, err := ParseReference(value)
	if err != nil {
		return "", err
	}
	s, err := open(ref.VaultURL())
	if err != nil {
		return "", err
	}
	return s.Get(ctx, ref.Name, ref.Version)
}
