package session

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

// Authentication methods accepted in auth.method.
const (
	MethodDefault         = "default"
	MethodCLI             = "cli"
	MethodDeviceCode      = "device-code"
	MethodInteractive     = "interactive"
	MethodClientSecret    = "client-secret"
	MethodManagedIdentity = "managed-identity"
)

// CredentialProvider obtains tokens from an Azure credential.
type CredentialProvider struct {
	name       string
	credential azcore.TokenCredential
	tenantID   string
}

// NewCredentialProvider wraps credential.
func NewCredentialProvider(name string, credential azcore.TokenCredential, tenantID string) *CredentialProvider {
	return &CredentialProvider{name: name, credential: credential, tenantID: tenantID}
}

// Name implements Provider.
func (p *CredentialProvider) Name() string {
	return "azure:" + p.name
}

// Token implements Provider.
func (p *CredentialProvider) Token(ctx context.Context, audience Audience) (Token, error) {
	tok, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes:   []string{audience.Scope()},
		TenantID: p.tenantID,
	})
	if err != nil {
		return Token{}, err
	}
	return Token{Value: tok.Token, ExpiresOn: tok.ExpiresOn}, nil
}

// NewCredential builds the Azure credential selected by auth.method.
func NewCredential(cfg schema.Auth) (azcore.TokenCredential, error) {
	switch cfg.Method {
	case MethodDefault, "":
		return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{TenantID: cfg.TenantID})
	case MethodCLI:
		return azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{TenantID: cfg.TenantID})
	case MethodDeviceCode:
		return azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: cfg.TenantID,
			ClientID: cfg.ClientID,
		})
	case MethodInteractive:
		return azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			TenantID: cfg.TenantID,
			ClientID: cfg.ClientID,
		})
	case MethodClientSecret:
		if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, errUtils.Build(fmt.Errorf("%w: client-secret needs tenant_id, client_id and client_secret", errUtils.ErrInvalidAuthMethod)).
				WithHint("Set FABKIT_AUTH_CLIENT_SECRET instead of writing the secret to fabkit.yaml").
				Err()
		}
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	case MethodManagedIdentity:
		opts := &azidentity.ManagedIdentityCredentialOptions{}
		if cfg.ClientID != "" {
			opts.ID = azidentity.ClientID(cfg.ClientID)
		}
		return azidentity.NewManagedIdentityCredential(opts)
	default:
		return nil, errUtils.Build(fmt.Errorf("%w: %q", errUtils.ErrInvalidAuthMethod, cfg.Method)).
			WithHintf("Use one of %s, %s, %s, %s, %s, %s", MethodDefault, MethodCLI, MethodDeviceCode, MethodInteractive, MethodClientSecret, MethodManagedIdentity).
			Err()
	}
}

// StatusChecker reports whether the fab CLI holds a login.
type StatusChecker interface {
	AuthStatus(ctx context.Context) (string, error)
}

// FabCLIProvider trusts the fab CLI's stored login. It never sees a token;
// a successful status check is trusted for interval.
type FabCLIProvider struct {
	checker  StatusChecker
	interval time.Duration
	now      func() time.Time
}

// NewFabCLIProvider creates a provider backed by `fab auth status`.
func NewFabCLIProvider(checker StatusChecker, interval time.Duration) *FabCLIProvider {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &FabCLIProvider{checker: checker, interval: interval, now: time.Now}
}

// Name implements Provider.
func (p *FabCLIProvider) Name() string {
	return "fab"
}

// Token implements Provider. The returned token has no value.
func (p *FabCLIProvider) Token(ctx context.Context, _ Audience) (Token, error) {
	if _, err := p.checker.AuthStatus(ctx); err != nil {
		return Token{}, err
	}
	// Add the refresh window so the status stays cached for the full interval.
	return Token{ExpiresOn: p.now().Add(p.interval + refreshWindow)}, nil
}
