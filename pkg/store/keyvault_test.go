package store

import (
	"context"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Reference
		url     string
		wantErr bool
	}{
		{name: "vault name", value: "keyvault://fabkit-kv/sp-secret", want: Reference{Vault: "fabkit-kv", Name: "sp-secret"}, url: "https://fabkit-kv.vault.azure.net/"},
		{name: "with version", value: "keyvault://fabkit-kv/sp-secret/abc123", want: Reference{Vault: "fabkit-kv", Name: "sp-secret", Version: "abc123"}, url: "https://fabkit-kv.vault.azure.net/"},
		{name: "sovereign host", value: "keyvault://kv.vault.azure.cn/sp", want: Reference{Vault: "kv.vault.azure.cn", Name: "sp"}, url: "https://kv.vault.azure.cn/"},
		{name: "missing secret", value: "keyvault://fabkit-kv", wantErr: true},
		{name: "empty secret", value: "keyvault://fabkit-kv/", wantErr: true},
		{name: "too many parts", value: "keyvault://a/b/c/d", wantErr: true},
		{name: "literal", value: "s3cr3t", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUtils.ErrInvalidSecretReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
			assert.Equal(t, tt.url, ref.VaultURL())
			assert.Equal(t, tt.value, ref.String())
		})
	}
}

func TestResolve_Literal(t *testing.T) {
	got, err := Resolve(context.Background(), "plain", func(string) (*KeyVaultStore, error) {
		t.Fatal("store must not be opened for literals")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}

func TestResolve_KeyVault(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockKeyVaultClient(ctrl)
	value := "from-vault"
	client.EXPECT().
		GetSecret(gomock.Any(), "sp-secret", "v2", gomock.Nil()).
		Return(azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &value}}, nil)

	var opened string
	got, err := Resolve(context.Background(), "keyvault://fabkit-kv/sp-secret/v2", func(vaultURL string) (*KeyVaultStore, error) {
		opened = vaultURL
		return NewKeyVaultStoreWithClient(vaultURL, client), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-vault", got)
	assert.Equal(t, "https://fabkit-kv.vault.azure.net/", opened)
}

func TestGet_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "not found", status: http.StatusNotFound, want: errUtils.ErrSecretUnavailable},
		{name: "forbidden", status: http.StatusForbidden, want: errUtils.ErrUnauthorized},
		{name: "other", status: http.StatusInternalServerError, want: errUtils.ErrSecretUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := NewMockKeyVaultClient(ctrl)
			client.EXPECT().
				GetSecret(gomock.Any(), "sp", "", gomock.Nil()).
				Return(azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: tt.status})

			_, err := NewKeyVaultStoreWithClient("https://kv.vault.azure.net/", client).Get(context.Background(), "sp", "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGet_NilValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := NewMockKeyVaultClient(ctrl)
	client.EXPECT().GetSecret(gomock.Any(), "sp", "", gomock.Nil()).Return(azsecrets.GetSecretResponse{}, nil)

	_, err := NewKeyVaultStoreWithClient("https://kv.vault.azure.net/", client).Get(context.Background(), "sp", "")
	assert.ErrorIs(t, err, errUtils.ErrSecretUnavailable)
}
