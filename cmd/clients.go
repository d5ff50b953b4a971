package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	cfg "github.com/data-goblin/fabric-cli-plugin/pkg/config"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/api"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/download"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/fabcli"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/onelake"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
	"github.com/data-goblin/fabric-cli-plugin/pkg/store"
)

// backend holds what one invocation needs to reach Fabric. It is built on first use.
type backend struct {
	cli     *fabcli.CLI
	session *session.Session
	client  *api.Client
}

var current *backend

// newClient builds the API client for the configured backend. Tests replace it.
var newClient = func(ctx context.Context) (*api.Client, error) {
	b, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	return b.client, nil
}

// fs is the filesystem commands write to.
var fs afero.Fs = afero.NewOsFs()

func resetClients() {
	current = nil
}

func fabCLI() *fabcli.CLI {
	return fabcli.New(fabkitConfig.Fab, nil)
}

func newProvider(ctx context.Context) (session.Provider, error) {
	if fabkitConfig.Backend == cfg.BackendCLI {
		return session.NewFabCLIProvider(fabCLI(), fabkitConfig.Fab.SessionCheckInterval), nil
	}
	auth := fabkitConfig.Auth
	secret, err := store.Resolve(ctx, auth.ClientSecret, openVault)
	if err != nil {
		return nil, err
	}
	auth.ClientSecret = secret

	credential, err := session.NewCredential(auth)
	if err != nil {
		return nil, err
	}
	return session.NewCredentialProvider(fabkitConfig.Auth.Method, credential, fabkitConfig.Auth.TenantID), nil
}

// openVault reads referenced secrets with the default Azure credential chain of the configured tenant.
func openVault(vaultURL string) (*store.KeyVaultStore, error) {
	credential, err := session.NewCredential(schema.Auth{Method: session.MethodDefault, TenantID: fabkitConfig.Auth.TenantID})
	if err != nil {
		return nil, err
	}
	return store.NewKeyVaultStore(vaultURL, credential)
}

// connect acquires the session and builds the transport for the configured backend.
func connect(ctx context.Context) (*backend, error) {
	if current != nil {
		return current, nil
	}

	b := &backend{}
	if fabkitConfig.Backend == cfg.BackendCLI {
		b.cli = fabCLI()
		if err := b.cli.CheckVersion(ctx, fabkitConfig.Fab.MinVersion); err != nil {
			return nil, err
		}
	}

	provider, err := newProvider(ctx)
	if err != nil {
		return nil, err
	}
	b.session = session.New(provider)
	if err := b.session.Acquire(ctx); err != nil {
		return nil, err
	}

	var transport api.Transport
	switch fabkitConfig.Backend {
	case cfg.BackendCLI:
		transport = api.NewCLITransport(b.session, b.cli)
	case cfg.BackendREST:
		transport = api.NewRESTTransport(b.session, fabkitConfig.API, nil)
	default:
		return nil, fmt.Errorf("%w: %q", errUtils.ErrInvalidBackend, fabkitConfig.Backend)
	}
	b.client = api.NewClient(transport, api.WithLRO(fabkitConfig.API))

	log.Debug("Connected", "backend", fabkitConfig.Backend, "provider", b.session.Provider())
	current = b
	return b, nil
}

// blobs returns OneLake access. Only the rest backend holds storage tokens.
func blobs() (onelake.BlobAPI, bool, error) {
	if current == nil || fabkitConfig.Backend != cfg.BackendREST {
		return nil, false, nil
	}
	b, err := onelake.NewBlobAPI(fabkitConfig.OneLake, current.session)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// lakehouseFiles returns the OneLake file source, or nil when the backend cannot read OneLake.
func lakehouseFiles() (download.FileSource, error) {
	b, ok, err := blobs()
	if err != nil || !ok {
		return nil, err
	}
	return onelake.New(b, fs), nil
}

// schemaSource reads table schemas from the delta log on the rest backend and
// with `fab table schema` on the cli backend.
func schemaSource() (directlake.SchemaSource, error) {
	b, ok, err := blobs()
	if err != nil {
		return nil, err
	}
	if ok {
		return onelake.DeltaSchemaSource{Blobs: b}, nil
	}
	return directlake.FabSchemaSource{CLI: fabCLI()}, nil
}

// publisher creates items through the API on the rest backend and `fab import` on the cli backend.
func publisher(client *api.Client) directlake.Publisher {
	if fabkitConfig.Backend == cfg.BackendREST {
		return directlake.NewAPIPublisher(client)
	}
	return directlake.NewImportPublisher(fabCLI(), fs)
}
