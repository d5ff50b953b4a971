package onelake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/session"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
	"github.com/data-goblin/fabric-cli-plugin/pkg/version"
)

// Folder markers carry this metadata key in hierarchical namespaces.
const folderMetadataKey = "hdi_isfolder"

// BlobInfo describes one listed blob.
type BlobInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
	IsFolder     bool
}

// BlobAPI is the subset of blob operations OneLake needs.
type BlobAPI interface {
	List(ctx context.Context, container, prefix string) ([]BlobInfo, error)
	Download(ctx context.Context, container, name string) (io.ReadCloser, error)
}

type azblobClient struct {
	client *azblob.Client
}

// NewBlobAPI creates an azblob client against the OneLake endpoint, authenticated by sess.
func NewBlobAPI(cfg schema.OneLake, sess *session.Session) (BlobAPI, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Telemetry: policy.TelemetryOptions{ApplicationID: "fabkit/" + version.Version},
		},
	}
	client, err := azblob.NewClient(strings.TrimSuffix(cfg.URL, "/")+"/", sessionCredential{sess: sess}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: create blob client: %v", errUtils.ErrOneLake, err)
	}
	return &azblobClient{client: client}, nil
}

func (c *azblobClient) List(ctx context.Context, container, prefix string) ([]BlobInfo, error) {
	pager := c.client.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{
		Prefix:  &prefix,
		Include: azblob.ListBlobsInclude{Metadata: true},
	})
	var out []BlobInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err, container, prefix)
		}
		if page.Segment == nil {
			continue
		}
		for _, b := range page.Segment.BlobItems {
			if b == nil || b.Name == nil {
				continue
			}
			info := BlobInfo{Name: *b.Name}
			if b.Properties != nil {
				if b.Properties.ContentLength != nil {
					info.Size = *b.Properties.ContentLength
				}
				if b.Properties.LastModified != nil {
					info.LastModified = *b.Properties.LastModified
				}
			}
			for k, v := range b.Metadata {
				if strings.EqualFold(k, folderMetadataKey) && v != nil && strings.EqualFold(*v, "true") {
					info.IsFolder = true
				}
			}
			out = append(out, info)
		}
	}
	return out, nil
}

func (c *azblobClient) Download(ctx context.Context, container, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, classify(err, container, name)
	}
	return resp.Body, nil
}

// classify maps storage errors onto the shared sentinels.
func classify(err error, container, name string) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w: %s/%s", errUtils.ErrOneLake, errUtils.ErrNotFound, container, name)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w: %s/%s", errUtils.ErrOneLake, errUtils.ErrUnauthenticated, container, name)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w: %s/%s", errUtils.ErrOneLake, errUtils.ErrUnauthorized, container, name)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w: %s/%s", errUtils.ErrOneLake, errUtils.ErrRateLimited, container, name)
		}
	}
	return fmt.Errorf("%w: %s/%s: %v", errUtils.ErrOneLake, container, name, err)
}

// sessionCredential hands session tokens to the Azure SDK pipeline.
type sessionCredential struct {
	sess *session.Session
}

// tokenLifetime is what the SDK is told; the session refreshes on its own schedule.
const tokenLifetime = 10 * time.Minute

func (c sessionCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.sess.Token(ctx, session.AudienceStorage)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	if token == "" {
		return azcore.AccessToken{}, errUtils.Build(fmt.Errorf("%w: OneLake needs an Azure credential", errUtils.ErrUnsupportedBackend)).
			WithHint("Run with --backend rest to download lakehouse files").
			Err()
	}
	return azcore.AccessToken{Token: token, ExpiresOn: time.Now().Add(tokenLifetime)}, nil
}
