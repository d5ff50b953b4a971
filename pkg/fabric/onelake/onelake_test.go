package onelake

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/fabric/directlake"
)

// memBlobs is an in-memory container set keyed by container then blob name.
type memBlobs struct {
	containers map[string]map[string]string
	folders    map[string]bool
	downloads  []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{containers: map[string]map[string]string{}, folders: map[string]bool{}}
}

func (m *memBlobs) put(container, name, content string) {
	if m.containers[container] == nil {
		m.containers[container] = map[string]string{}
	}
	m.containers[container][name] = content
}

func (m *memBlobs) List(_ context.Context, container, prefix string) ([]BlobInfo, error) {
	blobs, ok := m.containers[container]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", errUtils.ErrOneLake, errUtils.ErrNotFound, container)
	}
	var out []BlobInfo
	for name, content := range blobs {
		if strings.HasPrefix(name, prefix) {
			out = append(out, BlobInfo{Name: name, Size: int64(len(content)), IsFolder: m.folders[name]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memBlobs) Download(_ context.Context, container, name string) (io.ReadCloser, error) {
	m.downloads = append(m.downloads, name)
	content, ok := m.containers[container][name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", errUtils.ErrOneLake, errUtils.ErrNotFound, name)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func TestDownloadFiles(t *testing.T) {
	blobs := newMemBlobs()
	blobs.put("w1", "lh1/Files/raw", "")
	blobs.folders["lh1/Files/raw"] = true
	blobs.put("w1", "lh1/Files/raw/orders.csv", "id,amount\n1,10\n")
	blobs.put("w1", "lh1/Files/readme.txt", "hello")
	blobs.put("w1", "lh1/Tables/dbo/orders/part-0.parquet", "PAR1")
	fs := afero.NewMemMapFs()

	summary, err := New(blobs, fs).DownloadFiles(context.Background(), "w1", "lh1", "/out")
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 2, Folders: 1, Bytes: int64(len("id,amount\n1,10\n") + len("hello"))}, summary)

	data, err := afero.ReadFile(fs, filepath.Join("/out", "raw", "orders.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n1,10\n", string(data))
	exists, _ := afero.Exists(fs, filepath.Join("/out", "orders.parquet"))
	assert.False(t, exists)
}

func TestDownloadFiles_NoContainer(t *testing.T) {
	summary, err := New(newMemBlobs(), afero.NewMemMapFs()).DownloadFiles(context.Background(), "w9", "lh1", "/out")
	require.NoError(t, err)
	assert.Zero(t, summary)
}

func TestDownloadFiles_SkipsEscapingNames(t *testing.T) {
	blobs := newMemBlobs()
	blobs.put("w1", "lh1/Files/../../etc/passwd", "x")
	fs := afero.NewMemMapFs()

	summary, err := New(blobs, fs).DownloadFiles(context.Background(), "w1", "lh1", "/out")
	require.NoError(t, err)
	assert.Zero(t, summary.Files)
	assert.Empty(t, blobs.downloads)
}

const commit0 = `{"protocol":{"minReaderVersion":1,"minWriterVersion":2}}
{"metaData":{"id":"x","format":{"provider":"parquet"},"schemaString":"{\"type\":\"struct\",\"fields\":[{\"name\":\"order_id\",\"type\":\"long\",\"nullable\":true,\"metadata\":{}},{\"name\":\"amount\",\"type\":\"decimal(18,2)\",\"nullable\":true,\"metadata\":{}}]}"}}
{"add":{"path":"part-0.parquet"}}`

const commit1 = `{"metaData":{"id":"x","schemaString":"{\"type\":\"struct\",\"fields\":[{\"name\":\"order_id\",\"type\":\"long\"},{\"name\":\"amount\",\"type\":\"decimal(18,2)\"},{\"name\":\"placed_at\",\"type\":\"timestamp\"},{\"name\":\"tags\",\"type\":{\"type\":\"array\",\"elementType\":\"string\"}}]}"}}`

const commit2 = `{"add":{"path":"part-1.parquet"}}`

func TestDeltaSchemaSource_NewestMetaData(t *testing.T) {
	blobs := newMemBlobs()
	dir := "lh1/Tables/dbo/orders/_delta_log/"
	blobs.put("w1", dir+"00000000000000000000.json", commit0)
	blobs.put("w1", dir+"00000000000000000001.json", commit1)
	blobs.put("w1", dir+"00000000000000000002.json", commit2)
	blobs.put("w1", dir+"00000000000000000002.crc", "{}")

	cols, err := DeltaSchemaSource{Blobs: blobs}.TableSchema(context.Background(),
		directlake.Lakehouse{WorkspaceID: "w1", ID: "lh1"}, directlake.TableRef{Schema: "dbo", Name: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []directlake.Column{
		{Name: "order_id", SQLType: "bigint"},
		{Name: "amount", SQLType: "decimal(18,2)"},
		{Name: "placed_at", SQLType: "timestamp"},
		{Name: "tags", SQLType: "array"},
	}, cols)
	assert.Equal(t, []string{dir + "00000000000000000002.json", dir + "00000000000000000001.json"}, blobs.downloads)
	assert.Equal(t, "int64", cols[0].DataType())
	assert.Equal(t, "dateTime", cols[2].DataType())
}

func TestDeltaSchemaSource_SchemaLessLakehouse(t *testing.T) {
	blobs := newMemBlobs()
	blobs.put("w1", "lh1/Tables/orders/_delta_log/00000000000000000000.json", commit0)

	cols, err := DeltaSchemaSource{Blobs: blobs}.TableSchema(context.Background(),
		directlake.Lakehouse{WorkspaceID: "w1", ID: "lh1"}, directlake.TableRef{Schema: "dbo", Name: "orders"})
	require.NoError(t, err)
	assert.Len(t, cols, 2)
}

func TestDeltaSchemaSource_Missing(t *testing.T) {
	blobs := newMemBlobs()
	blobs.put("w1", "lh1/Files/x", "")

	cols, err := DeltaSchemaSource{Blobs: blobs}.TableSchema(context.Background(),
		directlake.Lakehouse{WorkspaceID: "w1", ID: "lh1"}, directlake.TableRef{Schema: "sales", Name: "nope"})
	require.NoError(t, err)
	assert.Empty(t, cols)
}
