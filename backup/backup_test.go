package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSetAndWrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(FilePath(dir, "folders"), []byte("id,title\na,Root\n"), 0o600))
	require.NoError(t, os.WriteFile(FilePath(dir, "tables"), []byte("id,title,folder_id\n"), 0o600))

	set, err := ReadSet(dir, []string{"folders", "tables"})
	require.NoError(t, err)
	assert.Equal(t, 1, set.RowCount())

	folders, err := set.Table("folders")
	require.NoError(t, err)
	folders.Rows = append(folders.Rows, []string{"b", "Child"})
	require.NoError(t, set.Write("folders"))

	data, err := os.ReadFile(FilePath(dir, "folders"))
	require.NoError(t, err)
	assert.Equal(t, "id,title\na,Root\nb,Child\n", string(data))

	_, err = set.Table("table_files")
	assert.ErrorContains(t, err, "table_files.csv")
}

func TestReadSetMissingFile(t *testing.T) {
	_, err := ReadSet(t.TempDir(), []string{"folders"})
	assert.ErrorContains(t, err, "folders.csv")
}

func TestParseS3URL(t *testing.T) {
	bucket, prefix, err := ParseS3URL("s3://exports/2024/06/")
	require.NoError(t, err)
	assert.Equal(t, "exports", bucket)
	assert.Equal(t, "2024/06", prefix)

	_, _, err = ParseS3URL("/local/dir")
	assert.Error(t, err)
	_, _, err = ParseS3URL("s3:///prefix")
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", *in.Key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3SourceFetch(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"exports/folders.csv": "id,title\na,Root\n",
		"exports/tables.csv":  "id,title,folder_id\n",
	}}
	work := filepath.Join(t.TempDir(), "work")
	src := &S3Source{Client: fake, Bucket: "backups", Prefix: "exports", WorkDir: work}

	dir, err := src.Fetch(context.Background(), []string{"folders", "tables"})
	require.NoError(t, err)
	assert.Equal(t, work, dir)
	assert.Equal(t, []string{"backups/exports/folders.csv", "backups/exports/tables.csv"}, fake.keys)
	assert.Equal(t, "s3://backups/exports", src.String())

	set, err := ReadSet(dir, []string{"folders", "tables"})
	require.NoError(t, err)
	assert.Equal(t, 1, set.RowCount())
}

func TestS3SourceFetchMissingObject(t *testing.T) {
	src := &S3Source{Client: &fakeS3{}, Bucket: "backups", WorkDir: t.TempDir()}
	_, err := src.Fetch(context.Background(), []string{"folders"})
	assert.ErrorContains(t, err, "s3://backups/folders.csv")
}

func TestDirSource(t *testing.T) {
	dir, err := DirSource{Dir: "backup/database"}.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "backup/database", dir)
}
