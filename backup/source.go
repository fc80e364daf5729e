package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source makes an export available as a local directory.
type Source interface {
	// Fetch returns the directory holding the export's CSV files.
	Fetch(ctx context.Context, tables []string) (string, error)
	String() string
}

// DirSource is an export already on disk.
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(ctx context.Context, tables []string) (string, error) {
	return d.Dir, nil
}

func (d DirSource) String() string { return d.Dir }

// ObjectGetter is the part of the S3 client the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads <prefix>/<table>.csv objects into WorkDir. Cleaning
// then rewrites the downloaded copies, never the objects.
type S3Source struct {
	Client  ObjectGetter
	Bucket  string
	Prefix  string
	WorkDir string
}

// S3Config holds construction parameters for NewS3Source.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // optional; S3-compatible stores such as MinIO
	WorkDir  string
}

// NewS3Source builds a source on the default AWS credential chain.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix, WorkDir: cfg.WorkDir}, nil
}

// ParseS3URL splits s3://bucket/some/prefix into bucket and prefix.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(raw, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 url %q has no bucket", raw)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

func (s *S3Source) String() string {
	return "s3://" + path.Join(s.Bucket, s.Prefix)
}

func (s *S3Source) Fetch(ctx context.Context, tables []string) (string, error) {
	dir := s.WorkDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "mzkit-backup-")
		if err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	for _, table := range tables {
		key := path.Join(s.Prefix, table+".csv")
		if err := s.download(ctx, key, FilePath(dir, table)); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func (s *S3Source) download(ctx context.Context, key, dest string) error {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.Bucket, Key: &key})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", s.Bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		return fmt.Errorf("download s3://%s/%s: %w", s.Bucket, key, err)
	}
	return f.Close()
}
