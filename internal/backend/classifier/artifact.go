package classifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// maxArtifactBytes bounds how much of a model artifact is read into memory.
const maxArtifactBytes = 512 << 20

type artifactKind int

const (
	artifactGCS artifactKind = iota
	artifactHTTP
	artifactFile
)

type artifactLocation struct {
	kind   artifactKind
	bucket string
	object string
	url    string
	path   string
}

// parseArtifactURL accepts gs://bucket/object, http(s)://..., file://path or a bare path.
func parseArtifactURL(raw string) (*artifactLocation, error) {
	if raw == "" {
		return nil, fmt.Errorf("model url is empty")
	}
	if !strings.Contains(raw, "://") {
		return &artifactLocation{kind: artifactFile, path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid model url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "gs":
		object := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || object == "" {
			return nil, fmt.Errorf("model url %q must be gs://bucket/object", raw)
		}
		return &artifactLocation{kind: artifactGCS, bucket: u.Host, object: object}, nil
	case "http", "https":
		return &artifactLocation{kind: artifactHTTP, url: raw}, nil
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		return &artifactLocation{kind: artifactFile, path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported model url scheme %q", u.Scheme)
	}
}

// FetchArtifact reads the model bytes from the configured location.
func FetchArtifact(ctx context.Context, config Config) ([]byte, error) {
	location, err := parseArtifactURL(config.URL)
	if err != nil {
		return nil, err
	}

	switch location.kind {
	case artifactGCS:
		return fetchFromGCS(ctx, location, config)
	case artifactHTTP:
		return fetchFromHTTP(ctx, location.url)
	default:
		return readLimited(os.Open(location.path))
	}
}

func fetchFromGCS(ctx context.Context, location *artifactLocation, config Config) ([]byte, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	object := client.Bucket(location.bucket).Object(location.object)
	if config.Generation > 0 {
		object = object.Generation(config.Generation)
	}
	reader, err := object.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", location.bucket, location.object, err)
	}
	return readLimited(reader, nil)
}

func fetchFromHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download model: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to download model: unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body, nil)
}

func readLimited(reader io.ReadCloser, openErr error) ([]byte, error) {
	if openErr != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", openErr)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(reader, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return nil, fmt.Errorf("model artifact exceeds %d bytes", maxArtifactBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("model artifact is empty")
	}
	return data, nil
}
