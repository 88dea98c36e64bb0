package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const (
	backendName = "pypi"

	// versionPath is where the JSON API exposes the latest release.
	versionPath = "info.version"
)

// PackageIndexRepository resolves latest versions through the PyPI JSON API
// (GET {base}/pypi/{name}/json).
type PackageIndexRepository struct {
	baseURL string
	client  *http.Client
}

// NewPackageIndexRepository creates a PyPI client for the given base URL.
func NewPackageIndexRepository(baseURL string, client *http.Client) *PackageIndexRepository {
	return &PackageIndexRepository{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// NewPackageIndexRepositoryFromSettings is the registry factory.
func NewPackageIndexRepositoryFromSettings(settings *entities.Settings) (repositories.PackageIndexRepository, error) {
	//nolint:exhaustruct // Timeout is the only setting that matters here
	client := &http.Client{Timeout: settings.PackageIndex.Timeout}
	return NewPackageIndexRepository(settings.PackageIndex.URL, client), nil
}

// Name returns the backend identifier.
func (it *PackageIndexRepository) Name() string { return backendName }

// LatestVersion returns the "info.version" field of the package metadata.
func (it *PackageIndexRepository) LatestVersion(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", it.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := it.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s metadata: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", entities.ErrIndexPackageNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s metadata: %w", name, err)
	}

	version := gjson.GetBytes(body, versionPath)
	if !version.Exists() || version.String() == "" {
		return "", errors.New("package metadata has no " + versionPath + " for " + name)
	}

	logger.Debugf("[pypi] %s latest version is %s", name, version.String())
	return version.String(), nil
}
