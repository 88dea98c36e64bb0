package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigEnvVar points at a configuration file when --config is not given.
	ConfigEnvVar = "REQGUARD_CONFIG"

	defaultBranch           = "main"
	defaultPackageIndexURL  = "https://pypi.org"
	defaultIndexConcurrency = 4
	defaultIndexTimeout     = 10 * time.Second
	defaultVersionCacheTTL  = 15 * time.Minute

	BackendCodeCommit   = "codecommit"
	BackendGit          = "git"
	BackendCodeArtifact = "codeartifact"
	BackendPyPI         = "pypi"
	BackendS3           = "s3"
	BackendFilesystem   = "filesystem"
	BackendCodeBuild    = "codebuild"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Settings is the full runtime configuration. It is read from an optional
// YAML file and then overridden by the environment variables the Lambda
// functions are deployed with.
type Settings struct {
	SourceRepository string             `yaml:"source_repository"`
	DefaultBranch    string             `yaml:"default_branch"`
	Packages         PackageCoordinates `yaml:"package_repository"`
	Bucket           string             `yaml:"bucket"`
	ObjectPrefix     string             `yaml:"object_prefix"`
	BuildProject     string             `yaml:"build_project"`
	PackageIndex     PackageIndexConfig `yaml:"package_index"`
	VersionCache     VersionCacheConfig `yaml:"version_cache"`
	Backends         BackendsConfig     `yaml:"backends"`

	// LocalRepositoryPath is used by the "git" source-control backend.
	LocalRepositoryPath string `yaml:"local_repository_path"`
	// OutputDir is used by the "filesystem" object-storage backend.
	OutputDir string `yaml:"output_dir"`
}

// PackageIndexConfig describes the public index used to resolve bare names.
type PackageIndexConfig struct {
	URL         string        `yaml:"url"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// VersionCacheConfig controls caching of resolved latest versions.
type VersionCacheConfig struct {
	Backend   string        `yaml:"backend"` // "none", "memory" or "redis"
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
}

// BackendsConfig selects the adapter used for each external collaborator.
type BackendsConfig struct {
	SourceControl     string `yaml:"source_control"`
	PackageRepository string `yaml:"package_repository"`
	PackageIndex      string `yaml:"package_index"`
	ObjectStorage     string `yaml:"object_storage"`
	Build             string `yaml:"build"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultBranch: defaultBranch,
		Packages:      PackageCoordinates{Format: DefaultPackageFormat},
		ObjectPrefix:  DefaultObjectPrefix,
		PackageIndex: PackageIndexConfig{
			URL:         defaultPackageIndexURL,
			Concurrency: defaultIndexConcurrency,
			Timeout:     defaultIndexTimeout,
		},
		VersionCache: VersionCacheConfig{
			Backend: CacheNone,
			TTL:     defaultVersionCacheTTL,
		},
		Backends: BackendsConfig{
			SourceControl:     BackendCodeCommit,
			PackageRepository: BackendCodeArtifact,
			PackageIndex:      BackendPyPI,
			ObjectStorage:     BackendS3,
			Build:             BackendCodeBuild,
		},
	}
}

// NewSettings loads the configuration file at path (if any) on top of the
// defaults and applies the environment overrides.
func NewSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}

		expanded := expandEnv(string(data))
		if unmarshalErr := yaml.Unmarshal([]byte(expanded), settings); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
		}
	}

	if err := settings.applyEnvironment(); err != nil {
		return nil, err
	}
	settings.fillDefaults()

	return settings, nil
}

// NewSettingsFromEnvironment resolves the config file from REQGUARD_CONFIG
// or the default locations and loads it; a missing file is not an error.
func NewSettingsFromEnvironment() (*Settings, error) {
	path := os.Getenv(ConfigEnvVar)
	if path == "" {
		if found, err := FindConfigFile(); err == nil {
			path = found
		}
	}
	return NewSettings(path)
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".reqguard.yaml",
		".reqguard.yml",
		"reqguard.yaml",
		"reqguard.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ValidateForDetection checks what the change detector needs.
func (s *Settings) ValidateForDetection() error {
	if s.Backends.SourceControl == BackendGit && s.LocalRepositoryPath == "" {
		return errors.New("local_repository_path is required for the git backend")
	}
	return nil
}

// ValidateForPublish checks what the reconciler needs to upload the
// missing set and start the scan job. Dry runs only need the package
// repository coordinates.
func (s *Settings) ValidateForPublish(dryRun bool) error {
	if s.Backends.PackageRepository == BackendCodeArtifact {
		if s.Packages.Domain == "" {
			return errors.New("package_repository.domain is required (env DOMAIN)")
		}
		if s.Packages.Repository == "" {
			return errors.New("package_repository.repository is required (env REPOSITORY)")
		}
	}
	if dryRun {
		return nil
	}

	switch s.Backends.ObjectStorage {
	case BackendS3:
		if s.Bucket == "" {
			return errors.New("bucket is required for the s3 backend (env BUCKET)")
		}
	case BackendFilesystem:
		if s.OutputDir == "" {
			return errors.New("output_dir is required for the filesystem backend")
		}
	}
	if s.BuildProject == "" {
		return errors.New("build_project is required (env CODEBUILD_PROJECT_NAME)")
	}
	return nil
}

// applyEnvironment overrides values with the variables the functions are
// deployed with.
func (s *Settings) applyEnvironment() error {
	overrideString(&s.SourceRepository, "SOURCE_REPOSITORY")
	overrideString(&s.DefaultBranch, "DEFAULT_BRANCH")
	overrideString(&s.Packages.Domain, "DOMAIN")
	overrideString(&s.Packages.DomainOwner, "DOMAIN_OWNER")
	overrideString(&s.Packages.Repository, "REPOSITORY")
	overrideString(&s.BuildProject, "CODEBUILD_PROJECT_NAME")
	overrideString(&s.Bucket, "BUCKET")
	overrideString(&s.PackageIndex.URL, "PACKAGE_INDEX_URL")
	overrideString(&s.VersionCache.Backend, "VERSION_CACHE")
	overrideString(&s.VersionCache.RedisAddr, "REDIS_ADDR")

	if raw := os.Getenv("INDEX_CONCURRENCY"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid INDEX_CONCURRENCY %q: %w", raw, err)
		}
		s.PackageIndex.Concurrency = value
	}
	if raw := os.Getenv("VERSION_CACHE_TTL"); raw != "" {
		value, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid VERSION_CACHE_TTL %q: %w", raw, err)
		}
		s.VersionCache.TTL = value
	}
	return nil
}

// fillDefaults restores defaults that a config file may have blanked out.
func (s *Settings) fillDefaults() {
	defaults := DefaultSettings()
	if s.DefaultBranch == "" {
		s.DefaultBranch = defaults.DefaultBranch
	}
	if s.Packages.Format == "" {
		s.Packages.Format = defaults.Packages.Format
	}
	if s.PackageIndex.URL == "" {
		s.PackageIndex.URL = defaults.PackageIndex.URL
	}
	if s.PackageIndex.Concurrency <= 0 {
		s.PackageIndex.Concurrency = defaults.PackageIndex.Concurrency
	}
	if s.PackageIndex.Timeout <= 0 {
		s.PackageIndex.Timeout = defaults.PackageIndex.Timeout
	}
	if s.VersionCache.Backend == "" {
		s.VersionCache.Backend = defaults.VersionCache.Backend
	}
	if s.VersionCache.TTL <= 0 {
		s.VersionCache.TTL = defaults.VersionCache.TTL
	}
	if s.Backends.SourceControl == "" {
		s.Backends.SourceControl = defaults.Backends.SourceControl
	}
	if s.Backends.PackageRepository == "" {
		s.Backends.PackageRepository = defaults.Backends.PackageRepository
	}
	if s.Backends.PackageIndex == "" {
		s.Backends.PackageIndex = defaults.Backends.PackageIndex
	}
	if s.Backends.ObjectStorage == "" {
		s.Backends.ObjectStorage = defaults.Backends.ObjectStorage
	}
	if s.Backends.Build == "" {
		s.Backends.Build = defaults.Backends.Build
	}
}

func overrideString(target *string, envVar string) {
	if value := os.Getenv(envVar); value != "" {
		*target = value
	}
}

// expandEnv replaces ${ENV_VAR} references with their values.
func expandEnv(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}
