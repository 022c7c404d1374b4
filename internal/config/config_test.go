package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAccessKeyID, EnvSecretAccessKey, EnvBucket, EnvRegion, EnvEndpoint} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBucket, "example-bucket")
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "_site", cfg.Site.Root)
	assert.Equal(t, "index.html", cfg.Site.Index)
	assert.Equal(t, 1, cfg.Site.Workers)
	assert.Equal(t, ".s3siteignore", cfg.Site.IgnoreFile)
	assert.Empty(t, cfg.Site.Exclude)
	assert.Empty(t, cfg.Site.Keep)
	assert.Equal(t, BackendS3, cfg.S3.Backend)
	assert.Equal(t, "us-west-2", cfg.S3.Region)
	assert.Equal(t, "example-bucket", cfg.S3.Bucket)
	assert.Empty(t, cfg.S3.Prefix)
}

func TestLoadMissingFileWithoutBucketFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.bucket is required")
}

func TestLoadAppliesDefaultsAndNormalizes(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "s3site.toml")
	content := strings.Join([]string{
		"[site]",
		"root = \" public \"",
		"index = \"\"",
		"workers = 4",
		"exclude = [\" **/*.map \", \"**/*.map\", \" drafts/** \"]",
		"keep = [\"uploads/**\"]",
		"",
		"[s3]",
		"backend = \" S3 \"",
		"bucket = \"example-bucket\"",
		"region = \"\"",
		"prefix = \"www\"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.Site.Root)
	assert.Equal(t, "index.html", cfg.Site.Index)
	assert.Equal(t, 4, cfg.Site.Workers)
	assert.Equal(t, []string{"**/*.map", "drafts/**"}, cfg.Site.Exclude)
	assert.Equal(t, []string{"uploads/**"}, cfg.Site.Keep)
	assert.Equal(t, BackendS3, cfg.S3.Backend)
	assert.Equal(t, "us-west-2", cfg.S3.Region)
	assert.Equal(t, "www/", cfg.S3.Prefix)
}

func TestNormalizeCleansSiteRoot(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "_site/", want: "_site"},
		{in: " ./_site// ", want: "_site"},
		{in: "./", want: "."},
		{in: "build/../_site", want: "_site"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Site.Root = tt.in
		cfg.Normalize()
		assert.Equal(t, tt.want, cfg.Site.Root, tt.in)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "s3site.toml")
	content := strings.Join([]string{
		"[s3]",
		"bucket = \"from-file\"",
		"access_key_id = \"file-key\"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(EnvBucket, "from-env")
	t.Setenv(EnvAccessKeyID, "env-key")
	t.Setenv(EnvSecretAccessKey, "env-secret")
	t.Setenv(EnvRegion, "eu-central-1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.S3.Bucket)
	assert.Equal(t, "env-key", cfg.S3.AccessKeyID)
	assert.Equal(t, "env-secret", cfg.S3.SecretAccessKey)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "s3site.toml")
	require.NoError(t, os.WriteFile(path, []byte("[site\nroot = "), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRegion, "already-set")
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		EnvBucket + "=dotenv-bucket",
		EnvRegion + "=dotenv-region",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv does not override variables that are present, even when empty,
	// so unset the bucket first.
	require.NoError(t, os.Unsetenv(EnvBucket))
	t.Cleanup(func() { _ = os.Unsetenv(EnvBucket) })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "dotenv-bucket", os.Getenv(EnvBucket))
	assert.Equal(t, "already-set", os.Getenv(EnvRegion))
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := *DefaultConfig()
		cfg.S3.Bucket = "my-bucket"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid s3 storage", mutate: func(*Config) {}},
		{
			name: "valid local storage",
			mutate: func(c *Config) {
				c.S3.Backend = BackendLocal
				c.S3.Bucket = ""
				c.S3.LocalDir = "/tmp/mirror"
			},
		},
		{
			name: "valid minio storage",
			mutate: func(c *Config) {
				c.S3.Backend = BackendMinio
				c.S3.Endpoint = "https://play.min.io"
			},
		},
		{
			name:    "reject empty root",
			mutate:  func(c *Config) { c.Site.Root = "" },
			wantErr: "site.root is required",
		},
		{
			name:    "reject zero workers",
			mutate:  func(c *Config) { c.Site.Workers = 0 },
			wantErr: "site.workers must be >= 1",
		},
		{
			name:    "reject bad exclude glob",
			mutate:  func(c *Config) { c.Site.Exclude = []string{"[unterminated"} },
			wantErr: "site.exclude has invalid pattern",
		},
		{
			name:    "reject bad keep glob",
			mutate:  func(c *Config) { c.Site.Keep = []string{"{a,b"} },
			wantErr: "site.keep has invalid pattern",
		},
		{
			name:    "reject missing bucket",
			mutate:  func(c *Config) { c.S3.Bucket = "" },
			wantErr: "s3.bucket is required",
		},
		{
			name:    "reject bucket containing slash",
			mutate:  func(c *Config) { c.S3.Bucket = "bad/bucket" },
			wantErr: "s3.bucket must not contain '/'",
		},
		{
			name: "reject local without dir",
			mutate: func(c *Config) {
				c.S3.Backend = BackendLocal
			},
			wantErr: "s3.local_dir is required",
		},
		{
			name:    "reject unknown backend",
			mutate:  func(c *Config) { c.S3.Backend = "gcs" },
			wantErr: "s3.backend must be s3, minio, or local",
		},
		{
			name:    "reject malformed endpoint",
			mutate:  func(c *Config) { c.S3.Endpoint = "://bad" },
			wantErr: "valid http(s) URL",
		},
		{
			name:    "reject endpoint scheme",
			mutate:  func(c *Config) { c.S3.Endpoint = "ftp://example.com" },
			wantErr: "must use http or https",
		},
		{
			name:    "reject minio without endpoint",
			mutate:  func(c *Config) { c.S3.Backend = BackendMinio },
			wantErr: "s3.endpoint is required for the minio backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
