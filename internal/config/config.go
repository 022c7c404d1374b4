package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
)

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendLocal = "local"
)

const (
	defaultSiteRoot   = "_site"
	defaultSiteIndex  = "index.html"
	defaultIgnoreFile = ".s3siteignore"
	defaultRegion     = "us-west-2"
)

// Environment variables that override values from the config file.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvBucket          = "S3_TARGET_BUCKET"
	EnvRegion          = "AWS_REGION"
	EnvEndpoint        = "S3_ENDPOINT"
)

type Config struct {
	Site SiteConfig `toml:"site"`
	S3   S3Config   `toml:"s3"`
}

type SiteConfig struct {
	Root       string   `toml:"root"`
	Index      string   `toml:"index"`
	Workers    int      `toml:"workers"`
	Exclude    []string `toml:"exclude"`
	Keep       []string `toml:"keep"`
	IgnoreFile string   `toml:"ignore_file"`
}

type S3Config struct {
	Backend         string `toml:"backend"`
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	LocalDir        string `toml:"local_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Root:       defaultSiteRoot,
			Index:      defaultSiteIndex,
			Workers:    1,
			Exclude:    []string{},
			Keep:       []string{},
			IgnoreFile: defaultIgnoreFile,
		},
		S3: S3Config{
			Backend: BackendS3,
			Region:  defaultRegion,
		},
	}
}

// Load reads the TOML file at path, applies environment overrides and validates the
// result. A missing file is not an error; defaults plus environment are used instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.ApplyDefaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.S3.AccessKeyID, EnvAccessKeyID)
	set(&c.S3.SecretAccessKey, EnvSecretAccessKey)
	set(&c.S3.Bucket, EnvBucket)
	set(&c.S3.Region, EnvRegion)
	set(&c.S3.Endpoint, EnvEndpoint)
}

func (c *Config) ApplyDefaults() {
	if c.Site.Root == "" {
		c.Site.Root = defaultSiteRoot
	}
	if c.Site.Index == "" {
		c.Site.Index = defaultSiteIndex
	}
	if c.Site.Workers == 0 {
		c.Site.Workers = 1
	}
	if c.Site.Exclude == nil {
		c.Site.Exclude = []string{}
	}
	if c.Site.Keep == nil {
		c.Site.Keep = []string{}
	}
	if c.S3.Backend == "" {
		c.S3.Backend = BackendS3
	}
	if c.S3.Region == "" {
		c.S3.Region = defaultRegion
	}
}

func (c *Config) Normalize() {
	c.Site.Root = strings.TrimSpace(c.Site.Root)
	if c.Site.Root != "" {
		c.Site.Root = filepath.Clean(c.Site.Root)
	}
	c.Site.Index = strings.TrimSpace(c.Site.Index)
	c.Site.IgnoreFile = strings.TrimSpace(c.Site.IgnoreFile)
	c.Site.Exclude = trimPatterns(c.Site.Exclude)
	c.Site.Keep = trimPatterns(c.Site.Keep)

	c.S3.Backend = strings.ToLower(strings.TrimSpace(c.S3.Backend))
	c.S3.Bucket = strings.TrimSpace(c.S3.Bucket)
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	c.S3.Endpoint = strings.TrimSpace(c.S3.Endpoint)
	c.S3.LocalDir = strings.TrimSpace(c.S3.LocalDir)
	c.S3.Prefix = strings.TrimSpace(c.S3.Prefix)
	if c.S3.Prefix != "" && !strings.HasSuffix(c.S3.Prefix, "/") {
		c.S3.Prefix += "/"
	}
}

func (c *Config) Validate() error {
	if c.Site.Root == "" {
		return errors.New("site.root is required")
	}
	if c.Site.Workers < 1 {
		return errors.New("site.workers must be >= 1")
	}
	for _, pattern := range c.Site.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("site.exclude has invalid pattern %q", pattern)
		}
	}
	for _, pattern := range c.Site.Keep {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("site.keep has invalid pattern %q", pattern)
		}
	}

	switch c.S3.Backend {
	case BackendS3, BackendMinio:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required")
		}
		if strings.Contains(c.S3.Bucket, "/") {
			return errors.New("s3.bucket must not contain '/'")
		}
	case BackendLocal:
		if c.S3.LocalDir == "" {
			return errors.New("s3.local_dir is required for the local backend")
		}
	default:
		return fmt.Errorf("s3.backend must be s3, minio, or local (got %q)", c.S3.Backend)
	}

	if c.S3.Endpoint != "" {
		u, err := url.Parse(c.S3.Endpoint)
		if err != nil || u.Host == "" {
			return errors.New("s3.endpoint must be a valid http(s) URL")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("s3.endpoint must use http or https")
		}
	}
	if c.S3.Backend == BackendMinio && c.S3.Endpoint == "" {
		return errors.New("s3.endpoint is required for the minio backend")
	}
	return nil
}

func trimPatterns(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
