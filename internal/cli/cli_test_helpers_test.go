package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"s3site/internal/config"
)

type project struct {
	dir        string
	siteRoot   string
	bucketDir  string
	configPath string
}

// setupProject creates a working directory holding a site tree, a local bucket and a
// config file for the local backend, and changes into it.
func setupProject(t *testing.T, files map[string]string) project {
	t.Helper()

	for _, key := range []string{
		config.EnvAccessKeyID, config.EnvSecretAccessKey, config.EnvBucket,
		config.EnvRegion, config.EnvEndpoint,
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	p := project{
		dir:        dir,
		siteRoot:   filepath.Join(dir, "_site"),
		bucketDir:  filepath.Join(dir, "bucket"),
		configPath: filepath.Join(dir, "s3site.toml"),
	}
	require.NoError(t, os.MkdirAll(p.siteRoot, 0o755))
	require.NoError(t, os.MkdirAll(p.bucketDir, 0o755))
	for rel, content := range files {
		writeFile(t, filepath.Join(p.siteRoot, filepath.FromSlash(rel)), content)
	}

	cfg := fmt.Sprintf("[site]\nroot = %q\n\n[s3]\nbackend = \"local\"\nlocal_dir = %q\n", p.siteRoot, p.bucketDir)
	writeFile(t, p.configPath, cfg)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
