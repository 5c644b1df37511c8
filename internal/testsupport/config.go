// Package testsupport provides shared helpers for splice tests: temp-dir
// configs and stubbed external binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"splice/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "splice.db")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMaxRequestBytes caps the test server's request size.
func WithMaxRequestBytes(limit int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.MaxRequestBytes = limit
	}
}

// WithAllowedOrigins overrides the CORS origin allowlist.
func WithAllowedOrigins(origins ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.AllowedOrigins = origins
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// puts them on PATH. If names is empty, ffmpeg and ffprobe are stubbed. The
// ffmpeg stub parses the concat manifest (the argument after -i) and writes
// the listed files' bytes to the final argument in order, so merge output
// is observable without a real ffmpeg.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := stubScript(name)
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

func stubScript(name string) string {
	switch name {
	case "ffmpeg":
		return `#!/bin/sh
# Concatenate the manifest's inputs into the last argument.
manifest=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then manifest="$arg"; fi
  prev="$arg"
  out="$arg"
done
: > "$out"
while IFS= read -r line; do
  path=${line#file \'}
  path=${path%\'}
  cat "$path" >> "$out"
done < "$manifest"
exit 0
`
	case "ffprobe":
		return `#!/bin/sh
echo '{"format":{"duration":"2.0","size":"64","bit_rate":"256"}}'
exit 0
`
	default:
		return "#!/bin/sh\nexit 0\n"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkspaceDir)
}
