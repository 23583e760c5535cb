package trust

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestWritePackage_Extract(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, WritePackage(&buf, map[string][]byte{
		ModuleFile:     []byte("module"),
		PropertiesFile: []byte(`{"name":"x"}`),
		SignatureFile:  []byte("sig"),
	}))

	src := writeFile(t, dir, "pkg.tar.zst", buf.Bytes())
	dest := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(dest, 0o700))

	require.NoError(t, extractPackage(src, dest, 1<<20))
	require.NoError(t, checkStructure(dest))

	data, err := os.ReadFile(filepath.Join(dest, PropertiesFile))
	require.NoError(t, err)
	require.Equal(t, `{"name":"x"}`, string(data))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, len(requiredArtifacts))
}

func writeEntries(tw *tar.Writer, files map[string][]byte, order ...string) error {
	for _, name := range order {
		data := files[name]
		if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(data))}); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func TestWritePackage_Deterministic(t *testing.T) {
	files := map[string][]byte{ModuleFile: []byte("a"), PropertiesFile: []byte("b"), SignatureFile: []byte("c")}

	var a, b bytes.Buffer
	require.NoError(t, WritePackage(&a, files))
	require.NoError(t, WritePackage(&b, files))
	require.Equal(t, a.Bytes(), b.Bytes())
}

func TestExtract_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		build  func(tw *tar.Writer) error
		limit  int64
		errMsg string
	}{
		{
			name: "absolute path",
			build: func(tw *tar.Writer) error {
				return tw.WriteHeader(&tar.Header{Name: "/etc/passwd", Typeflag: tar.TypeReg, Mode: 0o644})
			},
			limit: 1 << 20,
		},
		{
			name: "symlink",
			build: func(tw *tar.Writer) error {
				return tw.WriteHeader(&tar.Header{Name: ModuleFile, Linkname: "/bin/sh", Typeflag: tar.TypeSymlink})
			},
			limit:  1 << 20,
			errMsg: "unsupported entry",
		},
		{
			name: "oversized file",
			build: func(tw *tar.Writer) error {
				if err := tw.WriteHeader(&tar.Header{Name: ModuleFile, Typeflag: tar.TypeReg, Mode: 0o644, Size: 16}); err != nil {
					return err
				}
				_, err := tw.Write(bytes.Repeat([]byte("x"), 16))
				return err
			},
			limit:  8,
			errMsg: "exceed 8 bytes",
		},
		{
			name: "duplicate entry",
			build: func(tw *tar.Writer) error {
				for range 2 {
					if err := tw.WriteHeader(&tar.Header{Name: ModuleFile, Typeflag: tar.TypeReg, Mode: 0o644, Size: 1}); err != nil {
						return err
					}
					if _, err := tw.Write([]byte("x")); err != nil {
						return err
					}
				}
				return nil
			},
			limit:  1 << 20,
			errMsg: "duplicate entry",
		},
		{
			name: "total size over limit",
			build: func(tw *tar.Writer) error {
				files := map[string][]byte{
					ModuleFile:     bytes.Repeat([]byte("m"), 6),
					PropertiesFile: bytes.Repeat([]byte("p"), 6),
				}
				return writeEntries(tw, files, ModuleFile, PropertiesFile)
			},
			limit:  8,
			errMsg: "exceed 8 bytes",
		},
		{
			name: "extra file",
			build: func(tw *tar.Writer) error {
				files := map[string][]byte{ModuleFile: []byte("m"), "README": []byte("readme")}
				return writeEntries(tw, files, ModuleFile, "README")
			},
			limit:  1 << 20,
			errMsg: "unexpected artifact: README",
		},
		{
			name: "nested artifact",
			build: func(tw *tar.Writer) error {
				return writeEntries(tw, map[string][]byte{"lib/" + ModuleFile: []byte("m")}, "lib/"+ModuleFile)
			},
			limit:  1 << 20,
			errMsg: "unexpected artifact",
		},
		{
			name: "directory",
			build: func(tw *tar.Writer) error {
				return tw.WriteHeader(&tar.Header{Name: "docs/", Typeflag: tar.TypeDir, Mode: 0o755})
			},
			limit:  1 << 20,
			errMsg: "unexpected artifact: directory",
		},
		{
			name: "many small entries",
			build: func(tw *tar.Writer) error {
				files := map[string][]byte{}
				var order []string
				for i := range 40 {
					name := fmt.Sprintf("junk/%03d", i)
					files[name] = make([]byte, 1<<10)
					order = append(order, name)
				}
				return writeEntries(tw, files, order...)
			},
			limit:  4 << 10,
			errMsg: "unexpected artifact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			zw, err := zstd.NewWriter(&buf)
			require.NoError(t, err)
			tw := tar.NewWriter(zw)
			require.NoError(t, tt.build(tw))
			require.NoError(t, tw.Close())
			require.NoError(t, zw.Close())

			dir := t.TempDir()
			src := writeFile(t, dir, "pkg.tar.zst", buf.Bytes())
			dest := filepath.Join(dir, "out")
			require.NoError(t, os.Mkdir(dest, 0o700))

			err = extractPackage(src, dest, tt.limit)
			require.Error(t, err)
			if tt.errMsg != "" {
				require.ErrorContains(t, err, tt.errMsg)
			}

			entries, err := os.ReadDir(dest)
			require.NoError(t, err)
			require.LessOrEqual(t, len(entries), len(requiredArtifacts))
		})
	}
}

func TestCheckStructure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ModuleFile, []byte("m"))
	writeFile(t, dir, PropertiesFile, []byte("{}"))

	require.ErrorContains(t, checkStructure(dir), "signature not found")

	require.NoError(t, os.Mkdir(filepath.Join(dir, SignatureFile), 0o700))
	require.ErrorContains(t, checkStructure(dir), "signature is not a regular file")
}
