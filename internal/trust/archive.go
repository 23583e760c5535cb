package trust

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Artifact names inside a plugin package.
const (
	ModuleFile     = "module.so"
	PropertiesFile = "properties.json"
	SignatureFile  = "signature"
)

var requiredArtifacts = []string{ModuleFile, PropertiesFile, SignatureFile}

// WritePackage writes files as a zstd compressed tar stream. Entries are
// written in name order with a fixed modification time so the output only
// depends on the contents.
func WritePackage(w io.Writer, files map[string][]byte) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	tw := tar.NewWriter(zw)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		data := files[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(data)),
			ModTime:  time.Unix(0, 0),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return zw.Close()
}

// extractPackage unpacks the package at src into dest, which must exist.
// The archive may hold only the required artifacts, each at most once, as
// regular files at its root. maxBytes bounds the total extracted size.
func extractPackage(src, dest string, maxBytes int64) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var (
		total int64
		seen  = make(map[string]bool, len(requiredArtifacts))
	)

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}

		name := filepath.Base(target)
		switch {
		case hdr.Typeflag == tar.TypeDir:
			return fmt.Errorf("%w: directory %s", ErrUnexpectedArtifact, hdr.Name)
		case hdr.Typeflag != tar.TypeReg:
			return fmt.Errorf("unsupported entry %s (type %c)", hdr.Name, hdr.Typeflag)
		case filepath.Dir(target) != filepath.Clean(dest) || !slices.Contains(requiredArtifacts, name):
			return fmt.Errorf("%w: %s", ErrUnexpectedArtifact, hdr.Name)
		case seen[name]:
			return fmt.Errorf("duplicate entry %s", hdr.Name)
		}
		seen[name] = true

		total += hdr.Size
		if hdr.Size < 0 || total > maxBytes {
			return fmt.Errorf("package contents exceed %d bytes", maxBytes)
		}

		if err := writeEntry(target, tr, hdr.Size); err != nil {
			return fmt.Errorf("failed to extract %s: %w", hdr.Name, err)
		}
	}
}

func entryPath(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes package root", name)
	}
	return filepath.Join(dest, clean), nil
}

func writeEntry(path string, r io.Reader, size int64) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(out, r, size); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// checkStructure returns the first required artifact missing from dir.
func checkStructure(dir string) error {
	for _, name := range requiredArtifacts {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("%s not found", name)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%s is not a regular file", name)
		}
	}
	return nil
}
