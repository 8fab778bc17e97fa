package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/linegate/internal/log"
)

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Lock writes a .checksums manifest for the config file next to it.
// The config carries the channel secret reference; the manifest detects
// unauthorized edits at startup.
func Lock(configPath string) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	hash, err := ComputeBlake3Hash(absPath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", absPath, err)
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      map[string]string{filepath.Base(absPath): hash},
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Restrictive permissions; the manifest holds expected hashes.
	checksumPath := checksumPathFor(absPath)
	if err := os.WriteFile(checksumPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}
	return nil
}

// checkIntegrity verifies the config file against its .checksums manifest.
// mode "off" skips the check; "warn" logs mismatches; "enforce" fails.
func checkIntegrity(absPath, mode string) error {
	if mode == "off" {
		return nil
	}

	fail := func(format string, args ...any) error {
		msg := fmt.Sprintf(format, args...)
		if mode == "warn" {
			log.Warn("config integrity", "problem", msg)
			return nil
		}
		return fmt.Errorf("config integrity: %s\n"+
			"If you edited the config intentionally, run: linegate config lock", msg)
	}

	data, err := os.ReadFile(checksumPathFor(absPath))
	if err != nil {
		if os.IsNotExist(err) {
			return fail("no .checksums manifest found (run 'linegate config lock')")
		}
		return fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse checksums: %w", err)
	}
	if manifest.Version != 1 {
		return fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	expected, ok := manifest.Hashes[filepath.Base(absPath)]
	if !ok {
		return fail("config file %s has no hash in checksums", filepath.Base(absPath))
	}

	actual, err := ComputeBlake3Hash(absPath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}
	if actual != expected {
		return fail("hash mismatch for %s (expected %s, got %s)",
			filepath.Base(absPath), expected, actual)
	}
	return nil
}

func checksumPathFor(absPath string) string {
	return filepath.Join(filepath.Dir(absPath), ".checksums")
}
