package storage

import (
	"fmt"
	"path/filepath"

	"github.com/JSH-Team/domprobe/internal/utils/filesystem"
	"github.com/JSH-Team/domprobe/internal/utils/hash"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
	urlutils "github.com/JSH-Team/domprobe/internal/utils/url"

	"gopkg.in/yaml.v3"
)

// Report is the outcome of probing one target.
type Report struct {
	Name   string `yaml:"name,omitempty"`
	Target string `yaml:"target"`

	// DocumentHash is the structural hash of inline markup targets.
	DocumentHash string `yaml:"document_hash,omitempty"`

	Stylesheets []string `yaml:"stylesheets"`
	Candidates  int      `yaml:"candidates"`
	Matched     []string `yaml:"matched"`
	Unmatched   []string `yaml:"unmatched"`

	Error string `yaml:"error,omitempty"`
}

// SaveReport writes r under dir and returns its path. Reports are grouped by
// domain (or "local" for non-URL targets) and named by the hash of their
// content, so probing an unchanged page twice writes one file.
func SaveReport(dir string, r Report) (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := ReportPath(dir, r, hash.GenerateSha256Hash(string(out)))
	written, err := filesystem.WriteFileOnce(path, out)
	if err != nil {
		return "", err
	}
	if !written {
		logger.Debug("Report %s already exists", path)
	}
	return path, nil
}

// ReportPath is where a report with the given content hash is stored.
func ReportPath(dir string, r Report, contentHash string) string {
	group := "local"
	name := r.Name

	if urlutils.IsRemote(r.Target) {
		if domain, err := filesystem.ExtractDomain(r.Target); err == nil {
			group = domain
		}
		if name == "" {
			if page, err := urlutils.GetPageName(r.Target); err == nil {
				name = page
			}
		}
	} else if name == "" && r.Target == "-" {
		name = "stdin"
	} else if name == "" {
		name = filepath.Base(r.Target)
	}

	filename := fmt.Sprintf("%s_%s.yaml", filesystem.CleanPath(name), hash.Short(contentHash, 12))
	return filepath.Join(dir, group, filename)
}
