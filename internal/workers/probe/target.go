package probe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	urlutils "github.com/JSH-Team/domprobe/internal/utils/url"

	"gopkg.in/yaml.v3"
)

// Target is one page to probe. Exactly one of URL, File and Markup is set.
type Target struct {
	Name      string   `yaml:"name,omitempty"`
	URL       string   `yaml:"url,omitempty"`
	File      string   `yaml:"file,omitempty"`
	Markup    string   `yaml:"markup,omitempty"`
	Selectors []string `yaml:"selectors,omitempty"`
	Media     []string `yaml:"media,omitempty"`
}

// TargetsFile is the document read by LoadTargets. Selectors and Media apply
// to every target in addition to the target's own.
type TargetsFile struct {
	Selectors []string `yaml:"selectors"`
	Media     []string `yaml:"media"`
	Targets   []Target `yaml:"targets"`
}

// Source identifies where the target's document comes from.
func (t Target) Source() string {
	switch {
	case t.URL != "":
		return t.URL
	case t.File != "":
		return t.File
	default:
		return "-"
	}
}

// Validate checks that exactly one document source is set.
func (t Target) Validate() error {
	set := 0
	for _, s := range []string{t.URL, t.File, t.Markup} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("target %q must set exactly one of url, file or markup", t.Name)
	}
	if t.URL != "" && !urlutils.IsRemote(t.URL) {
		return fmt.Errorf("target %q: url must be http or https: %s", t.Name, t.URL)
	}
	return nil
}

// LoadTargets reads a YAML targets file.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file TargetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode targets file %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s has no targets", path)
	}

	targets := make([]Target, len(file.Targets))
	for i, t := range file.Targets {
		t.Selectors = mergeUnique(file.Selectors, t.Selectors)
		t.Media = mergeUnique(file.Media, t.Media)
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("targets file %s, entry %d: %w", path, i, err)
		}
		targets[i] = t
	}
	return targets, nil
}

// ParseTarget turns a command-line argument into a target: an http(s) URL,
// "-" for markup read from stdin, or a local file path.
func ParseTarget(arg string, stdin io.Reader) (Target, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return Target{}, errors.New("empty target")
	case arg == "-":
		markup, err := io.ReadAll(stdin)
		if err != nil {
			return Target{}, fmt.Errorf("failed to read markup from stdin: %w", err)
		}
		if len(strings.TrimSpace(string(markup))) == 0 {
			return Target{}, errors.New("no markup on stdin")
		}
		return Target{Markup: string(markup)}, nil
	case urlutils.IsRemote(arg):
		return Target{URL: arg}, nil
	default:
		if _, err := os.Stat(arg); err != nil {
			return Target{}, fmt.Errorf("target %s is neither a URL nor a readable file: %w", arg, err)
		}
		return Target{File: arg}, nil
	}
}

// ReadSelectors reads one selector per line. Blank lines and lines starting
// with "#" followed by a space are skipped, so id selectors survive.
func ReadSelectors(r io.Reader) ([]string, error) {
	var selectors []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "#" || strings.HasPrefix(line, "# ") {
			continue
		}
		selectors = append(selectors, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return selectors, nil
}

func mergeUnique(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
