package registry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// maxLineSize bounds a single record line. Packages with very large feature
// tables produce lines well above bufio's 64 KiB default.
const maxLineSize = 16 << 20

// ErrNoRecords is the cause of a [ParseError] for a file without records.
var ErrNoRecords = errors.New("no version records")

// ParseError reports a malformed line in a package-metadata file.
// A single bad line invalidates the whole file.
type ParseError struct {
	Path string // File being parsed
	Line int    // 1-based line number, 0 when the error is not tied to a line
	Text string // Offending line content
	Err  error  // Underlying decode or validation error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
	text := e.Text
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return fmt.Sprintf("parse %s:%d: %v (line: %s)", e.Path, e.Line, e.Err, text)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// ErrorCode reports the PARSE category.
func (e *ParseError) ErrorCode() errs.Code { return errs.ErrCodeParse }

// ParseFile reads a package-metadata file into a [Package].
func ParseFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads one JSON record per line from r. path is used only for error
// context and is stored on the returned Package.
//
// Lines are parsed independently; the first malformed line fails the whole
// file with a [*ParseError]. Blank lines are ignored. The resulting Versions
// are reversed from declaration order, so the newest version comes first,
// and the package name is taken from that newest record.
func Parse(r io.Reader, path string) (*Package, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var versions []*VersionRecord
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return nil, &ParseError{Path: path, Line: n, Text: string(line), Err: err}
		}
		versions = append(versions, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read %s", path)
	}
	if len(versions) == 0 {
		return nil, &ParseError{Path: path, Err: ErrNoRecords}
	}

	slices.Reverse(versions)
	return &Package{Name: versions[0].Name, Versions: versions, Path: path}, nil
}

type rawRecord struct {
	Name      string              `json:"name"`
	Vers      string              `json:"vers"`
	Deps      []rawDep            `json:"deps"`
	Cksum     string              `json:"cksum"`
	Features  map[string][]string `json:"features"`
	Features2 map[string][]string `json:"features2"`
	Yanked    bool                `json:"yanked"`
	Links     string              `json:"links"`
}

type rawDep struct {
	Name            string   `json:"name"`
	Req             string   `json:"req"`
	Features        []string `json:"features"`
	Optional        bool     `json:"optional"`
	DefaultFeatures *bool    `json:"default_features"`
	Target          string   `json:"target"`
	Kind            string   `json:"kind"`
	Package         string   `json:"package"`
}

// ParseRecord decodes a single index line into a [VersionRecord].
// The version and every dependency requirement are validated.
func ParseRecord(line []byte) (*VersionRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, err
	}
	if raw.Name == "" {
		return nil, errors.New("missing name")
	}
	v, err := ParseVersion(raw.Vers)
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, 0, len(raw.Deps))
	for _, rd := range raw.Deps {
		d, err := rd.dependency()
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", rd.Name, err)
		}
		deps = append(deps, d)
	}

	features := raw.Features
	if len(raw.Features2) > 0 {
		features = maps.Clone(raw.Features)
		if features == nil {
			features = make(map[string][]string, len(raw.Features2))
		}
		maps.Copy(features, raw.Features2)
	}

	return &VersionRecord{
		Name:     raw.Name,
		Version:  v,
		Deps:     deps,
		Checksum: raw.Cksum,
		Features: features,
		Yanked:   raw.Yanked,
		Links:    raw.Links,
	}, nil
}

func (rd rawDep) dependency() (Dependency, error) {
	if rd.Name == "" {
		return Dependency{}, errors.New("missing name")
	}
	req, err := ParseRequirement(rd.Req)
	if err != nil {
		return Dependency{}, err
	}
	kind, err := ParseKind(rd.Kind)
	if err != nil {
		return Dependency{}, err
	}
	defaultFeatures := true
	if rd.DefaultFeatures != nil {
		defaultFeatures = *rd.DefaultFeatures
	}
	return Dependency{
		Name:            rd.Name,
		Req:             req,
		Features:        rd.Features,
		Optional:        rd.Optional,
		DefaultFeatures: defaultFeatures,
		Target:          rd.Target,
		Kind:            kind,
		Package:         rd.Package,
	}, nil
}
