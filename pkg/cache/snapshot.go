package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/index"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// snapshotFormat is bumped whenever the wire layout changes; entries with a
// different format are treated as misses.
const snapshotFormat = 1

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// IndexCache persists a loaded [index.Index] in a [Cache].
type IndexCache struct {
	cache  Cache
	root   string
	ttl    time.Duration
	logger *log.Logger
}

// NewIndexCache returns an IndexCache for the index rooted at root. The
// root is made absolute so that relative and absolute invocations share an
// entry.
func NewIndexCache(c Cache, root string, ttl time.Duration) (*IndexCache, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "resolve index root %s", root)
	}
	return &IndexCache{cache: c, root: abs, ttl: ttl, logger: log.Default()}, nil
}

// WithLogger sets the logger used for cache diagnostics.
func (c *IndexCache) WithLogger(l *log.Logger) *IndexCache {
	c.logger = l
	return c
}

// Root returns the absolute index root the cache is keyed by.
func (c *IndexCache) Root() string { return c.root }

// Key returns the cache key of the index snapshot.
func (c *IndexCache) Key() string {
	return Key("index", c.root, fmt.Sprint(snapshotFormat))
}

// Load returns the cached index, or ok == false on a miss. A corrupt entry
// is deleted and reported as a miss.
func (c *IndexCache) Load(ctx context.Context) (*index.Index, bool, error) {
	data, ok, err := c.cache.Get(ctx, c.Key())
	if err != nil || !ok {
		return nil, false, err
	}
	idx, err := Decode(data)
	if err != nil {
		c.logger.Debug("discarding corrupt index snapshot", "root", c.root, "err", err)
		if err := c.cache.Delete(ctx, c.Key()); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	c.logger.Debug("index snapshot hit", "root", c.root, "bytes", len(data))
	return idx, true, nil
}

// Save stores idx, replacing any previous snapshot.
func (c *IndexCache) Save(ctx context.Context, idx *index.Index) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}
	c.logger.Debug("saving index snapshot", "root", c.root, "bytes", len(data))
	return c.cache.Set(ctx, c.Key(), data, c.ttl)
}

// Invalidate removes the snapshot.
func (c *IndexCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, c.Key())
}

type snapshot struct {
	Format   int           `msgpack:"f"`
	Packages []wirePackage `msgpack:"p"`
}

type wirePackage struct {
	Name     string       `msgpack:"n"`
	Path     string       `msgpack:"p,omitempty"`
	Versions []wireRecord `msgpack:"v"`
}

type wireRecord struct {
	Name     string              `msgpack:"n"`
	Version  string              `msgpack:"v"`
	Deps     []wireDep           `msgpack:"d,omitempty"`
	Checksum string              `msgpack:"c,omitempty"`
	Features map[string][]string `msgpack:"f,omitempty"`
	Yanked   bool                `msgpack:"y,omitempty"`
	Links    string              `msgpack:"l,omitempty"`
}

type wireDep struct {
	Name            string   `msgpack:"n"`
	Req             string   `msgpack:"r"`
	Features        []string `msgpack:"f,omitempty"`
	Optional        bool     `msgpack:"o,omitempty"`
	DefaultFeatures bool     `msgpack:"df"`
	Target          string   `msgpack:"t,omitempty"`
	Kind            string   `msgpack:"k"`
	Package         string   `msgpack:"pk,omitempty"`
}

// Encode serialises idx as a compressed snapshot.
func Encode(idx *index.Index) ([]byte, error) {
	snap := snapshot{Format: snapshotFormat, Packages: make([]wirePackage, 0, idx.Len())}
	for _, p := range idx.Packages() {
		wp := wirePackage{Name: p.Name, Path: p.Path, Versions: make([]wireRecord, len(p.Versions))}
		for i, r := range p.Versions {
			wp.Versions[i] = toWire(r)
		}
		snap.Packages = append(snap.Packages, wp)
	}
	raw, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode index snapshot")
	}
	return encoder.EncodeAll(raw, nil), nil
}

// Decode rebuilds an index from a snapshot produced by [Encode]. Versions
// and requirements are re-validated and the index integrity checks run
// again.
func Decode(data []byte) (*index.Index, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeParse, err, "decompress index snapshot")
	}
	var snap snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return nil, errs.Wrap(errs.ErrCodeParse, err, "decode index snapshot")
	}
	if snap.Format != snapshotFormat {
		return nil, errs.New(errs.ErrCodeUnsupported, "index snapshot format %d, want %d", snap.Format, snapshotFormat)
	}

	pkgs := make([]*registry.Package, len(snap.Packages))
	for i, wp := range snap.Packages {
		if len(wp.Versions) == 0 {
			return nil, errs.New(errs.ErrCodeParse, "index snapshot: package %s has no versions", wp.Name)
		}
		p := &registry.Package{Name: wp.Name, Path: wp.Path, Versions: make([]*registry.VersionRecord, len(wp.Versions))}
		for j, wr := range wp.Versions {
			r, err := fromWire(wr)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeParse, err, "index snapshot: %s@%s", wr.Name, wr.Version)
			}
			p.Versions[j] = r
		}
		pkgs[i] = p
	}
	return index.New(pkgs...)
}

func toWire(r *registry.VersionRecord) wireRecord {
	wr := wireRecord{
		Name:     r.Name,
		Version:  r.Version.Original(),
		Checksum: r.Checksum,
		Features: r.Features,
		Yanked:   r.Yanked,
		Links:    r.Links,
	}
	if len(r.Deps) > 0 {
		wr.Deps = make([]wireDep, len(r.Deps))
	}
	for i, d := range r.Deps {
		wr.Deps[i] = wireDep{
			Name:            d.Name,
			Req:             d.Req.String(),
			Features:        d.Features,
			Optional:        d.Optional,
			DefaultFeatures: d.DefaultFeatures,
			Target:          d.Target,
			Kind:            string(d.Kind),
			Package:         d.Package,
		}
	}
	return wr
}

func fromWire(wr wireRecord) (*registry.VersionRecord, error) {
	v, err := registry.ParseVersion(wr.Version)
	if err != nil {
		return nil, err
	}
	deps := make([]registry.Dependency, len(wr.Deps))
	for i, wd := range wr.Deps {
		req, err := registry.ParseRequirement(wd.Req)
		if err != nil {
			return nil, err
		}
		kind, err := registry.ParseKind(wd.Kind)
		if err != nil {
			return nil, err
		}
		deps[i] = registry.Dependency{
			Name:            wd.Name,
			Req:             req,
			Features:        wd.Features,
			Optional:        wd.Optional,
			DefaultFeatures: wd.DefaultFeatures,
			Target:          wd.Target,
			Kind:            kind,
			Package:         wd.Package,
		}
	}
	return &registry.VersionRecord{
		Name:     wr.Name,
		Version:  v,
		Deps:     deps,
		Checksum: wr.Checksum,
		Features: wr.Features,
		Yanked:   wr.Yanked,
		Links:    wr.Links,
	}, nil
}
