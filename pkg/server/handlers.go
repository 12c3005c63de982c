package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/indexgraph/pkg/buildinfo"
	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/query"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type statsResponse struct {
	Packages   int            `json:"packages"`
	Versions   int            `json:"versions"`
	Edges      int            `json:"edges"`
	Unresolved int            `json:"unresolved"`
	Top        []query.Ranked `json:"top_depended_on"`
}

type versionInfo struct {
	Version string `json:"version"`
	Yanked  bool   `json:"yanked,omitempty"`
	Deps    int    `json:"deps"`
}

type packageResponse struct {
	Name     string        `json:"name"`
	Versions []versionInfo `json:"versions"`
}

type dependencyInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Req      string `json:"req"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional,omitempty"`
	Alias    string `json:"alias,omitempty"`
}

type dependenciesResponse struct {
	ID           string           `json:"id"`
	Dependencies []dependencyInfo `json:"dependencies"`
}

type dependentsResponse struct {
	Name       string   `json:"name"`
	Dependents []string `json:"dependents"`
}

type resolveResponse struct {
	Name    string `json:"name"`
	Req     string `json:"req"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Packages:   s.idx.Len(),
		Versions:   s.idx.RecordCount(),
		Edges:      s.g.EdgeCount(),
		Unresolved: len(s.report.Unresolved),
		Top:        query.TopDependedOn(s.g, 10),
	})
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p := s.idx.Package(name)
	if p == nil {
		s.writeError(w, errs.New(errs.ErrCodePackageNotFound, "package %s not found", name))
		return
	}
	resp := packageResponse{Name: p.Name, Versions: make([]versionInfo, len(p.Versions))}
	for i, v := range p.Versions {
		resp.Versions[i] = versionInfo{Version: v.Version.Original(), Yanked: v.Yanked, Deps: len(v.Deps)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	id := registry.ID{Name: chi.URLParam(r, "name"), Version: chi.URLParam(r, "version")}
	if s.idx.Package(id.Name) == nil {
		s.writeError(w, errs.New(errs.ErrCodePackageNotFound, "package %s not found", id.Name))
		return
	}
	if _, ok := s.g.Node(id); !ok {
		s.writeError(w, errs.New(errs.ErrCodeVersionNotFound, "version %s not found", id))
		return
	}
	edges := s.g.Dependencies(id)
	resp := dependenciesResponse{ID: id.String(), Dependencies: make([]dependencyInfo, len(edges))}
	for i, e := range edges {
		dep := e.Dependency()
		info := dependencyInfo{
			Name:     e.To.Name,
			Version:  e.To.Version.Original(),
			Req:      dep.Req.String(),
			Kind:     string(dep.Kind),
			Optional: dep.Optional,
		}
		if dep.Package != "" {
			info.Alias = dep.Name
		}
		resp.Dependencies[i] = info
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDependents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rs, err := query.Dependents(s.g, name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := dependentsResponse{Name: name, Dependents: make([]string, len(rs))}
	for i, rec := range rs {
		resp.Dependents[i] = rec.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	raw := r.URL.Query().Get("req")
	if err := errs.ValidatePackageName(name); err != nil {
		s.writeError(w, err)
		return
	}
	req, err := registry.ParseRequirement(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.idx.Package(name) == nil {
		s.writeError(w, errs.New(errs.ErrCodePackageNotFound, "package %s not found", name))
		return
	}
	rec := depgraph.Resolve(registry.Dependency{Name: name, Req: req, Kind: registry.KindNormal}, s.idx)
	if rec == nil {
		s.writeError(w, errs.New(errs.ErrCodeVersionNotFound, "no version of %s matches %q", name, raw))
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Name: name, Req: req.String(), Version: rec.Version.Original()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: string(code), Message: errs.UserMessage(err)}})
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeNotFound, errs.ErrCodePackageNotFound, errs.ErrCodeVersionNotFound:
		return http.StatusNotFound
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidPackage, errs.ErrCodeInvalidVersion:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
