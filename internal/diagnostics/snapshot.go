package diagnostics

import (
	"sort"

	"github.com/kingrea/lattice-bot/internal/graph"
	"github.com/kingrea/lattice-bot/internal/resolver"
)

// ModuleInfo is the JSON view of one discovered module.
type ModuleInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Requires    []string `json:"requires,omitempty"`
	Optional    []string `json:"optional,omitempty"`
	Dependents  []string `json:"dependents,omitempty"`
	Active      bool     `json:"active"`
	// Order is the 1-based activation position, 0 when inactive.
	Order      int     `json:"order,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
}

// Snapshot captures the outcome of a load pass.
type Snapshot struct {
	Requested []string     `json:"requested"`
	Modules   []ModuleInfo `json:"modules"`
	Warnings  []string     `json:"warnings,omitempty"`
	Error     string       `json:"error,omitempty"`
	DOT       string       `json:"-"`
}

// SnapshotFunc returns the current snapshot.
type SnapshotFunc func() Snapshot

// Active returns the active modules in activation order.
func (s Snapshot) Active() []ModuleInfo {
	var out []ModuleInfo
	for _, info := range s.Modules {
		if info.Active {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// NewSnapshot summarizes a load result. loadErr is the error Load returned,
// if any.
func NewSnapshot(result *resolver.Result, loadErr error) Snapshot {
	snap := Snapshot{}
	if loadErr != nil {
		snap.Error = loadErr.Error()
	}
	if result == nil {
		return snap
	}
	snap.Requested = append([]string(nil), result.Report.Requested...)
	for _, w := range result.Warnings {
		snap.Warnings = append(snap.Warnings, w.Error())
	}
	g := result.Graph
	if g == nil {
		g = graph.Build(result.Registry.All())
	}
	snap.DOT = graph.DOT(g)

	activated := make(map[string]int, len(result.Report.Activated))
	for idx, a := range result.Report.Activated {
		activated[a.Name] = idx
	}
	for _, meta := range result.Registry.All() {
		info := ModuleInfo{
			Name:        meta.Name,
			Version:     meta.Version,
			Author:      meta.Author,
			Description: meta.Description,
			Source:      result.Registry.Source(meta.Name),
			Requires:    meta.RequiredModules,
			Optional:    meta.OptionalModules,
			Dependents:  g.Dependents(meta.Name),
		}
		if idx, ok := activated[meta.Name]; ok {
			info.Active = true
			info.Order = idx + 1
			info.DurationMS = float64(result.Report.Activated[idx].Duration.Microseconds()) / 1000
		}
		snap.Modules = append(snap.Modules, info)
	}
	return snap
}
