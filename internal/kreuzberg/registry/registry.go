// Package registry implements the generic, thread-safe MIME-keyed plugin
// registry (C4). The module registers its document extractors here;
// post-processors and validators are held by the pipeline itself, not by
// this registry.
package registry

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// Plugin is the minimal lifecycle capability every registered implementation
// must satisfy, regardless of kind.
type Plugin interface {
	Name() string
	Initialize() error
	Shutdown() error
}

// MimePlugin additionally declares which MIME types and priority it serves.
// Document extractors are MimePlugins. A "type/*" entry acts as a wildcard
// for Get; a bare "*" entry matches only the literal MIME string "*".
type MimePlugin interface {
	Plugin
	SupportedMIMETypes() []string
	Priority() int
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type entry struct {
	plugin   MimePlugin
	priority int
}

// Registry is a process-wide, read-write-locked map from MIME type to a
// priority-ordered list of plugins, with a reverse name index for removal.
type Registry struct {
	mu        sync.RWMutex
	byMime    map[string][]entry
	byName    map[string][]string // name -> mime types it was registered under
	instances map[string]MimePlugin
}

func New() *Registry {
	return &Registry{
		byMime:    make(map[string][]entry),
		byName:    make(map[string][]string),
		instances: make(map[string]MimePlugin),
	}
}

// Register validates the plugin name, initializes it, and inserts it into
// every MIME slot it declares support for. On initialization failure nothing
// is inserted.
func (r *Registry) Register(p MimePlugin) (err error) {
	name := p.Name()
	if name == "" || !namePattern.MatchString(name) {
		return kerrors.NewValidation(name, "plugin name must be non-empty and match [A-Za-z0-9_-]+")
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = kerrors.NewPlugin(name, kerrors.NewOther(name, "panic during initialize", nil))
		}
	}()
	if err := p.Initialize(); err != nil {
		return kerrors.NewPlugin(name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mimes := p.SupportedMIMETypes()
	for _, m := range mimes {
		r.byMime[m] = append(r.byMime[m], entry{plugin: p, priority: p.Priority()})
		sort.SliceStable(r.byMime[m], func(i, j int) bool {
			return r.byMime[m][i].priority > r.byMime[m][j].priority
		})
	}
	r.byName[name] = mimes
	r.instances[name] = p
	return nil
}

// Get resolves a MIME type to the highest-priority matching plugin: exact
// match wins outright; otherwise the highest-priority "type/*" wildcard whose
// prefix matches is used.
func (r *Registry) Get(mimeType string) (MimePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entries, ok := r.byMime[mimeType]; ok && len(entries) > 0 {
		return entries[0].plugin, nil
	}

	slashIdx := strings.Index(mimeType, "/")
	if slashIdx < 0 {
		return nil, kerrors.NewUnsupportedFormat(mimeType)
	}
	typePart := mimeType[:slashIdx]

	var best entry
	found := false
	for pattern, entries := range r.byMime {
		if !strings.HasSuffix(pattern, "/*") {
			continue
		}
		if strings.TrimSuffix(pattern, "/*") != typePart {
			continue
		}
		if len(entries) == 0 {
			continue
		}
		if !found || entries[0].priority > best.priority {
			best = entries[0]
			found = true
		}
	}
	if !found {
		return nil, kerrors.NewUnsupportedFormat(mimeType)
	}
	return best.plugin, nil
}

// List returns every registered plugin name (introspection, supplemental to
// the core register/get/remove contract).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Remove deletes the named plugin from every MIME slot it occupied, then
// calls its Shutdown hook exactly once.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	mimes, ok := r.byName[name]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	inst := r.instances[name]
	for _, m := range mimes {
		entries := r.byMime[m]
		filtered := entries[:0]
		for _, e := range entries {
			if e.plugin.Name() != name {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(r.byMime, m)
		} else {
			r.byMime[m] = filtered
		}
	}
	delete(r.byName, name)
	delete(r.instances, name)
	r.mu.Unlock()

	if inst == nil {
		return nil
	}
	if err := inst.Shutdown(); err != nil {
		return kerrors.NewPlugin(name, err)
	}
	return nil
}

// ShutdownAll removes every registered plugin. All shutdown hooks run even
// if one fails; the first error encountered is returned.
func (r *Registry) ShutdownAll() error {
	var firstErr error
	for _, name := range r.List() {
		if err := r.Remove(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
