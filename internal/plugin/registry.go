package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Plugin groups the component descriptors contributed by a single
// (in-process) plugin package.
type Plugin struct {
	Name        string
	Version     string
	Author      string
	Description string
	Components  []ComponentDescriptor
}

// Factory builds a Plugin on demand. Registering a factory only enumerates
// the plugin's name; the factory only runs once the plugin is whitelisted
// and the registry is (re)loaded, matching spec's "enumerate without
// loading" requirement so an operator can see what's available before any
// of it runs.
type Factory func() (*Plugin, error)

// Slot records the load outcome for one registered factory.
type Slot struct {
	Name      string
	Loaded    bool
	Whitelist bool
	Plugin    *Plugin
	LoadErr   error
}

// Registry tracks registered plugin factories, the operator whitelist, and
// the result of loading whitelisted plugins. A change to the whitelist
// marks the registry dirty until Reload is called, so callers can tell
// whether the active component set matches the persisted whitelist.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	slots     map[string]*Slot
	whitelist map[string]bool
	dirty     bool
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		slots:     make(map[string]*Slot),
		whitelist: make(map[string]bool),
	}
}

// Register enumerates a plugin factory under name without loading it. Re-
// registering the same name replaces the factory and clears any prior load
// result for it.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.slots, name)
	r.dirty = true
}

// SetWhitelist replaces the set of plugin names allowed to load. The
// registry is marked dirty; call Reload to apply it.
func (r *Registry) SetWhitelist(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whitelist = make(map[string]bool, len(names))
	for _, n := range names {
		r.whitelist[n] = true
	}
	r.dirty = true
}

// Whitelist returns the currently configured whitelist, sorted.
func (r *Registry) Whitelist() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.whitelist))
	for n := range r.whitelist {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IsDirty reports whether the whitelist or the registered factory set has
// changed since the last Reload.
func (r *Registry) IsDirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Reload loads every whitelisted, registered factory whose plugin isn't
// already loaded, and drops load state for names that were whitelisted but
// no longer are. A factory's error (including a recovered panic) is
// recorded on its Slot rather than aborting the reload, so one broken
// plugin never blocks the rest.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.slots {
		if !r.whitelist[name] {
			delete(r.slots, name)
		}
	}

	for name := range r.whitelist {
		factory, ok := r.factories[name]
		if !ok {
			r.slots[name] = &Slot{Name: name, Whitelist: true, LoadErr: fmt.Errorf("plugin: no factory registered for %q", name)}
			continue
		}
		if slot, ok := r.slots[name]; ok && slot.Loaded {
			continue
		}
		r.slots[name] = loadSlot(name, factory)
	}
	r.dirty = false
}

func loadSlot(name string, factory Factory) (slot *Slot) {
	slot = &Slot{Name: name, Whitelist: true}
	defer func() {
		if rec := recover(); rec != nil {
			slot.Loaded = false
			slot.LoadErr = fmt.Errorf("plugin: %q panicked while loading: %v", name, rec)
		}
	}()
	p, err := factory()
	if err != nil {
		slot.LoadErr = err
		return slot
	}
	slot.Plugin = p
	slot.Loaded = true
	return slot
}

// Slots returns a snapshot of every known plugin's load state, sorted by
// name, regardless of whitelist membership.
func (r *Registry) Slots() []Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	seen := map[string]bool{}
	for n := range r.factories {
		names = append(names, n)
		seen[n] = true
	}
	for n := range r.slots {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	out := make([]Slot, 0, len(names))
	for _, n := range names {
		if s, ok := r.slots[n]; ok {
			out = append(out, *s)
			continue
		}
		out = append(out, Slot{Name: n, Whitelist: r.whitelist[n]})
	}
	return out
}

// Find returns the first loaded component descriptor (with its plugin name)
// for which pred returns true. Descriptors are visited in
// sorted plugin-name order, then declaration order within a plugin, so the
// search is deterministic.
func (r *Registry) Find(pred func(pluginName string, d ComponentDescriptor) bool) (pluginName string, descriptor ComponentDescriptor, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		slot := r.slots[n]
		if !slot.Loaded {
			continue
		}
		for _, d := range slot.Plugin.Components {
			if pred(n, d) {
				return n, d, true
			}
		}
	}
	return "", ComponentDescriptor{}, false
}

// FindByName looks up a specific component by the plugin that declared it
// and the component's DisplayName.
func (r *Registry) FindByName(pluginName, componentName string) (ComponentDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[pluginName]
	if !ok || !slot.Loaded {
		return ComponentDescriptor{}, false
	}
	for _, d := range slot.Plugin.Components {
		if d.DisplayName == componentName {
			return d, true
		}
	}
	return ComponentDescriptor{}, false
}

// ListByKind returns every loaded descriptor of the given kind across all
// whitelisted plugins, each paired with its owning plugin name.
func (r *Registry) ListByKind(kind ComponentKind) []NamedDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []NamedDescriptor
	for _, n := range names {
		slot := r.slots[n]
		if !slot.Loaded {
			continue
		}
		for _, d := range slot.Plugin.Components {
			if d.Kind == kind {
				out = append(out, NamedDescriptor{PluginName: n, Descriptor: d})
			}
		}
	}
	return out
}

// NamedDescriptor pairs a descriptor with the plugin that declared it.
type NamedDescriptor struct {
	PluginName string
	Descriptor ComponentDescriptor
}
