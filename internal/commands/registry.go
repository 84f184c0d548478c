package commands

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateCommand is returned when a name or alias is taken.
var ErrDuplicateCommand = errors.New("command already registered")

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	primary map[string]Command
	aliases map[string]string // alias -> primary name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		primary: make(map[string]Command),
		aliases: make(map[string]string),
	}
}

// Register adds c under its name and aliases. Nothing is added when any
// of them is already in use.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, n := range names {
		if r.taken(n) {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, n)
		}
	}

	r.primary[c.Name()] = c
	for _, alias := range c.Aliases() {
		r.aliases[alias] = c.Name()
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	_, isName := r.primary[name]
	_, isAlias := r.aliases[name]
	return isName || isAlias
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.primary[name]
	return cmd, ok
}

// All returns every command sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, 0, len(r.primary))
	for _, cmd := range r.primary {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
