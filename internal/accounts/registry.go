package accounts

import (
	"errors"
	"fmt"
	"log/slog"
)

// Registry holds the named account managers for one run. Registration order
// is preserved; managers live from startup until CloseAll.
type Registry struct {
	order    []string
	managers map[string]Manager
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		managers: make(map[string]Manager),
		logger:   logger,
	}
}

// Register adds a manager under a unique account name.
func (r *Registry) Register(name string, manager Manager) error {
	if _, exists := r.managers[name]; exists {
		return fmt.Errorf("account %q already registered", name)
	}
	r.order = append(r.order, name)
	r.managers[name] = manager
	r.logger.Info("registered account", slog.String("account", name))
	return nil
}

// Get returns the manager registered under name.
func (r *Registry) Get(name string) (Manager, error) {
	manager, exists := r.managers[name]
	if !exists {
		return nil, fmt.Errorf("account %q not registered", name)
	}
	return manager, nil
}

// Names returns the account names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int { return len(r.order) }

// CloseAll closes every manager, best effort: one failure does not stop the
// remaining closes. The joined errors are returned.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, name := range r.order {
		if err := r.managers[name].Close(); err != nil {
			r.logger.Error("closing account failed",
				slog.String("account", name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("closing account %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
