package config

import "sync"

// Holder is the keepalive process's view of the effective configuration.
// Readers take a snapshot with Config; Reload re-runs the override chain
// with the environment and flag values the process started with.
type Holder struct {
	mu  sync.RWMutex
	cfg *Resolved
	env EnvOverrides
	cli CLIOverrides
}

// NewHolder wraps cfg, which Resolve produced from env and cli.
func NewHolder(cfg *Resolved, env EnvOverrides, cli CLIOverrides) *Holder {
	return &Holder{
		cfg: cfg,
		env: env,
		cli: cli,
	}
}

// Config returns the current snapshot.
func (h *Holder) Config() *Resolved {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.cfg
}

// Path returns the config file the current snapshot was read from.
func (h *Holder) Path() string {
	return h.Config().ConfigPath
}

// Update replaces the snapshot.
func (h *Holder) Update(cfg *Resolved) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cfg = cfg
}

// Reload re-reads the config file and re-applies the environment and flag
// overrides on top. On error the previous snapshot stays in place.
func (h *Holder) Reload() (*Resolved, error) {
	cfg, err := Resolve(h.env, h.cli)
	if err != nil {
		return nil, err
	}

	h.Update(cfg)

	return cfg, nil
}
