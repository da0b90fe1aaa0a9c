package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks every value and reports all violations in one error.
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.OutDir) == "" {
		errors = append(errors, "out_dir must not be empty")
	}
	if c.Iterations <= 0 {
		errors = append(errors, fmt.Sprintf("iterations must be positive, got: %d", c.Iterations))
	}

	if len(c.Targets) == 0 {
		errors = append(errors, "at least one target must be configured")
	}
	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		name := t.Name
		if name == "" {
			errors = append(errors, fmt.Sprintf("targets[%d]: name must not be empty", i))
			name = fmt.Sprintf("targets[%d]", i)
		} else if seen[strings.ToLower(name)] {
			errors = append(errors, fmt.Sprintf("target %q is configured more than once", name))
		}
		// Targets are selected case-insensitively.
		seen[strings.ToLower(t.Name)] = true
		if t.Port < 1 || t.Port > 65535 {
			errors = append(errors, fmt.Sprintf("%s: port must be between 1 and 65535, got: %d", name, t.Port))
		}
		if len(t.Start) == 0 {
			errors = append(errors, fmt.Sprintf("%s: start command must not be empty", name))
		}
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"timeouts.server_ready", c.Timeouts.ServerReady},
		{"timeouts.navigation", c.Timeouts.Navigation},
		{"timeouts.api_ready", c.Timeouts.APIReady},
		{"timeouts.stop_grace", c.Timeouts.StopGrace},
		{"poll_interval", c.PollInterval},
	}
	for _, d := range positive {
		if d.val <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %v", d.key, d.val))
		}
	}

	if c.Retry.MaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("retry.max_attempts must be at least 1, got: %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Pause < 0 {
		errors = append(errors, fmt.Sprintf("retry.pause must not be negative, got: %v", c.Retry.Pause))
	}
	if c.Cooldown < 0 {
		errors = append(errors, fmt.Sprintf("cooldown must not be negative, got: %v", c.Cooldown))
	}
	if strings.TrimSpace(c.RenderSelector) == "" {
		errors = append(errors, "render.selector must not be empty")
	}

	counts := []struct {
		key string
		val int
	}{
		{"bulk.rows", c.Bulk.RowsCount},
		{"bulk.updates", c.Bulk.UpdatesCount},
		{"churn.components", c.Churn.Components},
		{"churn.cycles", c.Churn.Cycles},
	}
	for _, n := range counts {
		if n.val <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %d", n.key, n.val))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}
	return nil
}
