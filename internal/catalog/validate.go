package catalog

import (
	"fmt"
	"log/slog"
	"strings"
)

// validateModules performs the structural checks on a module set.
// Returns a combined error describing all problems found, or nil if valid.
// Malformed questions are not errors: they are logged and skipped at play
// time.
func validateModules(modules []Module) error {
	var errs []string

	if len(modules) == 0 {
		errs = append(errs, "catalog has no modules")
	}

	ids := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m.ID == "" {
			errs = append(errs, fmt.Sprintf("module %q has an empty ID", m.Title))
			continue
		}
		if strings.Contains(m.ID, ".") {
			errs = append(errs, fmt.Sprintf("module ID %q must not contain '.'", m.ID))
		}
		if ids[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module ID: %q", m.ID))
		}
		ids[m.ID] = true

		if len(m.SubModules) == 0 {
			errs = append(errs, fmt.Sprintf("module %q has no sub-modules", m.ID))
		}
		if m.PreUnlocked < 0 || m.PreUnlocked > len(m.SubModules) {
			errs = append(errs, fmt.Sprintf("module %q: pre_unlocked must be in [0, %d], got %d", m.ID, len(m.SubModules), m.PreUnlocked))
		}

		subIDs := make(map[string]bool, len(m.SubModules))
		for i, s := range m.SubModules {
			if s.ID == "" {
				errs = append(errs, fmt.Sprintf("module %q sub-module %d has an empty ID", m.ID, i))
				continue
			}
			if strings.Contains(s.ID, ".") {
				errs = append(errs, fmt.Sprintf("sub-module ID %q in module %q must not contain '.'", s.ID, m.ID))
			}
			if subIDs[s.ID] {
				errs = append(errs, fmt.Sprintf("duplicate sub-module ID %q in module %q", s.ID, m.ID))
			}
			subIDs[s.ID] = true

			for qi, q := range s.Questions {
				if !q.Valid() {
					slog.Warn("skipping malformed question",
						"module", m.ID, "submodule", s.ID, "index", qi,
						"options", len(q.Options), "answer", q.Correct)
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
