package detail

import (
	"errors"
	"fmt"
	"strings"
)

// LintError is one problem reported by Validate.
type LintError struct {
	Entity  string
	Message string
}

func (e LintError) Error() string {
	if e.Entity == "" {
		return "detail: " + e.Message
	}
	return fmt.Sprintf("detail: %s: %s", e.Entity, e.Message)
}

// Validate reports descriptor problems that rendering tolerates silently:
// tab references to missing sections, sections no tab shows, duplicate ids
// and more than one primary action. The returned error joins every LintError;
// nil means the descriptor is clean.
func (d Descriptor) Validate() error {
	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, LintError{Entity: d.Entity, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(d.TitleField) == "" {
		report("titleField is required")
	}

	ids := make(map[string]struct{}, len(d.Sections))
	for i, s := range d.Sections {
		if s == nil {
			report("section %d is nil", i)
			continue
		}
		id := s.SectionID()
		if id == "" {
			report("section %d (%s) has no id", i, s.Kind())
			continue
		}
		if _, dup := ids[id]; dup {
			report("duplicate section id %q", id)
		}
		ids[id] = struct{}{}
		if rel, ok := s.(RelatedListSection); ok && strings.TrimSpace(rel.Entity) == "" {
			report("related-list section %q has no entity", id)
		}
		if desc, ok := s.(DescriptionSection); ok && strings.TrimSpace(desc.Field) == "" {
			report("description section %q has no field", id)
		}
	}

	if len(d.Tabs) > 0 {
		referenced := make(map[string]struct{})
		for _, tab := range d.Tabs {
			for _, id := range tab.SectionIDs {
				referenced[id] = struct{}{}
				if _, ok := ids[id]; !ok {
					report("tab %q references unknown section %q", tab.ID, id)
				}
			}
		}
		for _, s := range d.Sections {
			if s == nil {
				continue
			}
			if _, ok := referenced[s.SectionID()]; !ok {
				report("section %q is not shown by any tab", s.SectionID())
			}
		}
	}

	primaries := 0
	for _, action := range d.Actions {
		if action.Primary {
			primaries++
		}
		if strings.TrimSpace(action.ID) == "" {
			report("action %q has no id", action.Label)
		}
	}
	if primaries > 1 {
		report("%d primary actions declared, only the first is shown as primary", primaries)
	}

	return errors.Join(problems...)
}
