// Package schema describes entity types for the view layer: their fields and
// semantic types, per-view configuration, computed columns and the display
// derivation used for titles, subtitles and badges. Schemas are immutable once
// constructed and can be authored in Go or loaded from YAML/JSON catalogs.
package schema
