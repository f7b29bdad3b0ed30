// Package ui renders styled terminal output for pipeline summaries and the
// coverage report using lipgloss.
//
// The [Palette] holds the named styles; package-level helpers ([Title],
// [Success], [Failure], [Warn], [Help]) render single lines with them.
package ui
