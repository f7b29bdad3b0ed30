package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/featx/internal/models"
)

// Title renders a section heading.
func Title(s string) string {
	return styles.title.Render(s)
}

// Success renders a positive status line.
func Success(s string) string {
	return styles.ok.Render(s)
}

// Failure renders an error status line.
func Failure(s string) string {
	return styles.err.Render(s)
}

// Warn renders a cautionary status line.
func Warn(s string) string {
	return styles.warn.Render(s)
}

// Help renders muted helper text.
func Help(s string) string {
	return styles.help.Render(s)
}

// RenderCoverage renders the pipeline coverage report for the terminal.
func RenderCoverage(cov *models.Coverage) string {
	var b strings.Builder

	b.WriteString(Title("Pipeline Coverage"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Liked songs:    %d\n", cov.LikedTracks)
	fmt.Fprintf(&b, "Resolved:       %s\n",
		Success(fmt.Sprintf("%d (%.1f%%)", cov.Resolved, cov.ResolvedPercent())))
	fmt.Fprintf(&b, "Unresolved:     %s\n",
		Warn(fmt.Sprintf("%d", cov.Unresolved)))
	fmt.Fprintf(&b, "With features:  %s\n",
		Success(fmt.Sprintf("%d (%.1f%%)", cov.WithFeatures, cov.FeaturePercent())))

	if len(cov.UnresolvedTitles) > 0 {
		b.WriteString("\n")
		b.WriteString(Warn("Unresolved tracks:"))
		b.WriteString("\n")
		for _, title := range cov.UnresolvedTitles {
			fmt.Fprintf(&b, "  - %s\n", title)
		}
		if cov.Unresolved > len(cov.UnresolvedTitles) {
			fmt.Fprintf(&b, "  ... and %d more\n", cov.Unresolved-len(cov.UnresolvedTitles))
		}
	}

	return b.String()
}
