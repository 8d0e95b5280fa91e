package tui

import (
	"fmt"
	"strings"

	"github.com/bassamadnan/sheetcrm/crm"
)

// truncate shortens a string to a max length, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// describeFields renders the output cells as one line: "Jan 5 2021 · 3d · ★ · status".
func describeFields(f crm.Fields) string {
	if f == crm.NeverContacted {
		return "never contacted"
	}
	parts := []string{f[0]}
	if f[1] != "" {
		parts = append(parts, f[1]+"d")
	}
	if f[2] == "Y" {
		parts = append(parts, "★")
	}
	if f[3] != "" {
		parts = append(parts, f[3])
	}
	return strings.Join(parts, " · ")
}

// describeReport is the one-line summary of a finished run.
func describeReport(r *crm.Report) string {
	if r == nil {
		return "no report"
	}
	return fmt.Sprintf("%d enriched, %d blank, %d never · cursor %d/%d · %s",
		r.Enriched, r.Skipped, r.Never, r.Cursor, r.TotalRows, r.Stop)
}
