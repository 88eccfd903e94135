package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/profile"
)

const divider = "------------------------------------------------------------"
const banner = "============================================================"

// Filename builds the download name: data-export-<timestamp>.txt with every
// ':' and '.' in the timestamp replaced by '-', so the name is safe on any
// filesystem.
func Filename(now time.Time) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format(time.RFC3339))
	return "data-export-" + ts + ".txt"
}

// Render produces the fixed-layout plain-text report: a profile section
// followed by the itemized activity history, newest first.
func Render(p *profile.Profile, entries []activity.Entry, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("PERSONAL DATA EXPORT\n")
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Account:   %s\n", p.Email)
	b.WriteString("\n")

	b.WriteString("1. PROFILE INFORMATION\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Name:    %s\n", p.Name)
	fmt.Fprintf(&b, "Email:   %s\n", p.Email)
	fmt.Fprintf(&b, "Role:    %s\n", p.Role)
	fmt.Fprintf(&b, "Phone:   %s\n", orDash(p.Phone))
	fmt.Fprintf(&b, "Created: %s\n", p.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Updated: %s\n", p.UpdatedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n")

	b.WriteString("2. ACTIVITY HISTORY\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Total entries: %d\n", len(entries))
	b.WriteString("\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "[%s] %s\n", entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"), entry.Type)
		if entry.Description != "" {
			fmt.Fprintf(&b, "    %s\n", entry.Description)
		}
	}
	if len(entries) == 0 {
		b.WriteString("(no recorded activity)\n")
	}
	return b.String()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
