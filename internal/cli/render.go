package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/invoice-memory/internal/model"
)

// Status labels shown for a processing result.
const (
	StatusApproved  = "auto-approved"
	StatusReview    = "needs review"
	StatusDuplicate = "duplicate"
)

// ResultStatus classifies a processing result for display.
func ResultStatus(result *model.ProcessingResult) string {
	switch {
	case result.NormalizedInvoice.IsDuplicate:
		return StatusDuplicate
	case result.RequiresHumanReview:
		return StatusReview
	default:
		return StatusApproved
	}
}

// RenderResult renders a processing or learning result as a box.
func RenderResult(result *model.ProcessingResult) string {
	inv := result.NormalizedInvoice

	var status string
	switch ResultStatus(result) {
	case StatusDuplicate:
		status = FormatError(StatusDuplicate)
	case StatusReview:
		status = FormatWarning(StatusReview)
	default:
		status = FormatSuccess(StatusApproved)
	}

	lines := []string{
		fmt.Sprintf("%s %s", BoldStyle.Render("Vendor:"), inv.VendorName),
		fmt.Sprintf("%s %s", BoldStyle.Render("Status:"), status),
		fmt.Sprintf("%s %.2f", BoldStyle.Render("Confidence:"), result.ConfidenceScore),
		fmt.Sprintf("%s %s", BoldStyle.Render("Reasoning:"), result.Reasoning),
	}

	if len(result.ProposedCorrections) > 0 {
		rows := make([][]string, 0, len(result.ProposedCorrections))
		for _, c := range result.ProposedCorrections {
			rows = append(rows, []string{
				c.Field,
				formatValue(c.OriginalValue),
				formatValue(c.NewValue),
				fmt.Sprintf("%.2f", c.Confidence),
				string(c.Source),
			})
		}
		lines = append(lines, "", RenderTable([]string{"FIELD", "FROM", "TO", "CONF", "SOURCE"}, rows))
	}

	for _, update := range result.MemoryUpdates {
		lines = append(lines, InfoStyle.Render(MemoryIcon+" "+update))
	}

	return RenderBox(InvoiceIcon+" "+inv.ID, strings.Join(lines, "\n"))
}

// RenderVendors renders every vendor pattern and default in snapshot.
func RenderVendors(snapshot *model.MemorySnapshot) string {
	names := make([]string, 0, len(snapshot.Vendors))
	for name := range snapshot.Vendors {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		rows = append(rows, vendorRows(snapshot.Vendors[name])...)
	}
	if len(rows) == 0 {
		return SubtleStyle.Render("No vendor memory yet.")
	}
	return RenderTable([]string{"VENDOR", "FIELD", "PATTERN", "CONF", "SEEN", "LAST SEEN"}, rows)
}

// RenderVendor renders a single vendor's patterns and defaults.
func RenderVendor(vendor *model.VendorMemory) string {
	rows := vendorRows(vendor)
	if len(rows) == 0 {
		return SubtleStyle.Render("Nothing learned for " + vendor.VendorName + ".")
	}
	return RenderBox(vendor.VendorName,
		RenderTable([]string{"VENDOR", "FIELD", "PATTERN", "CONF", "SEEN", "LAST SEEN"}, rows))
}

func vendorRows(vendor *model.VendorMemory) [][]string {
	fields := make([]string, 0, len(vendor.Patterns))
	for field := range vendor.Patterns {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(fields)+len(vendor.Defaults))
	for _, field := range fields {
		entry := vendor.Patterns[field]
		rows = append(rows, []string{
			vendor.VendorName,
			field,
			entry.Pattern,
			fmt.Sprintf("%.2f", entry.Confidence),
			fmt.Sprintf("%d", entry.Frequency),
			entry.LastSeen.Format(time.DateTime),
		})
	}

	defaults := make([]string, 0, len(vendor.Defaults))
	for field := range vendor.Defaults {
		defaults = append(defaults, field)
	}
	sort.Strings(defaults)
	for _, field := range defaults {
		rows = append(rows, []string{
			vendor.VendorName,
			field + " (default)",
			vendor.Defaults[field],
			"-", "-", "-",
		})
	}
	return rows
}

// RenderCorrections renders the correction memory list.
func RenderCorrections(corrections []*model.CorrectionMemory) string {
	if len(corrections) == 0 {
		return SubtleStyle.Render("No correction memory yet.")
	}
	rows := make([][]string, 0, len(corrections))
	for _, c := range corrections {
		rows = append(rows, []string{
			c.Context,
			c.Correction,
			fmt.Sprintf("%.2f", c.Confidence),
			fmt.Sprintf("%d", c.SuccessCount),
			fmt.Sprintf("%d", c.FailCount),
		})
	}
	return RenderTable([]string{"CONTEXT", "CORRECTION", "CONF", "OK", "FAIL"}, rows)
}

// RenderTable lays out rows in left-aligned columns under a styled header.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprint(val)
	}
}
