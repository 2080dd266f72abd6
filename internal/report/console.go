package report

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"pebble/internal/lattice/models"
)

// Console renders a human-readable batch summary with pterm styling.
type Console struct {
	w       io.Writer
	verbose bool
}

// NewConsole writes to w. With verbose set, every record is listed.
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose}
}

func (c *Console) Report(_ context.Context, report *models.BatchReport) error {
	out := pterm.DefaultHeader.WithFullWidth(false).Sprint(systemName+" SYNC") + "\n\n"

	if c.verbose {
		for _, rec := range report.Records {
			out += pterm.Sprintf("Entity #%05d: %s\n", rec.NumericID, rec.EntityName)
			out += pterm.Sprintf("  Lattice ID: %s\n", pterm.LightCyan(rec.LatticeID))
			out += pterm.Sprintf("  Tier:       %s\n", tierColor(rec.Tier))
			out += pterm.Sprintf("  Verified:   %s\n\n", verifiedMark(rec.Verified))
		}
	}

	counts := report.TierCounts()
	data := pterm.TableData{{"Tier", "Records"}}
	for _, t := range models.AllTiers() {
		data = append(data, []string{tierColor(t), strconv.Itoa(counts[t])})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render tier table: %w", err)
	}
	out += table + "\n\n"

	for _, e := range report.Errors {
		out += pterm.Sprintf("%s position %d (%s): %s\n", pterm.Red("skipped"), e.Position, e.EntityName, e.Reason)
	}

	status := pterm.Green(string(report.SyncStatus))
	if report.SyncStatus != models.SyncStatusComplete {
		status = pterm.Yellow(string(report.SyncStatus))
	}
	out += pterm.Sprintf("Batch:           %s\n", report.ID)
	out += pterm.Sprintf("Sync status:     %s\n", status)
	out += pterm.Sprintf("Records:         %d of %d\n", len(report.Records), report.TotalEntities)
	out += pterm.Sprintf("Sovereign sync:  %d priority blocks\n", report.PrioritySyncedCount)
	out += pterm.Sprintf("Pulse interval:  %d (%s)\n", report.IntervalParameter, report.Algorithm)

	_, err = io.WriteString(c.w, out)
	return err
}

func tierColor(t models.Tier) string {
	switch t {
	case models.TierSovereign:
		return pterm.LightMagenta(string(t))
	case models.TierDynastic:
		return pterm.LightGreen(string(t))
	case models.TierOperational:
		return pterm.Yellow(string(t))
	case models.TierMarket:
		return pterm.Gray(string(t))
	}
	return pterm.Gray("untiered")
}

func verifiedMark(ok bool) string {
	if ok {
		return pterm.Green("✓")
	}
	return pterm.Red("✗")
}
