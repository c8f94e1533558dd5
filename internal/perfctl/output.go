package perfctl

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/perfboard/internal/domain/model"
)

// writeTable prints a report header followed by one aligned row per record.
func writeTable(out io.Writer, report model.Report) error {
	if _, err := fmt.Fprintf(out, "%s report, week %s, %d record(s)\n\n", report.Scope, report.Week, report.Total); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tEMPLOYEE\tNAME\tDEPARTMENT\tMANAGER\tSCORE")
	for _, r := range report.Records {
		rank := model.Placeholder
		if r.Rank > model.NoRank {
			rank = fmt.Sprint(int(r.Rank))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n", rank, r.EmployeeID, r.FullName, r.Department, r.Manager, r.Score)
	}
	return tw.Flush()
}

// writeJSON prints the report as indented JSON.
func writeJSON(out io.Writer, report model.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
