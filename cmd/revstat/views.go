package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"revboard/internal/views"
)

var previewN int

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the first N records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		records := views.Preview(ds, previewN)
		if asJSON {
			return printJSON(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY\tREVENUE (USD M)\tGROWTH %\tINDUSTRY\tHEADQUARTERS")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%s\n", r.Name, r.Revenue, r.Growth, r.Industry, r.Headquarters)
		}
		return w.Flush()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print describe-style statistics for the numeric columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		summary := views.Summarize(ds)
		if asJSON {
			return printJSON(summary)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COLUMN\tCOUNT\tMEAN\tSTD\tMIN\tP25\tMEDIAN\tP75\tMAX")
		for _, c := range summary.Columns {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
				c.Column, c.Count, c.Mean, c.Std, c.Min, c.P25, c.Median, c.P75, c.Max)
		}
		return w.Flush()
	},
}

var industriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "Print the distinct industries in first-appearance order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		industries := views.Industries(ds)
		if asJSON {
			return printJSON(industries)
		}
		for _, ind := range industries {
			fmt.Println(ind)
		}
		return nil
	},
}

var locationsTop int

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Print the most common headquarters locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		freq := views.LocationFrequency(ds, locationsTop)
		if asJSON {
			return printJSON(freq)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LOCATION\tCOMPANIES")
		for _, f := range freq {
			fmt.Fprintf(w, "%s\t%d\n", f.Location, f.Count)
		}
		return w.Flush()
	},
}

func init() {
	previewCmd.Flags().IntVarP(&previewN, "top", "n", 10, "number of records to show")
	locationsCmd.Flags().IntVarP(&locationsTop, "top", "n", 5, "number of locations to show")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
