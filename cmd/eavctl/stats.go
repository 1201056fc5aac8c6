package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Seliarn/nc2018team1/internal/cli/ui"
)

var statsNoColor bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show object store statistics",
	Long:  "Report how many objects of each type the store holds, with attribute counts per table",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := db.Query(`SELECT object_type_id, COUNT(*) FROM objects GROUP BY object_type_id ORDER BY object_type_id`)
		if err != nil {
			return fmt.Errorf("failed to query object counts: %w", err)
		}
		defer rows.Close()

		table := ui.NewTable(os.Stdout, []string{"TYPE ID", "OBJECTS"}, &ui.TableOptions{
			Aligns:  []ui.Align{ui.AlignRight, ui.AlignRight},
			NoColor: statsNoColor,
		})

		total := int64(0)
		for rows.Next() {
			var typeID, count int64
			if err := rows.Scan(&typeID, &count); err != nil {
				return fmt.Errorf("failed to scan object counts: %w", err)
			}
			total += count
			table.AddRow(strconv.FormatInt(typeID, 10), strconv.FormatInt(count, 10))
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read object counts: %w", err)
		}

		ui.Header(os.Stdout, "Objects by type", statsNoColor)
		table.Render()
		fmt.Println()

		kv := ui.NewKeyValueTable(os.Stdout, statsNoColor)
		kv.AddRow("Total objects", strconv.FormatInt(total, 10))
		for _, t := range []struct{ label, table string }{
			{"Value attributes", "attributes"},
			{"Date attributes", "date_attributes"},
			{"List attributes", "list_attributes"},
			{"References", "object_references"},
		} {
			var n int64
			if err := db.QueryRow("SELECT COUNT(*) FROM " + t.table).Scan(&n); err != nil {
				return fmt.Errorf("failed to count %s: %w", t.table, err)
			}
			kv.AddRow(t.label, strconv.FormatInt(n, 10))
		}
		kv.Render()

		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsNoColor, "no-color", false, "Disable colored output")
}
