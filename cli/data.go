package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stevemurr/content-builder/migrate"
	"github.com/stevemurr/content-builder/model"
)

func (a *app) migrateCmd() *cobra.Command {
	var (
		from    string
		orphans string
		reset   bool
		dryRun  bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Load a legacy JSON snapshot into the configured backend",
		Long: `migrate reads creators.json, content_sets.json and cards.json from a legacy
data directory, folds legacy platform fields into platform lists, removes
duplicate content sets and writes the result into the configured backend.`,
		Example: `  content-builder migrate --from ./legacy --backend sqlite
  content-builder migrate --from ./legacy --orphans reassign --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := migrate.ParseOrphanPolicy(orphans)
			if err != nil {
				return err
			}
			data, err := a.openData()
			if err != nil {
				return err
			}
			defer data.Close()

			m := migrate.New(data.Backend(), migrate.Options{Reset: reset, DryRun: dryRun, Orphans: policy}, a.log)
			report, err := m.Run(cmd.Context(), from)
			if report != nil {
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(report); encErr != nil {
						return encErr
					}
				} else {
					report.Print(cmd.OutOrStdout())
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "legacy data directory")
	f.StringVar(&orphans, "orphans", string(migrate.OrphanDrop), "cards of discarded duplicate sets: drop or reassign")
	f.BoolVar(&reset, "reset", false, "delete everything in the target first")
	f.BoolVar(&dryRun, "dry-run", false, "report what would be migrated without writing")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every entity of the configured backend to a portable export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = filepath.Join(a.cfg.Export.Dir, "export_"+model.Now().Format("20060102_150405"))
			}
			data, err := a.openData()
			if err != nil {
				return err
			}
			defer data.Close()

			files, err := data.ExportAll(cmd.Context(), out)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(files))
			for k := range files {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-9s %s\n", k, files[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory (default <export dir>/export_<timestamp>)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a portable export directory into the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.openData()
			if err != nil {
				return err
			}
			defer data.Close()

			res, err := data.ImportAll(cmd.Context(), from)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d creators, %d sets, %d cards from %s\n",
				res.Creators, res.Sets, res.Cards, from)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "export directory to import")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of every entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.openData()
			if err != nil {
				return err
			}
			defer data.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data.SystemSchema())
		},
	}
}
