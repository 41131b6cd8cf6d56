package complyscan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables and their schemas",
		RunE:  runTables,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagDBType, "db-type", "", "database type: postgresql|mysql|sqlite|mongodb")
	cmd.Flags().StringVar(&flagHost, "host", "", "database host")
	cmd.Flags().IntVar(&flagPort, "port", 0, "database port")
	cmd.Flags().StringVar(&flagDBName, "db-name", "", "database name (file path for sqlite)")
	cmd.Flags().StringVar(&flagUser, "user", "", "database user")
	cmd.Flags().StringVar(&flagPassword, "password", "", "database password")
	cmd.Flags().StringVar(&flagDSN, "dsn", "", "full connection string (overrides host/port/name)")
}

func runTables(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal("."); err == nil {
		lcfg = c
	}
	bcfg := resolveBackendConfig(lcfg.Database, gcfg.Database)
	if bcfg.Type == "" {
		return fmt.Errorf("no database configured: set --db-type or a database section in .complyscan.yml")
	}

	b, err := backend.Open(ctx, bcfg)
	if err != nil {
		return err
	}
	defer b.Close()

	schemas, errs := backend.FullSchema(ctx, b)
	log := newLogger(pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor))
	for _, err := range errs {
		log.WithError(err).Warn("schema introspection failed")
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		schema := schemas[name]
		fmt.Printf("%s (%d columns)\n", name, len(schema.Columns))
		for _, col := range schema.Columns {
			null := "NOT NULL"
			if col.Nullable {
				null = "NULL"
			}
			fmt.Printf("  %-24s %-16s %s\n", col.Name, col.Type, null)
		}
	}
	return nil
}
