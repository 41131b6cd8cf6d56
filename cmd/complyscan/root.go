package complyscan

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagJSON    bool
	flagThreads int
	flagVerbose bool
	flagNoColor bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the Complyscan CLI.
var rootCmd = &cobra.Command{
	Use:           "complyscan",
	Short:         "Scan databases for compliance violations",
	Long:          "Complyscan checks tables and collections against declarative policy rules and reports scored, framework-tagged violations.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the Complyscan CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "concurrent checks (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
}

func newLogger(noColor bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{DisableColors: noColor})
	return log
}
