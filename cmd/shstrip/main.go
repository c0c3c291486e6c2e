package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elf-tools/shstrip/internal/stripper"
	"github.com/elf-tools/shstrip/internal/utils"
	"github.com/elf-tools/shstrip/internal/verify"
)

// errUsage marks invocations that only print usage and exit with success,
// matching the tool's historical behavior for --help and bad argument counts.
var errUsage = errors.New("usage requested")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		verbose    bool
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "shstrip <input-path> <output-path>",
		Short: "ELF-32/64 section header stripper",
		Long: `shstrip removes the section header table and the section-header string
table from an ELF binary, then rewrites the ELF header so it no longer
references them.

A loaded process only needs program headers; section headers exist for
linkers and debuggers. Stripping them shrinks the file and defeats tools
that rely on section metadata, such as symbol-name-based disassembly.

The input file is never modified. The output is a byte-for-byte prefix of
the input, ending where the section header table began, with the four
section-table header fields (offset, entry size, count, string-table
index) forced to zero.

Examples:
  # Strip section headers from a binary
  shstrip ./a.out ./a.stripped

  # Check whether a file has already been stripped
  shstrip verify ./a.stripped`,
		Version:       utils.GetVersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				cmd.Help()
				return errUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrip(args[0], args[1], configFile, verbose, skipVerify)
		},
	}

	// Usage and help go to standard error; standard output stays clean.
	cmd.SetOut(os.Stderr)

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the verification pass on the emitted file")

	cmd.AddCommand(newVerifyCmd(&configFile, &verbose))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVerifyCmd(configFile *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <path>",
		Short: "Check whether a file is a stripped ELF image",
		Long: `Verify runs the stripped-image checks against a file: a valid ELF magic
signature and class byte, and all four section-table header fields reading
as zero. A file that still references section headers fails verification.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := verify.NewRunner(verify.NewRegistry())
			report := runner.RunAll(args[0])
			printReport(report)
			if report.FailedChecks > 0 {
				return fmt.Errorf("%d of %d verification checks failed", report.FailedChecks, report.TotalChecks)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shstrip version %s\n", utils.Version)
			fmt.Printf("Commit: %s\n", utils.Commit)
			fmt.Printf("Built: %s\n", utils.Date)
		},
	}
}

// runStrip executes the strip pipeline and, unless disabled, the
// verification pass on the emitted file.
func runStrip(inputPath, outputPath, configFile string, verbose, skipVerify bool) error {
	var config *utils.Config
	var err error

	if configFile != "" {
		config, err = utils.LoadConfigFromFile(configFile)
	} else {
		config, err = utils.LoadDefaultConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	loggerConfig := utils.LoggerConfig{
		Level:  utils.LogLevel(config.LogLevel),
		Format: utils.LogFormat(config.LogFormat),
	}
	if verbose {
		loggerConfig.Level = utils.LogLevelDebug
	}
	logger := utils.NewLogger(loggerConfig)

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	s := stripper.New(logger)
	if err := s.Strip(inputPath, outputPath); err != nil {
		return err
	}

	if skipVerify || !config.Verify {
		return nil
	}

	runner := verify.NewRunner(verify.NewRegistry())
	report := runner.RunAll(outputPath)
	for _, result := range report.Results {
		logger.WithComponent("verify").Debugf("%s: %s (%s)", result.ID, result.Status, result.Details)
	}
	if report.FailedChecks > 0 {
		return fmt.Errorf("stripped file failed verification: %d of %d checks failed",
			report.FailedChecks, report.TotalChecks)
	}
	logger.WithComponent("verify").Infof("Verified %s: %d/%d checks passed",
		outputPath, report.PassedChecks, report.TotalChecks)
	return nil
}

// printReport prints a verification report in human-readable form.
func printReport(report *verify.Report) {
	fmt.Printf("Verification report for %s\n", report.Path)
	fmt.Printf("Checks: %d total, %d passed, %d failed\n\n", report.TotalChecks, report.PassedChecks, report.FailedChecks)
	for _, result := range report.Results {
		status := "PASS"
		if result.Status != "pass" {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s: %s\n", status, result.ID, result.Details)
	}
}
