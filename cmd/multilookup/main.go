// Command `multilookup` resolves hostnames read from one or more input files
// and writes "hostname,address" lines to a single output file.
//
// Usage:
//
//	multilookup [flags] <inputFile>... <outputFile>
//	multilookup version
//	multilookup config init [--force]
//
// The last positional argument is always the output file; every argument
// before it is an input file. Input files hold whitespace-separated
// hostnames. The output file is truncated at start. A hostname that fails
// to resolve is written with an empty address.
//
// Examples:
//
//	multilookup names1.txt names2.txt results.txt
//	multilookup -r 4 -q 64 --summary names.txt results.txt
//	multilookup --dns-mode direct --dns-server 9.9.9.9:53 names.txt results.txt
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/multilookup/internal/buildinfo"
	"github.com/lc/multilookup/internal/config"
	"github.com/lc/multilookup/internal/dnsresolver"
	"github.com/lc/multilookup/internal/engine"
	"github.com/lc/multilookup/internal/filesys"
	"github.com/lc/multilookup/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors that should be followed by the usage text.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	configPath    string
	resolvers     int
	queueSize     int
	maxNameLength int
	dnsMode       string
	dnsServers    []string
	dnsTimeout    time.Duration
	summary       bool
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer log.Sync()

	if args == nil {
		// cobra falls back to os.Args when given nil.
		args = []string{}
	}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr usageError
	if errors.As(err, &uerr) || errors.Is(err, engine.ErrUsage) {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "multilookup [flags] <inputFile>... <outputFile>",
		Short: "Resolve hostnames from input files into a CSV-style output file",
		Long: `multilookup reads whitespace-separated hostnames from every input file,
resolves each one, and writes "hostname,address" lines to the output file.

Each input file is read by its own requester; a fixed pool of resolvers
drains the shared queue. Output order is not related to input order.
Hostnames that fail to resolve are written with an empty address.`,
		Example:       "multilookup names1.txt names2.txt results.txt",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(2)(cmd, args); err != nil {
				return usageError{fmt.Errorf("not enough arguments: %w", err)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				return err
			}

			runOpts := engine.Options{
				Inputs:        args[:len(args)-1],
				Output:        args[len(args)-1],
				QueueCapacity: cfg.Queue.Capacity,
				Resolvers:     cfg.Resolvers.Count,
				MaxNameLength: cfg.Names.MaxLength,
			}
			eng := engine.New(filesys.OS(), newResolver(cfg), runOpts)
			stats, err := eng.Run(cmd.Context())
			if err != nil {
				return err
			}
			if stats.Err != nil {
				log.Warn("multilookup: some input files were not fully ingested", "run", stats.RunID, "error", stats.Err)
			}
			if opts.summary {
				printSummary(cmd.OutOrStdout(), runOpts.Output, stats)
			}
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/"+config.DefaultConfigPath+")")
	fl := root.Flags()
	fl.IntVarP(&opts.resolvers, "resolvers", "r", config.DefaultResolvers,
		fmt.Sprintf("resolver pool size (%d-%d)", config.MinResolvers, config.MaxResolvers))
	fl.IntVarP(&opts.queueSize, "queue-size", "q", config.DefaultQueueCapacity, "shared queue capacity")
	fl.IntVar(&opts.maxNameLength, "max-name-length", config.DefaultMaxNameLength, "longer hostnames are truncated to this many bytes")
	fl.StringVar(&opts.dnsMode, "dns-mode", config.ModeSystem, `resolution mode: "system" or "direct"`)
	fl.StringSliceVar(&opts.dnsServers, "dns-server", nil, "DNS server host:port for direct mode (repeatable)")
	fl.DurationVar(&opts.dnsTimeout, "dns-timeout", config.DefaultDNSTimeout, "timeout per hostname")
	fl.BoolVar(&opts.summary, "summary", false, "print a per-task summary table")

	root.AddCommand(newVersionCmd(), newConfigCmd(&opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", buildinfo.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", buildinfo.Commit)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the default configuration to the config path (--config, or
~/` + config.DefaultConfigPath + `). An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.Save(filesys.OS(), path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

// loadConfig reads the config file and applies any flags set on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.New(opts.configPath).Load()
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("resolvers") {
		cfg.Resolvers.Count = opts.resolvers
	}
	if fl.Changed("queue-size") {
		cfg.Queue.Capacity = opts.queueSize
	}
	if fl.Changed("max-name-length") {
		cfg.Names.MaxLength = opts.maxNameLength
	}
	if fl.Changed("dns-mode") {
		cfg.DNS.Mode = opts.dnsMode
	}
	if fl.Changed("dns-server") {
		cfg.DNS.Servers = opts.dnsServers
	}
	if fl.Changed("dns-timeout") {
		cfg.DNS.Timeout = opts.dnsTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageError{fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)}
	}
	return cfg, nil
}

func newResolver(cfg *config.Config) dnsresolver.Resolver {
	if cfg.DNS.Mode == config.ModeDirect {
		return dnsresolver.New(cfg.DNS.Timeout, dnsresolver.WithServers(cfg.DNS.Servers))
	}
	return dnsresolver.NewSystem(cfg.DNS.Timeout)
}

func printSummary(w io.Writer, output string, st engine.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Task", "Source", "Hostnames", "Notes"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)

	for _, r := range st.Requesters {
		note := ""
		switch {
		case r.Err != nil:
			note = r.Err.Error()
		case r.Dropped > 0 || r.Truncated > 0:
			note = fmt.Sprintf("%d dropped, %d truncated", r.Dropped, r.Truncated)
		}
		table.Append([]string{"requester", r.Path, strconv.Itoa(r.Queued), note})
	}
	for _, r := range st.Resolvers {
		note := ""
		if r.LookupFailures > 0 {
			note = fmt.Sprintf("%d lookups failed", r.LookupFailures)
		}
		table.Append([]string{"resolver", "#" + strconv.Itoa(r.ID), strconv.Itoa(r.Processed), note})
	}
	table.Render()

	color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ wrote %d records to %s", st.Written, output)
	fmt.Fprintf(w, " in %s\n", st.Duration.Round(time.Millisecond))
	if st.FilesFailed > 0 {
		color.New(color.FgYellow).Fprintf(w, "%d of %d input files could not be read\n", st.FilesFailed, st.FilesTotal)
	}
}
