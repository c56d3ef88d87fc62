// Package main provides a domain monitoring tool that tracks registration and
// expiration dates and mails a report when domains are about to expire.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mallocator/domain-expiry/pkg/config"
	"github.com/mallocator/domain-expiry/pkg/dns"
	"github.com/mallocator/domain-expiry/pkg/domain"
	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/notify"
	"github.com/mallocator/domain-expiry/pkg/report"
	"github.com/mallocator/domain-expiry/pkg/state"
	"github.com/mallocator/domain-expiry/pkg/whois"
)

// options holds the command line flags
type options struct {
	configFile string
	dbPath     string
	verbose    bool
	debug      bool
	days       int
	email      string
	from       string
	csv        bool
}

// buildFunc wires a processor for one invocation and returns its cleanup
type buildFunc func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*domain.Processor, func() error, error)

func main() {
	log := logger.New()
	if err := newRootCmd(log, buildProcessor).ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// buildProcessor opens the store and picks the lookup backend and mail transport
func buildProcessor(ctx context.Context, cfg *config.Config, log *logger.Logger) (*domain.Processor, func() error, error) {
	store, err := state.Open(ctx, cfg.DBPath, log)
	if err != nil {
		return nil, nil, err
	}

	var lookup whois.Lookuper
	switch cfg.LookupBackend {
	case config.BackendRDAP:
		lookup = whois.NewRDAP(cfg, log)
	default:
		checker := whois.New(cfg, log)
		if cfg.DNSCrossCheck {
			checker.SetProber(dns.New(cfg, log))
		}
		lookup = checker
	}

	return domain.New(cfg, log, store, lookup, notify.New(cfg, log)), store.Close, nil
}

// newRootCmd builds the command tree
func newRootCmd(log *logger.Logger, build buildFunc) *cobra.Command {
	opts := &options{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "domain-checker",
		Short:         "Track domain registrations and warn before they expire",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd, opts, log)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (JSON or YAML)")
	flags.StringVar(&opts.dbPath, "db", "", "database file (default ~/.domain-checker.db)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print progress and confirmations")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.IntVarP(&opts.days, "days-til-expire", "d", 14, "report domains expiring within this many days")
	flags.StringVarP(&opts.email, "email", "e", "", "notification recipient (default $USER)")
	flags.StringVarP(&opts.from, "from", "f", "", "notification sender")

	// run wires a processor, hands it to fn and closes the store afterwards
	run := func(fn func(cmd *cobra.Command, args []string, p *domain.Processor) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeFn(); cerr != nil {
					log.Warnf("Failed to close database: %v", cerr)
				}
			}()
			return fn(cmd, args, p)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show all monitored domains",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, p *domain.Processor) error {
			records, err := p.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.csv {
				fmt.Fprintln(out, report.FormatCSV(records))
				return nil
			}
			if len(records) == 0 {
				log.Infof("No domains are being monitored")
				return nil
			}
			fmt.Fprintln(out, report.Format(records))
			return nil
		}),
	}
	list.Flags().BoolVar(&opts.csv, "csv", false, "print comma-separated values")

	export := &cobra.Command{
		Use:   "export",
		Short: "Print monitored hostnames, one per line",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, p *domain.Processor) error {
			names, err := p.Export(cmd.Context())
			if err != nil {
				return err
			}
			if names != "" {
				fmt.Fprintln(cmd.OutOrStdout(), names)
			}
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <hostname>",
		Short: "Look a domain up and start monitoring it",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, p *domain.Processor) error {
			rec, err := p.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec.Registered {
				log.Infof("This domain is registered and expires on %s.", rec.ExpiresString())
			} else {
				log.Infof("This domain is not registered.")
			}
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <hostname>",
		Short: "Stop monitoring a domain",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, p *domain.Processor) error {
			return p.Delete(cmd.Context(), args[0])
		}),
	}

	upcoming := &cobra.Command{
		Use:   "listupcoming",
		Short: "Refresh all domains and show the ones expiring soon",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, p *domain.Processor) error {
			rep, err := p.RefreshAndReport(cmd.Context(), cfg.ThresholdDays)
			if err != nil {
				return err
			}
			if len(rep.Flagged) == 0 {
				log.Infof("No domains expiring soon")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Format(rep.Flagged))
			return nil
		}),
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Refresh all domains and mail the ones expiring soon",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, _ []string, p *domain.Processor) error {
			_, err := p.Check(cmd.Context(), cfg.ThresholdDays)
			return err
		}),
	}

	root.AddCommand(list, export, add, del, upcoming, check)
	return root
}

// loadConfig layers defaults, .env, the config file, the environment and finally
// the flags that were set explicitly
func loadConfig(cmd *cobra.Command, opts *options, log *logger.Logger) (*config.Config, error) {
	if opts.debug {
		log.SetDebug(true)
	}

	cfg := config.New(log)
	if err := cfg.LoadDotEnv(""); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.LoadFromFile(opts.configFile); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.LoadFromEnv()

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if flags.Changed("days-til-expire") {
		cfg.ThresholdDays = opts.days
	}
	if flags.Changed("email") {
		cfg.EmailTo = opts.email
	}
	if flags.Changed("from") {
		cfg.EmailFrom = opts.from
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.SetVerbose(cfg.Verbose)
	if cfg.LogFile != "" {
		log.SetLogFile(cfg.LogFile)
	}
	return cfg, nil
}

// printError writes the diagnostic for a failed command
func printError(w io.Writer, err error) {
	var abort *domain.AbortError
	if errors.As(err, &abort) {
		fmt.Fprintf(w, "Failure to lookup domain %s\n---\n%s\n", abort.Hostname, abort.Detail)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
