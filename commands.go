package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ipblocks/cidr"
)

func newRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "ipblocks",
		Short:         "Convert between CIDR blocks, address ranges and address lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newRangeCmd(),
		newListCmd(),
		newAggregateCmd(),
		newMergeCmd(),
		newServeCmd(cfg),
	)
	return root
}

func newRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range CIDR",
		Short: "Print the first and last address of a CIDR block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cidr.RangeOf(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Start, r.End)
			return err
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list CIDR",
		Short: "Print every address of a CIDR block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := cidr.List(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			bw := bufio.NewWriter(cmd.OutOrStdout())
			n := 0
			for addr := range seq {
				if n++; n%65536 == 0 && ctx != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				if _, err := bw.WriteString(addr + "\n"); err != nil {
					return err
				}
			}
			return bw.Flush()
		},
	}
}

func newAggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate [FILE]",
		Short: "Compact a list of addresses into CIDR blocks",
		Long: `Reads one address per line from FILE, or stdin when FILE is "-" or
omitted, and prints the smallest set of CIDR blocks covering them. An
address with no neighbours is printed bare.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			blocks, err := cidr.Aggregate(lines)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), blocks)
		},
	}
}

func newMergeCmd() *cobra.Command {
	var asRanges bool

	cmd := &cobra.Command{
		Use:   "merge [FILE]",
		Short: "Merge addresses, CIDR blocks and ranges",
		Long: `Reads addresses, CIDR blocks and start-end ranges, one per line, and
prints them merged as CIDR blocks, or as ranges with --ranges.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return errors.Wrap(cidr.ErrEmptyInput, "merge")
			}

			ranges := make([]cidr.Range, 0, len(lines))
			for i, v := range lines {
				r, err := cidr.ParseEntry(v)
				if err != nil {
					return errors.Wrapf(err, "entry %d", i+1)
				}
				ranges = append(ranges, r)
			}
			ranges = cidr.MergeRanges(ranges)

			var out []fmt.Stringer
			if asRanges {
				for _, r := range ranges {
					out = append(out, r)
				}
			} else {
				for _, b := range cidr.BlocksOf(ranges) {
					out = append(out, b)
				}
			}
			return writeLines(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&asRanges, "ranges", false, "print start-end ranges instead of CIDR blocks")
	return cmd
}

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Block matching transmission peers and serve the blocklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.RPC, "rpc", cfg.RPC, "transmission rpc url")
	f.StringVar(&cfg.DB, "db", cfg.DB, "blocklist db path")
	f.StringVar(&cfg.File, "file", cfg.File, "blocklist file path")
	f.StringVar(&cfg.Listen, "host", cfg.Listen, "listen host")
	f.StringVar(&cfg.RulesDir, "rules-dir", cfg.RulesDir, "directory holding all.txt and custom.txt")
	f.StringVar(&cfg.RulesURL, "rules-url", cfg.RulesURL, "download all.txt from here when missing")
	f.StringVar(&cfg.Firewall, "firewall", cfg.Firewall, "none, iptables or nftables")
	f.DurationVar(&cfg.Interval, "interval", cfg.Interval, "poll interval")
	f.DurationVar(&cfg.Expire, "expire", cfg.Expire, "forget peers not seen for this long")
	f.BoolVar(&cfg.SkipLocal, "skip-local", cfg.SkipLocal, "never firewall private or loopback blocks")
	return cmd
}

// readInput reads the non-empty, non-comment lines of the first argument,
// or of stdin. The result is never nil.
func readInput(cmd *cobra.Command, args []string) ([]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	lines := []string{}
	s := bufio.NewScanner(r)
	for s.Scan() {
		if v := stripComment(s.Text()); v != "" {
			lines = append(lines, v)
		}
	}
	return lines, s.Err()
}

func writeLines[T any](w io.Writer, lines []T) error {
	bw := bufio.NewWriter(w)
	for _, v := range lines {
		if _, err := fmt.Fprintln(bw, v); err != nil {
			return err
		}
	}
	return bw.Flush()
}
