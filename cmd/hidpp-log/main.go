// Command hidpp-log is a tool for viewing and analyzing HID++ protocol log
// files.
//
// Log files are created by wiring a log.FileLogger into a channel's
// configuration.
//
// Usage:
//
//	hidpp-log <command> [flags] <file.hlog>
//
// Commands:
//
//	view      View log file in human-readable format
//	export    Export log file to JSON or CSV format
//	filter    Filter log file and write to new file
//	stats     Show statistics about the log file
//	features  Look up feature IDs in the known feature catalog
//
// Examples:
//
//	# View all events
//	hidpp-log view receiver.hlog
//
//	# View only wire-layer events
//	hidpp-log view --layer wire receiver.hlog
//
//	# View only outgoing messages
//	hidpp-log view --direction out receiver.hlog
//
//	# Export to JSONL
//	hidpp-log export --format jsonl receiver.hlog
//
//	# Filter by channel and save to new file
//	hidpp-log filter --channel-id abc12345 -o filtered.hlog receiver.hlog
//
//	# Show statistics
//	hidpp-log stats receiver.hlog
//
//	# Name the feature IDs a device enumeration turned up
//	hidpp-log features 0x1004 0x2121 wheel
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lus/hidpp-go/cmd/hidpp-log/commands"
)

const usage = `hidpp-log - HID++ Protocol Log Analyzer

Usage:
  hidpp-log <command> [flags] <file.hlog>

Commands:
  view      View log file in human-readable format
  export    Export log file to JSON or CSV format
  filter    Filter log file and write to new file
  stats     Show statistics about the log file
  features  Look up feature IDs in the known feature catalog

Use "hidpp-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "features":
		runFeatures(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `hidpp-log view - View log file in human-readable format

Usage:
  hidpp-log view [flags] <file.hlog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, protocol)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter commands.ViewFilter

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `hidpp-log export - Export log file to JSON or CSV format

Usage:
  hidpp-log export [flags] <file.hlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `hidpp-log filter - Filter log file and write to new file

Usage:
  hidpp-log filter [flags] <file.hlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	config := fs.String("config", "", "Load filter options from a YAML file")
	channelID := fs.String("channel-id", "", "Filter by channel ID")
	deviceIndex := fs.Int("device-index", -1, "Filter decoded messages by device index")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, protocol)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	var opts commands.FilterOptions
	if *config != "" {
		loaded, err := commands.LoadFilterOptions(*config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts = loaded
	}

	// Flags override the config file.
	if *output != "" {
		opts.Output = *output
	}
	if *channelID != "" {
		opts.ChannelID = *channelID
	}
	if *deviceIndex >= 0 {
		opts.DeviceIndex = deviceIndex
	}
	if *timeStart != "" {
		opts.TimeStart = *timeStart
	}
	if *timeEnd != "" {
		opts.TimeEnd = *timeEnd
	}
	if *layer != "" {
		opts.Layer = *layer
	}
	if *direction != "" {
		opts.Direction = *direction
	}
	if *category != "" {
		opts.Category = *category
	}

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(fs.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFeatures(args []string) {
	fs := flag.NewFlagSet("features", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `hidpp-log features - Look up feature IDs in the known feature catalog

Usage:
  hidpp-log features [query ...]

A query is a feature ID (0x1004) or a name fragment (battery). Without
queries the whole catalog is printed.

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if err := commands.RunFeatures(fs.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `hidpp-log stats - Show statistics about the log file

Usage:
  hidpp-log stats <file.hlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
