package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "summarize":
		return runSummarize(args[1:])
	case "merge":
		return runMerge(args[1:])
	case "email":
		return runEmail(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "schedule":
		return runSchedule(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "civicsum CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  civicsum <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health     Verify data directory and run ledger")
	fmt.Fprintln(os.Stderr, "  fetch      Discover meeting documents from the city site")
	fmt.Fprintln(os.Stderr, "  summarize  Summarize fetched documents into the current batch")
	fmt.Fprintln(os.Stderr, "  merge      Merge the current batch into the historical archive")
	fmt.Fprintln(os.Stderr, "  email      Send the summary report for the current batch")
	fmt.Fprintln(os.Stderr, "  process    Run fetch + summarize + merge + email in sequence")
	fmt.Fprintln(os.Stderr, "  run-once   Alias for process")
	fmt.Fprintln(os.Stderr, "  schedule   Run process on the configured cron schedule")
	fmt.Fprintln(os.Stderr, "  serve      Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"civicsum <command> -h\" for command-specific flags.")
}
