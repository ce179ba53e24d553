package main

import (
	"fmt"
	"time"

	obras2pdf "github.com/alnah/go-obras2pdf"
)

// printResults writes one line per record and a closing tally. Failures go
// to stderr even in quiet mode.
func printResults(s *obras2pdf.Summary, quiet, verbose bool, env *Environment) {
	for _, r := range s.Results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.ID, r.Err)
			continue
		}
		if quiet {
			continue
		}

		switch {
		case s.DryRun:
			fmt.Fprintf(env.Stdout, "Checked %s\n", r.ID)
		case verbose:
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.ID, r.OutputPath, r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
		if r.Published != "" {
			fmt.Fprintf(env.Stdout, "Published %s\n", r.Published)
		}
	}

	if s.BundleErr != nil {
		fmt.Fprintf(env.Stderr, "FAILED bundle: %v\n", s.BundleErr)
	} else if s.BundlePath != "" && !quiet {
		fmt.Fprintf(env.Stdout, "Bundled %s\n", s.BundlePath)
	}

	if quiet {
		return
	}
	fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", s.Succeeded, s.Failed)
	if s.Cancelled > 0 {
		fmt.Fprintf(env.Stdout, "%d cancelled before conversion\n", s.Cancelled)
	}
	if s.PublishFailed > 0 {
		fmt.Fprintf(env.Stdout, "%d upload(s) failed\n", s.PublishFailed)
	}
	if s.DryRun {
		fmt.Fprintln(env.Stdout, "Dry run: no files written")
	}
}
