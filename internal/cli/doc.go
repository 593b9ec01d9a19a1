// Package cli implements the stitch command line interface.
//
// Commands share global --verbose and --format flags. JSON output uses a
// stable response envelope (CLIResponse) so scripts can parse results and
// errors uniformly; diagnostic logs always go to stderr.
package cli
