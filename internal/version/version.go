package version

import "fmt"

var (
	CLIName    = "crona"
	CLIVersion = "0.3.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

func Long() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", CLIVersion, Commit, BuildDate)
}
