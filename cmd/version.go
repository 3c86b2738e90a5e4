package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at release time, e.g.
// -ldflags "-X github.com/habedi/meterctl/cmd.version=1.2.0 -X github.com/habedi/meterctl/cmd.commit=$(git rev-parse HEAD)".
// Anything left empty is filled from the module build info.
var (
	version   = ""
	commit    = ""
	buildDate = ""
)

type buildInfo struct {
	Version   string
	Commit    string
	Date      string
	Modified  bool
	GoVersion string
	Platform  string
}

func currentBuildInfo() buildInfo {
	return resolveBuildInfo(debug.ReadBuildInfo)
}

// resolveBuildInfo prefers the linker-set values and falls back to what the Go
// toolchain embedded (module version and VCS stamps).
func resolveBuildInfo(read func() (*debug.BuildInfo, bool)) buildInfo {
	info := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := read(); ok && bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	} else if info.Modified {
		info.Commit += "-dirty"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

func versionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := currentBuildInfo()
			if short {
				cmd.Println(info.Version)
				return
			}
			cmd.Println("meterctl version:", info.Version)
			cmd.Println("Commit:", info.Commit)
			cmd.Println("Built:", info.Date)
			cmd.Println("Go version:", info.GoVersion)
			cmd.Println("Platform:", info.Platform)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
