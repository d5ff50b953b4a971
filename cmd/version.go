package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/data-goblin/fabric-cli-plugin/pkg/data"
	"github.com/data-goblin/fabric-cli-plugin/pkg/version"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	OS      string `json:"os" yaml:"os"`
	Arch    string `json:"arch" yaml:"arch"`
	Go      string `json:"go" yaml:"go"`
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display the version of fabkit you are running",
	Example: "fabkit version\nfabkit version --format json",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		info := versionInfo{Version: version.Version, OS: runtime.GOOS, Arch: runtime.GOARCH, Go: runtime.Version()}
		return data.WriteFormatted(format, info, func() string {
			return "fabkit " + info.Version + " " + info.OS + "/" + info.Arch + "\n"
		})
	},
}

func init() {
	versionCmd.Flags().StringP("format", "f", "", "Output format: json or yaml")
	RootCmd.AddCommand(versionCmd)
}
