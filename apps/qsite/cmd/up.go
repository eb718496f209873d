package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installPlugin bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Fetch, upload and serve the web app",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		driver, closeDriver, err := app.Driver(installPlugin)
		exitIfSiteError(app.Log, err)
		defer closeDriver()

		out, err := driver.Up(cmd.Context())
		exitIfSiteError(app.Log, err)

		fmt.Printf("bucketName:    %s\n", out.BucketName)
		fmt.Printf("cloudfrontUrl: %s\n", out.CloudfrontURL)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what up would change",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		driver, closeDriver, err := app.Driver(installPlugin)
		exitIfSiteError(app.Log, err)
		defer closeDriver()

		changes, err := driver.Preview(cmd.Context())
		exitIfSiteError(app.Log, err)

		for _, op := range []string{"create", "update", "replace", "delete", "same"} {
			if n := changes[op]; n > 0 {
				fmt.Printf("%-8s %d\n", op, n)
			}
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{upCmd, previewCmd} {
		c.Flags().BoolVar(&installPlugin, "install-plugin", false, "install the aws resource plugin before running")
		rootCmd.AddCommand(c)
	}
}
