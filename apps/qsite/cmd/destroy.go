package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the distribution, bucket and uploaded objects",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			app.Log.Fatalf("refusing to destroy %s/%s without --yes", app.Config.Project, app.Config.Stack)
		}

		driver, closeDriver, err := app.Driver(false)
		exitIfSiteError(app.Log, err)
		defer closeDriver()

		exitIfSiteError(app.Log, driver.Destroy(cmd.Context()))
		fmt.Printf("Stack %s destroyed.\n", app.Config.Stack)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reconcile recorded state with what exists in AWS",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		driver, closeDriver, err := app.Driver(false)
		exitIfSiteError(app.Log, err)
		defer closeDriver()

		exitIfSiteError(app.Log, driver.Refresh(cmd.Context()))
		fmt.Println("Refresh completed successfully.")
	},
}

func init() {
	destroyCmd.Flags().Bool("yes", false, "confirm destruction")
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(refreshCmd)
}
