package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quatton/qsite/pkg/qsite"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Print the deployed bucket name and CloudFront URL",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		driver, closeDriver, err := app.Driver(false)
		exitIfSiteError(app.Log, err)
		defer closeDriver()

		out, err := driver.Outputs(cmd.Context())
		exitIfSiteError(app.Log, err)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			exitIfSiteError(app.Log, enc.Encode(map[string]string{
				qsite.OutputBucketName:    out.BucketName,
				qsite.OutputCloudfrontURL: out.CloudfrontURL,
			}))
			return
		}
		fmt.Printf("bucketName:    %s\n", out.BucketName)
		fmt.Printf("cloudfrontUrl: %s\n", out.CloudfrontURL)
	},
}

func init() {
	outputsCmd.Flags().Bool("json", false, "print outputs as JSON")
	rootCmd.AddCommand(outputsCmd)
}
