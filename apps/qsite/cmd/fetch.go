package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quatton/qsite/pkg/qart"
	"github.com/quatton/qsite/pkg/qsite"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Resolve the component and fetch its artifacts without touching AWS",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		site, err := app.SiteArgs()
		exitIfSiteError(app.Log, err)

		ref, dir, err := qsite.Prepare(cmd.Context(), site)
		exitIfSiteError(app.Log, err)

		app.Log.Info("Artifacts ready", "component", ref.ID())
		fmt.Println(dir)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [dir]",
	Short: "List the objects an upload would write",
	Long: `plan walks an artifacts directory and prints every object key with the
content type it would be uploaded with. Without a directory it fetches the
configured component first.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)

		dir, err := artifactsDir(cmd, app, args)
		exitIfSiteError(app.Log, err)

		records, err := qart.Plan(dir)
		exitIfSiteError(app.Log, err)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tCONTENT TYPE\tSIZE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\n", r.Key, r.ContentType, r.Size)
		}
		w.Flush()
	},
}

// artifactsDir returns the directory argument when given, otherwise the
// freshly fetched artifacts of the configured component.
func artifactsDir(cmd *cobra.Command, app *App, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	site, err := app.SiteArgs()
	if err != nil {
		return "", err
	}
	_, dir, err := qsite.Prepare(cmd.Context(), site)
	return dir, err
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(planCmd)
}
