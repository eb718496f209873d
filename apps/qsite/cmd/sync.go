package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quatton/qsite/pkg/qart"
	"github.com/quatton/qsite/pkg/qerr"
)

var syncCmd = &cobra.Command{
	Use:   "sync [dir]",
	Short: "Upload artifacts straight to an S3-compatible endpoint",
	Long: `sync uploads the artifacts to the bucket at QSITE_S3_ENDPOINT without going
through the stack. It is meant for MinIO and other S3-compatible stores
used in development; no CloudFront distribution is created.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp(cmd)
		ctx := cmd.Context()

		if !app.Env.HasS3() {
			exitIfSiteError(app.Log, qerr.New(qerr.CodeConfigInvalid, errors.New("sync needs QSITE_S3_ENDPOINT, QSITE_S3_ACCESS_KEY and QSITE_S3_SECRET_KEY")))
		}
		if app.Config.BucketName == "" {
			exitIfSiteError(app.Log, qerr.New(qerr.CodeConfigInvalid, errors.New("bucket name is required")))
		}

		dir, err := artifactsDir(cmd, app, args)
		exitIfSiteError(app.Log, err)

		store, err := qart.NewS3Store(qart.S3Config{
			Endpoint:  app.Env.S3Endpoint,
			AccessKey: app.Env.S3AccessKey,
			SecretKey: app.Env.S3SecretKey,
			Bucket:    app.Config.BucketName,
			Region:    app.Env.S3Region,
			UseSSL:    app.Env.S3UseSSL,
		})
		exitIfSiteError(app.Log, qerr.New(qerr.CodeConfigInvalid, err))

		exitIfSiteError(app.Log, qerr.InStage(qerr.StageBucket, qerr.CodeProvisioningFailure, store.EnsureBucket(ctx)))

		flagPrefix, _ := cmd.Flags().GetString("prefix")
		prefix := qart.DirPrefix(flagPrefix)
		records, err := qart.UploadTree(ctx, dir, qart.StoreSink{Store: store, Prefix: prefix}, qart.Options{
			Concurrency: app.Config.Concurrency,
			Log:         app.Log,
		})
		exitIfSiteError(app.Log, qerr.InStage(qerr.StageUpload, qerr.CodeUploadFailure, err))
		fmt.Printf("Uploaded %d objects to %s/%s\n", len(records), store.Bucket(), prefix)

		if prune, _ := cmd.Flags().GetBool("prune"); prune {
			deleted, err := qart.Prune(ctx, store, prefix, records)
			exitIfSiteError(app.Log, qerr.InStage(qerr.StageUpload, qerr.CodeUploadFailure, err))
			for _, key := range deleted {
				app.Log.Info("Deleted stale object", "key", key)
			}
			fmt.Printf("Pruned %d objects\n", len(deleted))
		}
	},
}

func init() {
	syncCmd.Flags().String("prefix", "", "key prefix inside the bucket")
	syncCmd.Flags().Bool("prune", false, "delete objects that are no longer in the artifacts")
	rootCmd.AddCommand(syncCmd)
}
