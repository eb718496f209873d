// Package qsite provisions a static web application behind CloudFront from a
// component's prebuilt artifacts.
//
// The stages run in a fixed order and each one consumes what the previous
// produced:
//
//	resolve -> fetch -> bucket -> upload -> access -> distribution
//
// Resolve and fetch touch only the local disk, so a bad manifest or a failed
// registry fetch never issues a single cloud resource description.
//
// A deployment is single-writer: two concurrent runs against the same stack
// and bucket name race inside the engine. Use the kv lock or run serially.
package qsite

import (
	"context"
	"errors"

	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/cloudfront"
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/s3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/quatton/qsite/pkg/qart"
	"github.com/quatton/qsite/pkg/qcdn"
	"github.com/quatton/qsite/pkg/qcomp"
	"github.com/quatton/qsite/pkg/qerr"
	"github.com/quatton/qsite/pkg/qfetch"
	"github.com/quatton/qsite/pkg/qlog"
)

// ComponentType is the Pulumi type token of the WebSite component.
const ComponentType = "qsite:aws:WebSite"

// Stack output names.
const (
	OutputBucketName    = "bucketName"
	OutputCloudfrontURL = "cloudfrontUrl"
)

// ArtifactFetcher materializes ref's artifacts under destDir.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, ref qcomp.Ref, destDir string) error
}

// Args configures a WebSite.
type Args struct {
	// BucketName is the logical name every resource name derives from.
	BucketName string
	// PackagePath is the installed entry path of the web component package.
	PackagePath string
	// Variant selects a subdirectory of the artifacts, if any.
	Variant   string
	Workspace qcomp.Workspace
	// Fetcher defaults to a qfetch.Fetcher running in Workspace.Root.
	Fetcher ArtifactFetcher
	// KeepStale skips clearing previously fetched artifacts.
	KeepStale bool
	Log       *qlog.Logger
}

func (a Args) validate() error {
	var errs []error
	if a.BucketName == "" {
		errs = append(errs, errors.New("bucket name is required"))
	}
	if a.PackagePath == "" {
		errs = append(errs, errors.New("web component package path is required"))
	}
	if a.Workspace.Root == "" {
		errs = append(errs, errors.New("workspace root is required"))
	}
	return qerr.New(qerr.CodeConfigInvalid, errors.Join(errs...))
}

// WebSite is the provisioned site.
type WebSite struct {
	pulumi.ResourceState

	Ref          qcomp.Ref
	ArtifactsDir string
	Records      []qart.Record

	Bucket       *s3.Bucket
	Access       *qcdn.Access
	Distribution *cloudfront.Distribution

	BucketName pulumi.StringOutput
	URL        pulumi.StringOutput
}

// New runs every stage in order and returns the provisioned site. The first
// failing stage aborts the rest; its error carries the stage name.
func New(ctx *pulumi.Context, args Args, opts ...pulumi.ResourceOption) (*WebSite, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	log := args.Log.OrDiscard().With("bucket", args.BucketName)
	goctx := ctx.Context()
	name := args.BucketName
	args.Log = log

	ref, dir, err := Prepare(goctx, args)
	if err != nil {
		return nil, err
	}

	site := &WebSite{Ref: ref, ArtifactsDir: dir}
	if err := ctx.RegisterComponentResource(ComponentType, name, site, opts...); err != nil {
		return nil, qerr.InStage(qerr.StageBucket, qerr.CodeProvisioningFailure, err)
	}
	child := pulumi.Parent(site)

	// bucket
	log.Info("Creating S3 bucket...")
	site.Bucket, err = qcdn.ProvisionBucket(ctx, name, child)
	if err != nil {
		return nil, qerr.InStage(qerr.StageBucket, qerr.CodeProvisioningFailure, err)
	}

	// upload; registration is asynchronous already, so one at a time suffices
	site.Records, err = qart.UploadTree(goctx, dir, qcdn.NewObjectSink(ctx, name, site.Bucket, child), qart.Options{
		Concurrency: 1,
		Log:         log,
	})
	if err != nil {
		return nil, qerr.InStage(qerr.StageUpload, qerr.CodeUploadFailure, err)
	}
	log.Info("Described bucket objects", "count", len(site.Records))

	// access
	site.Access, err = qcdn.ProvisionAccess(ctx, name, site.Bucket, child)
	if err != nil {
		return nil, qerr.InStage(qerr.StageAccess, qerr.CodeProvisioningFailure, err)
	}

	// distribution
	site.Distribution, err = qcdn.ProvisionDistribution(ctx, name, site.Bucket, site.Access, child)
	if err != nil {
		return nil, qerr.InStage(qerr.StageDistribution, qerr.CodeProvisioningFailure, err)
	}
	log.Info("CloudFront distribution described.")

	site.BucketName = site.Bucket.ID().ToStringOutput()
	site.URL = site.Distribution.DomainName.ApplyT(func(domain string) string {
		return "https://" + domain
	}).(pulumi.StringOutput)

	if err := ctx.RegisterResourceOutputs(site, pulumi.Map{
		OutputBucketName:    site.BucketName,
		OutputCloudfrontURL: site.URL,
	}); err != nil {
		return nil, qerr.InStage(qerr.StageDistribution, qerr.CodeProvisioningFailure, err)
	}
	return site, nil
}

// Prepare runs the local stages only, resolve and fetch, and returns the
// component and its verified artifacts directory.
func Prepare(ctx context.Context, args Args) (qcomp.Ref, string, error) {
	if args.PackagePath == "" || args.Workspace.Root == "" {
		return qcomp.Ref{}, "", qerr.New(qerr.CodeConfigInvalid, errors.New("package path and workspace root are required"))
	}
	log := args.Log.OrDiscard()

	ref, err := qcomp.Resolve(args.PackagePath)
	if err != nil {
		return qcomp.Ref{}, "", qerr.InStage(qerr.StageResolve, qerr.CodeUnknown, err)
	}
	log.Info("Resolved component", "component", ref.ID())

	dir, err := fetch(ctx, args, ref, log)
	if err != nil {
		return qcomp.Ref{}, "", qerr.InStage(qerr.StageFetch, qerr.CodeFetchToolFailure, err)
	}
	return ref, dir, nil
}

func fetch(ctx context.Context, args Args, ref qcomp.Ref, log *qlog.Logger) (string, error) {
	ws := args.Workspace

	existed, err := ws.Ensure()
	if err != nil {
		return "", err
	}
	if existed {
		log.Info("Directory already exists", "dir", ws.TmpDir())
	}
	if !args.KeepStale {
		if err := ws.CleanArtifacts(ref); err != nil {
			return "", err
		}
	}

	fetcher := args.Fetcher
	if fetcher == nil {
		fetcher = qfetch.New(ws.Root, qfetch.WithLogger(log))
	}
	if err := fetcher.Fetch(ctx, ref, ws.TmpDir()); err != nil {
		return "", err
	}

	dir := ws.ArtifactsDir(ref, args.Variant)
	if err := qfetch.VerifyArtifacts(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Export publishes the site's outputs on the stack.
func Export(ctx *pulumi.Context, site *WebSite) {
	ctx.Export(OutputBucketName, site.BucketName)
	ctx.Export(OutputCloudfrontURL, site.URL)
}

// Program returns a Pulumi program that provisions one site and exports its
// outputs.
func Program(args Args) pulumi.RunFunc {
	return func(ctx *pulumi.Context) error {
		site, err := New(ctx, args)
		if err != nil {
			return err
		}
		Export(ctx, site)
		return nil
	}
}
