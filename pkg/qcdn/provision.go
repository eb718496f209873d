package qcdn

import (
	"context"

	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/cloudfront"
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/s3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/quatton/qsite/pkg/qart"
	"github.com/quatton/qsite/pkg/qerr"
)

// Access is the CDN-only read path into a bucket.
type Access struct {
	Identity *cloudfront.OriginAccessIdentity
	Policy   *s3.BucketPolicy
}

func provisioningError(resource string, err error) error {
	return qerr.WithSubject(qerr.CodeProvisioningFailure, resource, err)
}

// ProvisionBucket describes the private site bucket.
func ProvisionBucket(ctx *pulumi.Context, bucketName string, opts ...pulumi.ResourceOption) (*s3.Bucket, error) {
	spec := DefaultBucket()

	var cors s3.BucketCorsRuleArray
	for _, r := range spec.CORSRules {
		cors = append(cors, &s3.BucketCorsRuleArgs{
			AllowedHeaders: pulumi.ToStringArray(r.AllowedHeaders),
			AllowedMethods: pulumi.ToStringArray(r.AllowedMethods),
			AllowedOrigins: pulumi.ToStringArray(r.AllowedOrigins),
			ExposeHeaders:  pulumi.ToStringArray(r.ExposeHeaders),
			MaxAgeSeconds:  pulumi.Int(r.MaxAgeSeconds),
		})
	}

	bucket, err := s3.NewBucket(ctx, bucketName, &s3.BucketArgs{
		Acl:       pulumi.String(spec.ACL),
		CorsRules: cors,
	}, opts...)
	if err != nil {
		return nil, provisioningError(bucketName, err)
	}
	return bucket, nil
}

// ProvisionAccess describes the origin access identity and the bucket policy
// granting it read access. The policy body is only computed once both the
// bucket ARN and the identity ARN have resolved.
func ProvisionAccess(ctx *pulumi.Context, bucketName string, bucket *s3.Bucket, opts ...pulumi.ResourceOption) (*Access, error) {
	oaiName := IdentityName(bucketName)
	oai, err := cloudfront.NewOriginAccessIdentity(ctx, oaiName, &cloudfront.OriginAccessIdentityArgs{
		Comment: pulumi.String("CDN access to " + bucketName),
	}, opts...)
	if err != nil {
		return nil, provisioningError(oaiName, err)
	}

	body := pulumi.All(bucket.Arn, oai.IamArn).ApplyT(func(args []interface{}) (string, error) {
		return PolicyJSON(args[0].(string), args[1].(string))
	}).(pulumi.StringOutput)

	policyName := PolicyName(bucketName)
	policy, err := s3.NewBucketPolicy(ctx, policyName, &s3.BucketPolicyArgs{
		Bucket: bucket.ID(),
		Policy: body,
	}, opts...)
	if err != nil {
		return nil, provisioningError(policyName, err)
	}

	return &Access{Identity: oai, Policy: policy}, nil
}

// ProvisionDistribution describes the CloudFront distribution in front of
// bucket. It depends on the bucket policy explicitly, so the distribution is
// never live before CDN reads are granted.
func ProvisionDistribution(ctx *pulumi.Context, bucketName string, bucket *s3.Bucket, access *Access, opts ...pulumi.ResourceOption) (*cloudfront.Distribution, error) {
	spec := DefaultDistribution()
	cb := spec.DefaultCacheBehavior
	originID := bucket.ID().ToStringOutput()

	var errorResponses cloudfront.DistributionCustomErrorResponseArray
	for _, e := range spec.CustomErrorResponses {
		errorResponses = append(errorResponses, &cloudfront.DistributionCustomErrorResponseArgs{
			ErrorCode:          pulumi.Int(e.ErrorCode),
			ResponsePagePath:   pulumi.String(e.ResponsePagePath),
			ResponseCode:       pulumi.Int(e.ResponseCode),
			ErrorCachingMinTtl: pulumi.Int(e.ErrorCachingMinTTL),
		})
	}

	opts = append(opts, pulumi.DependsOn([]pulumi.Resource{access.Policy}))

	name := DistributionName(bucketName)
	dist, err := cloudfront.NewDistribution(ctx, name, &cloudfront.DistributionArgs{
		Origins: cloudfront.DistributionOriginArray{
			&cloudfront.DistributionOriginArgs{
				DomainName: bucket.BucketRegionalDomainName,
				OriginId:   originID,
				S3OriginConfig: &cloudfront.DistributionOriginS3OriginConfigArgs{
					OriginAccessIdentity: access.Identity.CloudfrontAccessIdentityPath,
				},
			},
		},
		Enabled:           pulumi.Bool(spec.Enabled),
		IsIpv6Enabled:     pulumi.Bool(spec.IPv6),
		DefaultRootObject: pulumi.String(spec.DefaultRootObject),
		DefaultCacheBehavior: &cloudfront.DistributionDefaultCacheBehaviorArgs{
			TargetOriginId:       originID,
			ViewerProtocolPolicy: pulumi.String(cb.ViewerProtocolPolicy),
			AllowedMethods:       pulumi.ToStringArray(cb.AllowedMethods),
			CachedMethods:        pulumi.ToStringArray(cb.CachedMethods),
			ForwardedValues: &cloudfront.DistributionDefaultCacheBehaviorForwardedValuesArgs{
				QueryString: pulumi.Bool(cb.ForwardQueryString),
				Headers:     pulumi.ToStringArray(cb.ForwardHeaders),
				Cookies: &cloudfront.DistributionDefaultCacheBehaviorForwardedValuesCookiesArgs{
					Forward: pulumi.String(cb.ForwardCookies),
				},
			},
			MinTtl:     pulumi.Int(cb.MinTTL),
			DefaultTtl: pulumi.Int(cb.DefaultTTL),
			MaxTtl:     pulumi.Int(cb.MaxTTL),
			Compress:   pulumi.Bool(cb.Compress),
		},
		CustomErrorResponses: errorResponses,
		PriceClass:           pulumi.String(spec.PriceClass),
		Restrictions: &cloudfront.DistributionRestrictionsArgs{
			GeoRestriction: &cloudfront.DistributionRestrictionsGeoRestrictionArgs{
				RestrictionType: pulumi.String(spec.GeoRestrictionType),
			},
		},
		ViewerCertificate: &cloudfront.DistributionViewerCertificateArgs{
			CloudfrontDefaultCertificate: pulumi.Bool(spec.DefaultCertificate),
		},
	}, opts...)
	if err != nil {
		return nil, provisioningError(name, err)
	}
	return dist, nil
}

// ObjectSink registers one BucketObject per upload record.
type ObjectSink struct {
	ctx        *pulumi.Context
	bucketName string
	bucket     *s3.Bucket
	opts       []pulumi.ResourceOption
}

// NewObjectSink returns a qart.Sink that describes objects in bucket.
func NewObjectSink(ctx *pulumi.Context, bucketName string, bucket *s3.Bucket, opts ...pulumi.ResourceOption) *ObjectSink {
	return &ObjectSink{ctx: ctx, bucketName: bucketName, bucket: bucket, opts: opts}
}

func (s *ObjectSink) Put(_ context.Context, rec qart.Record) error {
	name := ObjectName(s.bucketName, rec.Key)
	_, err := s3.NewBucketObject(s.ctx, name, &s3.BucketObjectArgs{
		Bucket:      s.bucket.ID(),
		Key:         pulumi.String(rec.Key),
		Source:      pulumi.NewFileAsset(rec.SourcePath),
		ContentType: pulumi.String(rec.ContentType),
	}, s.opts...)
	if err != nil {
		return provisioningError(name, err)
	}
	return nil
}

var _ qart.Sink = (*ObjectSink)(nil)
