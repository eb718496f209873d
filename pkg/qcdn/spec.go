package qcdn

// IndexDocument is served for "/" and for every path the bucket 404s on.
const IndexDocument = "index.html"

// CacheBehavior is the distribution's default cache behavior.
type CacheBehavior struct {
	AllowedMethods       []string
	CachedMethods        []string
	ViewerProtocolPolicy string
	ForwardQueryString   bool
	ForwardHeaders       []string
	ForwardCookies       string
	Compress             bool
	MinTTL               int
	DefaultTTL           int
	MaxTTL               int
}

// ErrorResponse rewrites an origin error to a page and status.
type ErrorResponse struct {
	ErrorCode          int
	ResponsePagePath   string
	ResponseCode       int
	ErrorCachingMinTTL int
}

// DistributionSpec is the desired CloudFront configuration, independent of
// which bucket it fronts.
type DistributionSpec struct {
	Enabled              bool
	IPv6                 bool
	DefaultRootObject    string
	DefaultCacheBehavior CacheBehavior
	CustomErrorResponses []ErrorResponse
	PriceClass           string
	GeoRestrictionType   string
	DefaultCertificate   bool
}

// DefaultDistribution returns the SPA distribution: every request
// revalidates, and unknown paths fall back to the index document with a 200
// so client-side routes resolve.
func DefaultDistribution() DistributionSpec {
	return DistributionSpec{
		Enabled:           true,
		IPv6:              true,
		DefaultRootObject: IndexDocument,
		DefaultCacheBehavior: CacheBehavior{
			AllowedMethods:       []string{"GET", "HEAD", "OPTIONS"},
			CachedMethods:        []string{"GET", "HEAD"},
			ViewerProtocolPolicy: "redirect-to-https",
			ForwardQueryString:   true,
			ForwardHeaders:       []string{"Origin"},
			ForwardCookies:       "none",
			Compress:             true,
			MinTTL:               0,
			DefaultTTL:           0,
			MaxTTL:               0,
		},
		CustomErrorResponses: []ErrorResponse{{
			ErrorCode:          404,
			ResponsePagePath:   "/" + IndexDocument,
			ResponseCode:       200,
			ErrorCachingMinTTL: 300,
		}},
		PriceClass:         "PriceClass_100",
		GeoRestrictionType: "none",
		DefaultCertificate: true,
	}
}

// CORSRule is one bucket CORS rule.
type CORSRule struct {
	AllowedHeaders []string
	AllowedMethods []string
	AllowedOrigins []string
	ExposeHeaders  []string
	MaxAgeSeconds  int
}

// BucketSpec is the desired bucket configuration.
type BucketSpec struct {
	ACL       string
	CORSRules []CORSRule
}

// DefaultBucket returns a private bucket readable cross-origin by GET/HEAD.
func DefaultBucket() BucketSpec {
	return BucketSpec{
		ACL: "private",
		CORSRules: []CORSRule{{
			AllowedHeaders: []string{"*"},
			AllowedMethods: []string{"GET", "HEAD"},
			AllowedOrigins: []string{"*"},
			ExposeHeaders:  []string{"ETag"},
			MaxAgeSeconds:  3000,
		}},
	}
}
