package qcdn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyJSON_SingleReadStatement(t *testing.T) {
	body, err := PolicyJSON("arn:aws:s3:::b", "arn:aws:iam::cloudfront:user/CFID")
	require.NoError(t, err)

	var doc PolicyDocument
	require.NoError(t, json.Unmarshal([]byte(body), &doc))

	assert.Equal(t, "2012-10-17", doc.Version)
	require.Len(t, doc.Statement, 1)
	st := doc.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, "arn:aws:iam::cloudfront:user/CFID", st.Principal.AWS)
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, "arn:aws:s3:::b/*", st.Resource)
}

func TestPolicyJSON_WireShape(t *testing.T) {
	body, err := PolicyJSON("arn:aws:s3:::b", "arn:aws:iam::cloudfront:user/CFID")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": "arn:aws:iam::cloudfront:user/CFID"},
			"Action": ["s3:GetObject"],
			"Resource": "arn:aws:s3:::b/*"
		}]
	}`, body)
}

func TestPolicyJSON_NeedsBothArns(t *testing.T) {
	_, err := PolicyJSON("", "arn:aws:iam::cloudfront:user/CFID")
	assert.Error(t, err)
	_, err = PolicyJSON("arn:aws:s3:::b", "")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "web-bucket-oai", IdentityName("web-bucket"))
	assert.Equal(t, "web-bucket-policy", PolicyName("web-bucket"))
	assert.Equal(t, "web-bucket-cdn", DistributionName("web-bucket"))
	assert.Equal(t, "web-bucket/assets/app.js", ObjectName("web-bucket", "assets/app.js"))
}

func TestDefaultDistribution(t *testing.T) {
	spec := DefaultDistribution()

	assert.True(t, spec.Enabled)
	assert.True(t, spec.IPv6)
	assert.Equal(t, "index.html", spec.DefaultRootObject)
	assert.Equal(t, []ErrorResponse{{
		ErrorCode:          404,
		ResponsePagePath:   "/index.html",
		ResponseCode:       200,
		ErrorCachingMinTTL: 300,
	}}, spec.CustomErrorResponses)

	cb := spec.DefaultCacheBehavior
	assert.Equal(t, []string{"GET", "HEAD", "OPTIONS"}, cb.AllowedMethods)
	assert.Equal(t, []string{"GET", "HEAD"}, cb.CachedMethods)
	assert.Equal(t, "redirect-to-https", cb.ViewerProtocolPolicy)
	assert.True(t, cb.ForwardQueryString)
	assert.Equal(t, []string{"Origin"}, cb.ForwardHeaders)
	assert.Equal(t, "none", cb.ForwardCookies)
	assert.True(t, cb.Compress)
	assert.Zero(t, cb.MinTTL)
	assert.Zero(t, cb.DefaultTTL)
	assert.Zero(t, cb.MaxTTL)

	assert.Equal(t, "PriceClass_100", spec.PriceClass)
	assert.Equal(t, "none", spec.GeoRestrictionType)
	assert.True(t, spec.DefaultCertificate)
}
