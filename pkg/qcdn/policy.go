// Package qcdn describes and provisions the S3 bucket, origin access
// identity, bucket policy and CloudFront distribution that serve a site.
package qcdn

import (
	"encoding/json"
	"errors"
)

// IdentityName is the logical name of the bucket's origin access identity.
// Names derive only from the bucket name, so reruns update in place.
func IdentityName(bucketName string) string { return bucketName + "-oai" }

// PolicyName is the logical name of the bucket policy.
func PolicyName(bucketName string) string { return bucketName + "-policy" }

// DistributionName is the logical name of the CloudFront distribution.
func DistributionName(bucketName string) string { return bucketName + "-cdn" }

// ObjectName is the logical name of the object resource for key.
func ObjectName(bucketName, key string) string { return bucketName + "/" + key }

const policyVersion = "2012-10-17"

type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Effect    string          `json:"Effect"`
	Principal PolicyPrincipal `json:"Principal"`
	Action    []string        `json:"Action"`
	Resource  string          `json:"Resource"`
}

type PolicyPrincipal struct {
	AWS string `json:"AWS"`
}

// ReadPolicy returns the policy granting identityArn, and only it,
// s3:GetObject on every object in bucketArn.
func ReadPolicy(bucketArn, identityArn string) PolicyDocument {
	return PolicyDocument{
		Version: policyVersion,
		Statement: []PolicyStatement{{
			Effect:    "Allow",
			Principal: PolicyPrincipal{AWS: identityArn},
			Action:    []string{"s3:GetObject"},
			Resource:  bucketArn + "/*",
		}},
	}
}

// PolicyJSON renders ReadPolicy. Both ARNs must be resolved.
func PolicyJSON(bucketArn, identityArn string) (string, error) {
	if bucketArn == "" || identityArn == "" {
		return "", errors.New("bucket policy needs both the bucket ARN and the identity ARN")
	}
	b, err := json.Marshal(ReadPolicy(bucketArn, identityArn))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
