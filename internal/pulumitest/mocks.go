// Package pulumitest provides a recording mock resource monitor for running
// Pulumi programs in unit tests.
package pulumitest

import (
	"strings"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	TypeBucket       = "aws:s3/bucket:Bucket"
	TypeBucketObject = "aws:s3/bucketObject:BucketObject"
	TypeBucketPolicy = "aws:s3/bucketPolicy:BucketPolicy"
	TypeIdentity     = "aws:cloudfront/originAccessIdentity:OriginAccessIdentity"
	TypeDistribution = "aws:cloudfront/distribution:Distribution"
)

// Resource is one registration seen by the monitor.
type Resource struct {
	Type         string
	Name         string
	ID           string
	Inputs       resource.PropertyMap
	Dependencies []string
}

// Mocks records every custom resource and fills in the cloud-assigned
// outputs the site program reads (ARNs, domain names).
type Mocks struct {
	mu        sync.Mutex
	resources []Resource
}

func (m *Mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	id := args.Name + "-id"
	outs := args.Inputs.Copy()

	switch args.TypeToken {
	case TypeBucket:
		outs["bucket"] = resource.NewStringProperty(id)
		outs["arn"] = resource.NewStringProperty("arn:aws:s3:::" + id)
		outs["bucketRegionalDomainName"] = resource.NewStringProperty(id + ".s3.us-east-1.amazonaws.com")
	case TypeIdentity:
		outs["iamArn"] = resource.NewStringProperty("arn:aws:iam::cloudfront:user/CloudFront Origin Access Identity " + id)
		outs["cloudfrontAccessIdentityPath"] = resource.NewStringProperty("origin-access-identity/cloudfront/" + id)
	case TypeDistribution:
		outs["domainName"] = resource.NewStringProperty("d111111abcdef8.cloudfront.net")
	}

	var deps []string
	if args.RegisterRPC != nil {
		deps = args.RegisterRPC.GetDependencies()
	}

	m.mu.Lock()
	m.resources = append(m.resources, Resource{
		Type:         args.TypeToken,
		Name:         args.Name,
		ID:           id,
		Inputs:       args.Inputs,
		Dependencies: deps,
	})
	m.mu.Unlock()

	return id, outs, nil
}

func (m *Mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	return resource.PropertyMap{}, nil
}

// ByType returns the recorded resources of the given type token.
func (m *Mocks) ByType(token string) []Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Resource
	for _, r := range m.resources {
		if r.Type == token {
			out = append(out, r)
		}
	}
	return out
}

// ByName returns the recorded resource with the given logical name.
func (m *Mocks) ByName(name string) (Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// DependsOnName reports whether r lists a dependency URN ending in name.
func (r Resource) DependsOnName(name string) bool {
	for _, urn := range r.Dependencies {
		if strings.HasSuffix(urn, "::"+name) {
			return true
		}
	}
	return false
}

// Options returns the RunOption that installs m.
func (m *Mocks) Options() pulumi.RunOption {
	return pulumi.WithMocks("qsite", "test", m)
}

// AwaitString blocks until o resolves. Only use it with known outputs.
func AwaitString(o pulumi.StringOutput) string {
	ch := make(chan string, 1)
	o.ApplyT(func(v string) string {
		ch <- v
		return v
	})
	return <-ch
}
