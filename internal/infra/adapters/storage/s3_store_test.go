package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestObjectKeyPrefixing(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"no prefix", "", "heroes/mittens.png", "heroes/mittens.png"},
		{"with prefix", "results", "heroes/mittens.png", "results/heroes/mittens.png"},
		{"leading slash stripped", "results", "/heroes/mittens.png", "results/heroes/mittens.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &S3Store{prefix: tc.prefix}
			if got := s.objectKey(tc.key); got != tc.want {
				t.Errorf("objectKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestURLForPrefersPublicBase(t *testing.T) {
	s := &S3Store{bucket: "pets", region: "eu-west-1", publicURL: "https://cdn.pethero.app"}
	if got := s.URLFor("heroes/mittens.png"); got != "https://cdn.pethero.app/heroes/mittens.png" {
		t.Errorf("unexpected url %q", got)
	}
}

func TestURLForDefaultsToVirtualHostedStyle(t *testing.T) {
	s := &S3Store{bucket: "pets", region: "eu-west-1"}
	want := "https://pets.s3.eu-west-1.amazonaws.com/heroes/mittens.png"
	if got := s.URLFor("heroes/mittens.png"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	s = &S3Store{bucket: "pets"}
	want = "https://pets.s3.amazonaws.com/heroes/mittens.png"
	if got := s.URLFor("heroes/mittens.png"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPutInputCarriesPublicReadACL(t *testing.T) {
	s := &S3Store{bucket: "pets", publicRead: true}
	in := s.putInput("heroes/mittens.png", []byte{1, 2}, "image/png")
	if in.ACL != types.ObjectCannedACLPublicRead {
		t.Errorf("ACL = %q, want public-read", in.ACL)
	}
	if *in.Bucket != "pets" || *in.Key != "heroes/mittens.png" || *in.ContentType != "image/png" {
		t.Errorf("unexpected input: bucket=%q key=%q type=%q", *in.Bucket, *in.Key, *in.ContentType)
	}
}

func TestPutInputOmitsACLWhenDisabled(t *testing.T) {
	s := &S3Store{bucket: "pets"}
	in := s.putInput("heroes/mittens.png", []byte{1, 2}, "image/png")
	if in.ACL != "" {
		t.Errorf("ACL = %q, want unset for buckets with ACLs disabled", in.ACL)
	}
}
