package spaces

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/visualright/filterlab/internal/storage"
)

// Source images larger than this are rejected without reading them fully
const maxObjectSize = 64 << 20

// Errors
var (
	ErrObjectTooLarge = errors.New("source image is too large")
)

// Provider implements a DigitalOcean Spaces / S3 based image storage
type Provider struct {
	spaces *s3.S3
	space  string
	prefix string
}

// Config holds the connection settings for a space
type Config struct {
	Space          string
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Prefix         string // Optional folder the source images live in
	ForcePathStyle bool
}

// New returns a new Provider instance, checking that the space is reachable
func New(ctx context.Context, cfg Config) (*Provider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1" // Spaces requires us-east-1 regardless of the actual region
	}

	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	spaces := s3.New(spacesSession)

	_, err = spaces.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Space),
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  cfg.Space,
		prefix: cfg.Prefix,
	}, nil
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	key, err := storage.Key(id)
	if err != nil {
		return nil, err
	}

	object := s3.GetObjectInput{
		Bucket: aws.String(p.space),
		Key:    aws.String(path.Join(p.prefix, key)),
	}

	output, err := p.spaces.GetObjectWithContext(ctx, &object)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	if output.ContentLength != nil && *output.ContentLength > maxObjectSize {
		return nil, ErrObjectTooLarge
	}

	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(output.Body, maxObjectSize+1))
	if err != nil {
		return nil, err
	}

	if n > maxObjectSize {
		return nil, ErrObjectTooLarge
	}

	return buf.Bytes(), nil
}
