package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config configures an S3 or S3-compatible (MinIO, etc.) backend.
// Endpoint is left empty for real AWS S3; setting it points the client
// at a compatible service instead.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// S3Driver implements Driver against an S3 or S3-compatible bucket using
// the AWS SDK for Go v2.
type S3Driver struct {
	client *s3.Client
	bucket string
}

// NewS3Driver builds a Driver for cfg. When cfg.Endpoint is set the
// client is pointed there with path-style addressing, which is what
// MinIO and most other S3-compatible services require.
func NewS3Driver(ctx context.Context, cfg S3Config) (*S3Driver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, NewError(KindFatal, "new_s3_driver", cfg.Bucket, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Driver{client: client, bucket: cfg.Bucket}, nil
}

func (d *S3Driver) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if !overwrite {
		input.IfNoneMatch = aws.String("*")
	}
	_, err := d.client.PutObject(ctx, input)
	if err != nil {
		return NewError(classifyAWSErr(err), "put", key, err)
	}
	return nil
}

func (d *S3Driver) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, NewError(classifyAWSErr(err), "get", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, NewError(KindNetwork, "get", key, err)
	}
	return data, nil
}

func (d *S3Driver) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, NewError(classifyAWSErr(err), "list", prefix, err)
		}
		for _, obj := range page.Contents {
			meta := ObjectMeta{Key: aws.ToString(obj.Key)}
			if obj.Size != nil {
				meta.Size = *obj.Size
			}
			if obj.LastModified != nil {
				meta.LastModified = obj.LastModified.Unix()
			}
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

func (d *S3Driver) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return NewError(classifyAWSErr(err), "delete", key, err)
	}
	return nil
}

func (d *S3Driver) Probe(ctx context.Context) error {
	_, err := d.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(d.bucket)})
	if err != nil {
		return NewError(classifyAWSErr(err), "probe", "", err)
	}
	return nil
}

func classifyAWSErr(err error) Kind {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return KindNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return KindAuth
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists", "PreconditionFailed", "ConditionalRequestConflict":
			return KindAlreadyExists
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return KindBackendTransient
		}
	}

	if strings.Contains(err.Error(), "connection") || strings.Contains(err.Error(), "timeout") {
		return KindNetwork
	}
	return KindBackendPermanent
}
