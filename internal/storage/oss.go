package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSConfig configures an Alibaba Cloud OSS backend.
type OSSConfig struct {
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
}

// OSSDriver implements Driver against Alibaba Cloud Object Storage
// Service using the official aliyun-oss-go-sdk client.
type OSSDriver struct {
	bucket *oss.Bucket
}

// NewOSSDriver builds a Driver for cfg.
func NewOSSDriver(cfg OSSConfig) (*OSSDriver, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, NewError(KindFatal, "new_oss_driver", cfg.Bucket, err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, NewError(KindFatal, "new_oss_driver", cfg.Bucket, err)
	}
	return &OSSDriver{bucket: bucket}, nil
}

func (d *OSSDriver) Put(_ context.Context, key string, data []byte, overwrite bool) error {
	var opts []oss.Option
	if !overwrite {
		opts = append(opts, oss.ForbidOverWrite(true))
	}
	if err := d.bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return NewError(classifyOSSErr(err), "put", key, err)
	}
	return nil
}

func (d *OSSDriver) Get(_ context.Context, key string) ([]byte, error) {
	body, err := d.bucket.GetObject(key)
	if err != nil {
		return nil, NewError(classifyOSSErr(err), "get", key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, NewError(KindNetwork, "get", key, err)
	}
	return data, nil
}

func (d *OSSDriver) List(_ context.Context, prefix string) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	marker := ""
	for {
		result, err := d.bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker))
		if err != nil {
			return nil, NewError(classifyOSSErr(err), "list", prefix, err)
		}
		for _, obj := range result.Objects {
			metas = append(metas, ObjectMeta{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified.Unix(),
			})
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return metas, nil
}

func (d *OSSDriver) Delete(_ context.Context, key string) error {
	if err := d.bucket.DeleteObject(key); err != nil {
		return NewError(classifyOSSErr(err), "delete", key, err)
	}
	return nil
}

func (d *OSSDriver) Probe(_ context.Context) error {
	if _, err := d.bucket.ListObjects(oss.MaxKeys(1)); err != nil {
		return NewError(classifyOSSErr(err), "probe", "", err)
	}
	return nil
}

func classifyOSSErr(err error) Kind {
	if svcErr, ok := err.(oss.ServiceError); ok {
		switch svcErr.Code {
		case "NoSuchKey":
			return KindNotFound
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return KindAuth
		case "BucketAlreadyExists", "FileAlreadyExists":
			return KindAlreadyExists
		case "RequestTimeout", "ServiceUnavailable", "InternalError":
			return KindBackendTransient
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") {
		return KindNetwork
	}
	return KindBackendPermanent
}
