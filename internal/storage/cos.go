package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig configures a Tencent Cloud COS backend.
type COSConfig struct {
	Bucket    string
	Endpoint  string
	SecretID  string
	SecretKey string
}

// COSDriver implements Driver against Tencent Cloud Object Storage
// using the official cos-go-sdk-v5 client.
type COSDriver struct {
	client *cos.Client
}

// NewCOSDriver builds a Driver for cfg. Endpoint is the full bucket URL
// (e.g. https://bucket-appid.cos.region.myqcloud.com).
func NewCOSDriver(cfg COSConfig) (*COSDriver, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, NewError(KindFatal, "new_cos_driver", cfg.Bucket, err)
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})
	return &COSDriver{client: client}, nil
}

func (d *COSDriver) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	var opts *cos.ObjectPutOptions
	if !overwrite {
		opts = &cos.ObjectPutOptions{
			ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
				XOptionHeader: &http.Header{
					"x-cos-forbid-overwrite": []string{"true"},
				},
			},
		}
	}
	_, err := d.client.Object.Put(ctx, key, bytes.NewReader(data), opts)
	if err != nil {
		return NewError(classifyCOSErr(err), "put", key, err)
	}
	return nil
}

func (d *COSDriver) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := d.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, NewError(classifyCOSErr(err), "get", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindNetwork, "get", key, err)
	}
	return data, nil
}

func (d *COSDriver) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	marker := ""
	for {
		result, _, err := d.client.Bucket.Get(ctx, &cos.BucketGetOptions{
			Prefix: prefix,
			Marker: marker,
		})
		if err != nil {
			return nil, NewError(classifyCOSErr(err), "list", prefix, err)
		}
		for _, obj := range result.Contents {
			metas = append(metas, ObjectMeta{
				Key:  obj.Key,
				Size: obj.Size,
			})
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return metas, nil
}

func (d *COSDriver) Delete(ctx context.Context, key string) error {
	_, err := d.client.Object.Delete(ctx, key)
	if err != nil {
		return NewError(classifyCOSErr(err), "delete", key, err)
	}
	return nil
}

func (d *COSDriver) Probe(ctx context.Context) error {
	_, _, err := d.client.Bucket.Get(ctx, &cos.BucketGetOptions{MaxKeys: 1})
	if err != nil {
		return NewError(classifyCOSErr(err), "probe", "", err)
	}
	return nil
}

func classifyCOSErr(err error) Kind {
	if cosErr, ok := err.(*cos.ErrorResponse); ok {
		switch cosErr.Response.StatusCode {
		case http.StatusNotFound:
			return KindNotFound
		case http.StatusForbidden, http.StatusUnauthorized:
			return KindAuth
		case http.StatusConflict:
			return KindAlreadyExists
		case http.StatusServiceUnavailable, http.StatusTooManyRequests:
			return KindBackendTransient
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") {
		return KindNetwork
	}
	return KindBackendPermanent
}
