package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
)

// AzBlobConfig configures an Azure Blob Storage backend.
type AzBlobConfig struct {
	Container   string
	AccountName string
	AccountKey  string
}

// AzBlobDriver implements Driver against Azure Blob Storage using the
// official azblob client.
type AzBlobDriver struct {
	client    *azblob.Client
	container string
}

// NewAzBlobDriver builds a Driver for cfg.
func NewAzBlobDriver(cfg AzBlobConfig) (*AzBlobDriver, error) {
	cred, err := service.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, NewError(KindFatal, "new_azblob_driver", cfg.Container, err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, NewError(KindFatal, "new_azblob_driver", cfg.Container, err)
	}
	return &AzBlobDriver{client: client, container: cfg.Container}, nil
}

func (d *AzBlobDriver) Put(ctx context.Context, key string, data []byte, overwrite bool) error {
	var opts *azblob.UploadBufferOptions
	if !overwrite {
		etagAny := azcore.ETagAny
		opts = &azblob.UploadBufferOptions{
			AccessConditions: &blob.AccessConditions{
				ModifiedAccessConditions: &blob.ModifiedAccessConditions{
					IfNoneMatch: &etagAny,
				},
			},
		}
	}
	_, err := d.client.UploadBuffer(ctx, d.container, key, data, opts)
	if err != nil {
		return NewError(classifyAzErr(err), "put", key, err)
	}
	return nil
}

func (d *AzBlobDriver) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := d.client.DownloadStream(ctx, d.container, key, nil)
	if err != nil {
		return nil, NewError(classifyAzErr(err), "get", key, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, NewError(KindNetwork, "get", key, err)
	}
	return buf.Bytes(), nil
}

func (d *AzBlobDriver) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	var metas []ObjectMeta
	pager := d.client.NewListBlobsFlatPager(d.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, NewError(classifyAzErr(err), "list", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			meta := ObjectMeta{Key: *item.Name}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					meta.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					meta.LastModified = item.Properties.LastModified.Unix()
				}
			}
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

func (d *AzBlobDriver) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteBlob(ctx, d.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return NewError(classifyAzErr(err), "delete", key, err)
	}
	return nil
}

func (d *AzBlobDriver) Probe(ctx context.Context) error {
	pager := d.client.NewListBlobsFlatPager(d.container, &azblob.ListBlobsFlatOptions{})
	if pager.More() {
		if _, err := pager.NextPage(ctx); err != nil {
			return NewError(classifyAzErr(err), "probe", "", err)
		}
	}
	return nil
}

func classifyAzErr(err error) Kind {
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound):
		return KindNotFound
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure, bloberror.InsufficientAccountPermissions):
		return KindAuth
	case bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ContainerAlreadyExists, bloberror.ConditionNotMet):
		return KindAlreadyExists
	case bloberror.HasCode(err, bloberror.ServerBusy, bloberror.OperationTimedOut, bloberror.InternalError):
		return KindBackendTransient
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode >= 500 {
			return KindBackendTransient
		}
	}

	if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "connection") {
		return KindNetwork
	}
	return KindBackendPermanent
}
