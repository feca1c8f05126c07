package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads design assets and issues signed, time-limited access to them.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error)
	SignedDownloadURL(publicID string, ttl time.Duration) (string, error)
	SignedUploadParams(folder, publicID string) (*UploadSignature, error)
	ThumbnailURL(publicID string) string
}

// Optimized image params for fast frontend loading
const (
	ImageWidth = 800
	ThumbWidth = 200
)

const imageEager = "q_auto,f_auto,w_800,c_fill"

var eagerAsyncFalse = false

// BuildOptimizedImageURL returns a Cloudinary URL with transformations for optimized delivery.
func BuildOptimizedImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

type UploadResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublicID     string `json:"public_id"`
}

// UploadSignature is what a browser needs to POST a file straight to Cloudinary.
type UploadSignature struct {
	URL       string `json:"url"`
	APIKey    string `json:"api_key"`
	Timestamp int64  `json:"timestamp"`
	Folder    string `json:"folder"`
	PublicID  string `json:"public_id"`
	Signature string `json:"signature"`
}

type clientImpl struct {
	cloudName string
	apiKey    string
	apiSecret string
	uploader  *uploader.API
	now       func() time.Time
}

// UploadImage uploads an image with eager optimizations (auto quality, format, resize).
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return nil, err
	}
	out := &UploadResult{URL: result.SecureURL, PublicID: result.PublicID}
	if len(result.Eager) > 0 {
		out.ThumbnailURL = result.Eager[0].SecureURL
	}
	if out.ThumbnailURL == "" {
		out.ThumbnailURL = c.ThumbnailURL(result.PublicID)
	}
	return out, nil
}

func (c *clientImpl) ThumbnailURL(publicID string) string {
	return BuildOptimizedImageURL(c.cloudName, publicID, ThumbWidth)
}

// SignedDownloadURL returns a private download link for the original asset that stops
// working after ttl.
func (c *clientImpl) SignedDownloadURL(publicID string, ttl time.Duration) (string, error) {
	now := c.now()
	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("timestamp", strconv.FormatInt(now.Unix(), 10))
	params.Set("expires_at", strconv.FormatInt(now.Add(ttl).Unix(), 10))
	sig, err := api.SignParameters(params, c.apiSecret)
	if err != nil {
		return "", err
	}
	params.Set("signature", sig)
	params.Set("api_key", c.apiKey)
	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/download?%s", c.cloudName, params.Encode()), nil
}

// SignedUploadParams signs a direct browser upload into folder under publicID.
func (c *clientImpl) SignedUploadParams(folder, publicID string) (*UploadSignature, error) {
	ts := c.now().Unix()
	params := url.Values{}
	params.Set("folder", folder)
	params.Set("public_id", publicID)
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	sig, err := api.SignParameters(params, c.apiSecret)
	if err != nil {
		return nil, err
	}
	return &UploadSignature{
		URL:       fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.cloudName),
		APIKey:    c.apiKey,
		Timestamp: ts,
		Folder:    folder,
		PublicID:  publicID,
		Signature: sig,
	}, nil
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		uploader:  up,
		now:       time.Now,
	}, nil
}
