package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/internal/application/service"
	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// uploadAPI is the subset of *uploader.API the adapter drives.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

type CloudinaryAdapter struct {
	api     uploadAPI
	timeout time.Duration
	retry   RetryConfig
	logger  logger.Logger
}

var _ service.BlobStore = (*CloudinaryAdapter)(nil)

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (*CloudinaryAdapter, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	log.Info("Connect Cloudinary successfully.", zap.String("cloud_name", cfg.Cloudinary.CloudName))
	return newAdapter(&cld.Upload, cfg.Cloudinary.UploadTimeout, RetryConfig{
		MaxRetries:      cfg.Cloudinary.MaxRetries,
		InitialInterval: cfg.Cloudinary.RetryInitialInterval,
		MaxInterval:     cfg.Cloudinary.RetryMaxInterval,
		Multiplier:      2,
	}, log), nil
}

func newAdapter(api uploadAPI, timeout time.Duration, retry RetryConfig, log logger.Logger) *CloudinaryAdapter {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if retry.Multiplier < 1 {
		retry.Multiplier = 1
	}
	return &CloudinaryAdapter{api: api, timeout: timeout, retry: retry, logger: log}
}

// permanentError marks a failure the remote service reported explicitly;
// repeating the call would not change the answer.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func (a *CloudinaryAdapter) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadedAsset, error) {
	params := uploader.UploadParams{
		PublicID:     opts.PublicID,
		Folder:       opts.Folder,
		ResourceType: opts.ResourceType,
	}

	seeker, rewindable := file.(io.Seeker)
	attempts := 1
	if rewindable {
		attempts += max(a.retry.MaxRetries, 0)
	}

	var result *uploader.UploadResult
	err := a.withRetry(ctx, "upload", attempts, func(attemptCtx context.Context) error {
		if rewindable {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return &permanentError{fmt.Errorf("cannot rewind upload source: %w", err)}
			}
		}
		res, err := a.api.Upload(attemptCtx, file, params)
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return &permanentError{errors.New(res.Error.Message)}
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload cloudinary: %w", err)
	}

	return &service.UploadedAsset{
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
	}, nil
}

func (a *CloudinaryAdapter) Delete(ctx context.Context, publicID, resourceType string) error {
	params := uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType}
	err := a.withRetry(ctx, "destroy", 1+max(a.retry.MaxRetries, 0), func(attemptCtx context.Context) error {
		res, err := a.api.Destroy(attemptCtx, params)
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return &permanentError{errors.New(res.Error.Message)}
		}
		if res.Result != "ok" && res.Result != "not found" {
			return &permanentError{fmt.Errorf("unexpected destroy result %q", res.Result)}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}

// withRetry runs fn up to attempts times, each under its own timeout, with
// exponential backoff between tries.
func (a *CloudinaryAdapter) withRetry(ctx context.Context, op string, attempts int, fn func(context.Context) error) error {
	interval := a.retry.InitialInterval
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		lastErr = fn(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) || ctx.Err() != nil || attempt == attempts {
			break
		}

		a.logger.Warn("Cloudinary call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", interval),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * a.retry.Multiplier)
		if a.retry.MaxInterval > 0 && interval > a.retry.MaxInterval {
			interval = a.retry.MaxInterval
		}
	}
	return lastErr
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL recovers the public id and resource type from a Cloudinary
// delivery URL such as
// https://res.cloudinary.com/<cloud>/raw/upload/v1712/academic_documents/17-42.pdf
func PublicIDFromURL(secureURL string) (publicID, resourceType string, err error) {
	u, err := url.Parse(secureURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid asset url: %w", err)
	}
	// /<cloud>/<resource_type>/<type>/[v<version>/]<public_id>
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 4 || segments[2] != "upload" {
		return "", "", fmt.Errorf("not a cloudinary upload url: %s", secureURL)
	}
	resourceType = segments[1]
	rest := segments[3:]
	if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	publicID = strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	if publicID == "" {
		return "", "", fmt.Errorf("asset url carries no public id: %s", secureURL)
	}
	return publicID, resourceType, nil
}
