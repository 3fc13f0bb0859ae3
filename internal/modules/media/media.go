package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/echo88/core/internal/config"
	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDisabled     = errors.New("media uploads are disabled")
	errBadKind      = errors.New("kind must be avatar, post or story")
	errBadExtension = errors.New("unsupported file extension")
)

// upload kinds partition the bucket by purpose.
var uploadKinds = map[string]bool{
	"avatar": true,
	"post":   true,
	"story":  true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".webm": true,
}

type PresignUploadDTO struct {
	Kind     string `json:"kind" binding:"required"`
	Filename string `json:"filename" binding:"required"`
}

type Service struct {
	cfg    appconfig.S3Config
	logger *zap.Logger
}

func NewService(cfg appconfig.S3Config, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// StorageKey builds a date-partitioned object key so listings stay cheap.
func StorageKey(kind, userID, ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s/%s%s", kind, d.Year(), d.Month(), d.Day(), userID, uuid.New(), ext)
}

// ValidateUpload checks the request and returns the file extension.
func ValidateUpload(dto *PresignUploadDTO) (string, error) {
	if !uploadKinds[dto.Kind] {
		return "", errBadKind
	}
	ext := strings.ToLower(path.Ext(dto.Filename))
	if !allowedExtensions[ext] {
		return "", errBadExtension
	}
	return ext, nil
}

func (s *Service) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		}
	})
	return s3.NewPresignClient(client), nil
}

// PresignPut returns a presigned upload URL and the object key the client
// must PUT to.
func (s *Service) PresignPut(ctx context.Context, userID string, dto *PresignUploadDTO) (key, url string, err error) {
	if !s.cfg.Enable {
		return "", "", ErrDisabled
	}
	ext, err := ValidateUpload(dto)
	if err != nil {
		return "", "", err
	}

	presigner, err := s.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	key = StorageKey(dto.Kind, userID, ext)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL()))
	if err != nil {
		return "", "", err
	}
	return key, req.URL, nil
}

// PresignGet returns a presigned download URL for an object key.
func (s *Service) PresignGet(ctx context.Context, key string) (string, error) {
	if !s.cfg.Enable {
		return "", ErrDisabled
	}

	presigner, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL()))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PublicURL resolves an object key against the CDN base when configured.
func (s *Service) PublicURL(key string) string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/media", authMW)
	a.POST("/presign-upload", h.presignUpload)
	a.GET("/presign-download", h.presignDownload)
}

func (h *Handler) presignUpload(c *gin.Context) {
	var dto PresignUploadDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, url, err := h.svc.PresignPut(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{
		"key":        key,
		"upload_url": url,
		"public_url": h.svc.PublicURL(key),
	})
}

func (h *Handler) presignDownload(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" || strings.Contains(key, "..") {
		response.BadRequest(c, "invalid key")
		return
	}

	url, err := h.svc.PresignGet(c.Request.Context(), key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDisabled):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, errBadKind), errors.Is(err, errBadExtension):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
