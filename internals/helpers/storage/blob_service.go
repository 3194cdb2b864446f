// file: internals/helpers/storage/blob_service.go
package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// max upload accepted from a multipart form
var maxUploadSize = int64(5 * 1024 * 1024)

/* =======================================================================
   BlobService: storage abstraction for resident attachments
   (valid IDs, cedulas, proof-of-residency scans)
======================================================================= */

type BlobService interface {
	// UploadImage re-encodes as webp and stores under residents/<userID>/<slot>/
	UploadImage(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	// UploadAny stores the file as-is (pdf etc.) under residents/<userID>/<slot>/
	UploadAny(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	DeleteByPublicURL(ctx context.Context, publicURL string) error
}

/* =======================================================================
   OSS implementation
======================================================================= */

type OSSBlobService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string // optional, e.g. "uploads"
}

func NewOSSBlobServiceFromEnv(prefix string) (*OSSBlobService, error) {
	endpoint := getEnv("ALI_OSS_ENDPOINT")
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	sts := getEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(bucketName); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			log.Printf("[OSS] warn: skip location check due to AccessDenied (bucket=%s). Continuing.", bucketName)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", bucketName, loc)
	}

	return &OSSBlobService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func (s *OSSBlobService) UploadImage(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("nil file header")
	}
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", maxUploadSize)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	webpData, err := ConvertToWebP(src, fh.Filename)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unsupported format") {
			return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image format (use jpg/png/webp)")
		}
		return "", err
	}

	base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	key := s.buildObjectKey(slotDir(userID, slot), base+".webp")

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.Bucket.PutObject(key, bytes.NewReader(webpData), opts...); err != nil {
		return "", err
	}

	// best effort small preview for admin listing views; the main upload
	// already succeeded, so a thumbnail failure is only logged
	if thumb, terr := ThumbnailWebP(webpData, base+".webp", envInt("IMAGE_THUMB_SIDE", 240)); terr == nil {
		thumbKey := strings.TrimSuffix(key, ".webp") + "_thumb.webp"
		if perr := s.Bucket.PutObject(thumbKey, bytes.NewReader(thumb), opts...); perr != nil {
			log.Printf("[OSS] warn: thumbnail upload failed for %s: %v", key, perr)
		}
	} else {
		log.Printf("[OSS] warn: thumbnail encode failed for %s: %v", key, terr)
	}

	return s.PublicURL(key), nil
}

func (s *OSSBlobService) UploadAny(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("nil file header")
	}
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", maxUploadSize)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	key := s.buildObjectKey(slotDir(userID, slot), fh.Filename)

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(ct),
		oss.ContentDisposition("inline"),
	}
	if err := s.Bucket.PutObject(key, src, opts...); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

func (s *OSSBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := ExtractKeyFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

/* =======================================================================
   Key & URL utils
======================================================================= */

func slotDir(userID uuid.UUID, slot string) string {
	if strings.TrimSpace(slot) == "" {
		return "residents/" + userID.String() + "/misc"
	}
	return "residents/" + userID.String() + "/" + slugify(slot)
}

func (s *OSSBlobService) buildObjectKey(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "file"
	}
	ts := time.Now().Format("20060102_150405")

	prefix := s.Prefix
	if prefix != "" {
		prefix += "/"
	}
	dir = strings.Trim(dir, "/")
	if dir != "" {
		dir += "/"
	}
	return fmt.Sprintf("%s%s%s_%s_%s%s", prefix, dir, slugify(base), ts, randHex(3), ext)
}

func (s *OSSBlobService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if base := getEnv("ALI_OSS_PUBLIC_BASE"); base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	if s.Endpoint == "" || s.BucketName == "" {
		return ""
	}
	end := s.Endpoint
	end = strings.TrimPrefix(end, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func ExtractKeyFromPublicURL(publicURL string) (string, error) {
	if publicURL == "" {
		return "", fmt.Errorf("empty url")
	}
	if base := getEnv("ALI_OSS_PUBLIC_BASE"); base != "" {
		base = strings.TrimRight(base, "/") + "/"
		if strings.HasPrefix(publicURL, base) {
			return strings.TrimPrefix(publicURL, base), nil
		}
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 {
		return u[i+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", publicURL)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(" ", "-", "_", "-")
	s = r.Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

/* =======================================================================
   Multipart helpers shared by controllers
======================================================================= */

func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}

// GetFormFile returns the first present file among the given field names.
func GetFormFile(c *fiber.Ctx, fieldNames ...string) (*multipart.FileHeader, error) {
	if len(fieldNames) == 0 {
		fieldNames = []string{"file", "image"}
	}
	for _, name := range fieldNames {
		if fh, err := c.FormFile(name); err == nil && fh != nil {
			return fh, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
}

// TryGetFormFile is GetFormFile without the error when nothing was sent.
func TryGetFormFile(c *fiber.Ctx, fieldNames ...string) *multipart.FileHeader {
	fh, err := GetFormFile(c, fieldNames...)
	if err != nil {
		return nil
	}
	return fh
}

/* =======================================================================
   Mock (tests)
======================================================================= */

type MockBlobService struct {
	Uploaded []string
	Deleted  []string
	Err      error
}

func (m *MockBlobService) UploadImage(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	url := "https://mock.local/" + slotDir(userID, slot) + "/" + fh.Filename
	m.Uploaded = append(m.Uploaded, url)
	return url, nil
}

func (m *MockBlobService) UploadAny(ctx context.Context, userID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	return m.UploadImage(ctx, userID, slot, fh)
}

func (m *MockBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, publicURL)
	return nil
}
