package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bjorshol/studentavis/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// MaxHeroImageBytes 限制单张主图的大小。
const MaxHeroImageBytes = 10 << 20

var (
	ErrImageTooLarge    = errors.New("image exceeds upload limit")
	ErrImageUnsupported = errors.New("only png, jpeg, gif and webp images are supported")
)

// HeroImage 是上传后的主图信息。
type HeroImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// MediaService 把上传的图片写到本地目录，并探测宽高。
type MediaService struct {
	dir     string
	urlPath string
	logger  *zap.Logger
	now     func() time.Time
}

// NewMediaService creates a MediaService writing into dir and serving files under urlPath.
func NewMediaService(dir, urlPath string, logger *zap.Logger) *MediaService {
	return &MediaService{
		dir:     dir,
		urlPath: "/" + strings.Trim(urlPath, "/"),
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// SaveHeroImage 读取图片内容，校验格式后保存为 <日期>-<uuid>.<格式>。
func (s *MediaService) SaveHeroImage(r io.Reader) (*HeroImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxHeroImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxHeroImageBytes {
		return nil, ErrImageTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrImageUnsupported
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrHeroImageInvalid
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	s.logger.Info("hero image stored",
		zap.String("file", name),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))

	return &HeroImage{
		URL:    path.Join(s.urlPath, name),
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

// Dir returns the directory uploads are written to.
func (s *MediaService) Dir() string {
	return s.dir
}

// URLPath returns the public prefix uploads are served under.
func (s *MediaService) URLPath() string {
	return s.urlPath
}
