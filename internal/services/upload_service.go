package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// AssetCategory selects the storage bucket and bounding box for an upload.
type AssetCategory int

const (
	// AssetProfile is an avatar image, downscaled into 125x125.
	AssetProfile AssetCategory = iota
	// AssetPost is a post attachment, downscaled into 500x500.
	AssetPost
)

// allowedExtensions is the upload extension allow-list. Anything else is a
// validation failure, never written to disk.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ErrUnsupportedImageType is returned for uploads whose extension is not on
// the allow-list.
var ErrUnsupportedImageType = fmt.Errorf("unsupported image type, allowed: jpg, jpeg, png, gif")

// UploadService stores uploaded images under a static root, one directory
// per asset category.
type UploadService struct {
	staticDir string
}

// NewUploadService creates a new UploadService rooted at staticDir.
func NewUploadService(staticDir string) *UploadService {
	return &UploadService{
		staticDir: staticDir,
	}
}

func (c AssetCategory) dir() string {
	if c == AssetProfile {
		return "profile_pics"
	}
	return "post_pics"
}

func (c AssetCategory) boundingBox() int {
	if c == AssetProfile {
		return 125
	}
	return 500
}

// SavePicture stores an uploaded image under the category's directory with
// a collision-resistant name (random uuid hex + original extension),
// downscaled to the category's bounding box preserving aspect ratio. It
// returns the generated filename; associating it with the owning record and
// cleaning up any previous asset is the caller's job.
func (s *UploadService) SavePicture(fileHeader *multipart.FileHeader, category AssetCategory) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedImageType
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	box := category.boundingBox()
	// Fit never upscales; small images are stored as-is.
	resized := imaging.Fit(img, box, box, imaging.Lanczos)

	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	dir := filepath.Join(s.staticDir, category.dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}

	if err := imaging.Save(resized, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return name, nil
}
