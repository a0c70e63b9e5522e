package services_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"blog/internal/services"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

var uploadNameRe = regexp.MustCompile(`^[0-9a-f]{32}\.(jpg|jpeg|png|gif)$`)

// makeUpload wraps raw bytes into a *multipart.FileHeader the way a browser
// form submission would.
func makeUpload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	assert.NoError(t, err)
	_, err = fw.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	assert.NoError(t, err)
	files := form.File["image"]
	assert.Len(t, files, 1)
	return files[0]
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	assert.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadService_SavePicture_Avatar(t *testing.T) {
	staticDir := t.TempDir()
	uploadService := services.NewUploadService(staticDir)

	fileHeader := makeUpload(t, "me.png", encodePNG(t, 300, 200))

	name, err := uploadService.SavePicture(fileHeader, services.AssetProfile)
	assert.NoError(t, err)
	assert.Regexp(t, uploadNameRe, name)

	// Avatars land under profile_pics, fitted into 125x125 with the aspect
	// ratio preserved.
	saved, err := imaging.Open(filepath.Join(staticDir, "profile_pics", name))
	assert.NoError(t, err)
	bounds := saved.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 125)
	assert.LessOrEqual(t, bounds.Dy(), 125)
	assert.Equal(t, 125, bounds.Dx()) // width was the limiting dimension
}

func TestUploadService_SavePicture_PostImage(t *testing.T) {
	staticDir := t.TempDir()
	uploadService := services.NewUploadService(staticDir)

	// Smaller than the 500x500 box: stored without upscaling.
	fileHeader := makeUpload(t, "photo.PNG", encodePNG(t, 300, 200))

	name, err := uploadService.SavePicture(fileHeader, services.AssetPost)
	assert.NoError(t, err)
	assert.Regexp(t, uploadNameRe, name) // extension is lowercased

	saved, err := imaging.Open(filepath.Join(staticDir, "post_pics", name))
	assert.NoError(t, err)
	assert.Equal(t, 300, saved.Bounds().Dx())
	assert.Equal(t, 200, saved.Bounds().Dy())
}

func TestUploadService_SavePicture_UniqueNames(t *testing.T) {
	staticDir := t.TempDir()
	uploadService := services.NewUploadService(staticDir)

	content := encodePNG(t, 10, 10)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		name, err := uploadService.SavePicture(makeUpload(t, "same.png", content), services.AssetPost)
		assert.NoError(t, err)
		assert.False(t, seen[name], "filename %s generated twice", name)
		seen[name] = true
	}
}

func TestUploadService_SavePicture_RejectsUnsupportedExtension(t *testing.T) {
	staticDir := t.TempDir()
	uploadService := services.NewUploadService(staticDir)

	fileHeader := makeUpload(t, "payload.txt", []byte("not an image"))

	_, err := uploadService.SavePicture(fileHeader, services.AssetPost)
	assert.ErrorIs(t, err, services.ErrUnsupportedImageType)

	// Nothing may be written for rejected uploads.
	entries, readErr := os.ReadDir(staticDir)
	assert.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestUploadService_SavePicture_RejectsSpoofedImage(t *testing.T) {
	staticDir := t.TempDir()
	uploadService := services.NewUploadService(staticDir)

	// Allowed extension but garbage bytes: the decode step refuses it.
	fileHeader := makeUpload(t, "fake.jpg", []byte("definitely not a jpeg"))

	_, err := uploadService.SavePicture(fileHeader, services.AssetPost)
	assert.Error(t, err)
}
