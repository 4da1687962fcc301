package infrastructure

import (
	"strings"
	"unicode"

	"github.com/DRSN-tech/storefront/pkg/e"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// GetExtensionFromMIME возвращает расширение файла по MIME-типу изображения.
func GetExtensionFromMIME(mime string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(mime)]
	if !ok {
		return "", e.ErrUnsupportedMediaType
	}
	return ext, nil
}

// ImageObjectKey строит ключ объекта вида products/<slug>-<imageID>.<ext>.
func ImageObjectKey(productName, imageID, mime string) (string, error) {
	ext, err := GetExtensionFromMIME(mime)
	if err != nil {
		return "", err
	}

	slug := Slug(productName)
	if slug == "" {
		return "products/" + imageID + "." + ext, nil
	}
	return "products/" + slug + "-" + imageID + "." + ext, nil
}

// Slug оставляет в имени только буквы и цифры в нижнем регистре, разделяя слова дефисом.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
