// package artwork embeds and extracts cover images in local audio files.
//
// MP3 files get an APIC frame via id3v2; FLAC files get a PICTURE metadata
// block. Other formats are probed read-only and rejected for writes.
package artwork

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/go-flac"

	"github.com/soniclist/spotsync/internal/shared"
)

// DetectMIME sniffs the image format from the payload's magic bytes,
// defaulting to JPEG which is what Spotify serves.
func DetectMIME(data []byte) string {
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	return "image/jpeg"
}

// HasEmbeddedImage reports whether the audio file carries an embedded picture.
func HasEmbeddedImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", shared.ErrFileMissing, path)
		}
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Unreadable tags count as no image rather than a hard failure
		return false, nil
	}

	return m.Picture() != nil, nil
}

// Embed writes the image into the audio file's metadata. Any existing
// embedded pictures are replaced. Returns [shared.ErrUnsupportedFormat] for
// formats without a supported picture container.
func Embed(path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image payload", shared.ErrInvalidArgument)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return embedMP3(path, data)
	case ".flac":
		return embedFLAC(path, data)
	default:
		return fmt.Errorf("%w: cannot embed artwork into %s", shared.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// embedMP3 replaces the APIC frame in an MP3's ID3v2 tag.
func embedMP3(path string, data []byte) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open id3 tag in %s: %w", path, err)
	}
	defer t.Close()

	t.DeleteFrames(t.CommonID("Attached picture"))
	t.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    DetectMIME(data),
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     data,
	})

	if err := t.Save(); err != nil {
		return fmt.Errorf("failed to save id3 tag in %s: %w", path, err)
	}
	return nil
}

// embedFLAC replaces the PICTURE block in a FLAC file's metadata.
func embedFLAC(path string, data []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse flac file %s: %w", path, err)
	}

	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Front cover",
		data,
		DetectMIME(data),
	)
	if err != nil {
		return fmt.Errorf("failed to build picture block: %w", err)
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	pictureBlock := picture.Marshal()
	f.Meta = append(kept, &pictureBlock)

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save flac file %s: %w", path, err)
	}
	return nil
}

// Extract returns the embedded picture payload and its MIME type, or
// [shared.ErrNoEmbeddedImage] when the file has none.
func Extract(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", shared.ErrFileMissing, path)
		}
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", shared.ErrNoEmbeddedImage, path)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, "", fmt.Errorf("%w: %s", shared.ErrNoEmbeddedImage, path)
	}

	mime := pic.MIMEType
	if mime == "" {
		mime = DetectMIME(pic.Data)
	}
	return pic.Data, mime, nil
}

// ExtractToFile writes the embedded picture next to the audio file, named
// after it with the image extension, and returns the written path.
func ExtractToFile(path string) (string, error) {
	data, mime, err := Extract(path)
	if err != nil {
		return "", err
	}

	ext := ".jpg"
	if mime == "image/png" {
		ext = ".png"
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ext
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", out, err)
	}
	return out, nil
}
