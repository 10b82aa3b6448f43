package utils

import (
	"bytes"
	"crypto/rand"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

// Rand8BytesToBase62 returns a short random identifier, used for public share IDs
func Rand8BytesToBase62() string {
	return randBase62(8)
}

// Rand16BytesToBase62 returns a long random identifier, used for delete
// tokens and anonymous view tokens. Independent from share IDs so one can
// never be derived from the other.
func Rand16BytesToBase62() string {
	return randBase62(16)
}

func randBase62(size int) string {
	buf := make([]byte, size)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	var i big.Int
	return i.SetBytes(buf).Text(62)
}

// FormatFromFilename maps a CAD file extension to its format name
func FormatFromFilename(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return ""
	}
	switch strings.ToLower(name[dot+1:]) {
	case "step", "stp":
		return "STEP"
	case "iges", "igs":
		return "IGES"
	case "stl":
		return "STL"
	case "dxf":
		return "DXF"
	case "dwg":
		return "DWG"
	}
	return ""
}

func UnixToISO(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

type ImageThumbConverted struct {
	ThumbSize int64
	NewX      uint16
	NewY      uint16
	OldX      uint16
	OldY      uint16
}

// CreateThumb downscales a gallery image to fit size x size and writes it as JPEG
func CreateThumb(size uint, reader io.Reader, writer io.Writer) (result ImageThumbConverted, err error) {
	image, _, err := image.Decode(reader)
	if err != nil {
		return result, err
	}
	var newBuf bytes.Buffer
	newImage := resize.Thumbnail(size, size, image, resize.Lanczos3)
	if err = jpeg.Encode(&newBuf, newImage, &jpeg.Options{Quality: 90}); err != nil {
		return
	}
	imageRect := newImage.Bounds().Size()
	result.NewX = uint16(imageRect.X)
	result.NewY = uint16(imageRect.Y)

	imageRect = image.Bounds().Size()
	result.OldX = uint16(imageRect.X)
	result.OldY = uint16(imageRect.Y)

	result.ThumbSize, err = io.Copy(writer, &newBuf)
	return
}
