package market

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"arzweb/internal/pkg/errs"
)

// ImageInfo describes an uploaded image as far as validation needs it.
type ImageInfo struct {
	Size        int64
	ContentType string
	Width       int
	Height      int
	// Decoded is false when the dimensions could not be read.
	Decoded bool
}

// InspectImage reads the header of data to find its dimensions.
// declaredType is the Content-Type sent by the browser; it is sniffed when missing.
func InspectImage(data []byte, declaredType string) ImageInfo {
	info := ImageInfo{
		Size:        int64(len(data)),
		ContentType: declaredType,
	}
	if info.ContentType == "" || info.ContentType == "application/octet-stream" {
		info.ContentType = http.DetectContentType(data)
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height, info.Decoded = cfg.Width, cfg.Height, true
	}
	return info
}

// ImageRule bounds an upload. Zero fields are not checked.
type ImageRule struct {
	MaxMB     int
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
	MinAspect float64
	MaxAspect float64
}

var (
	ListingImageRule = ImageRule{MaxMB: 10, MinWidth: 300, MinHeight: 200, MaxWidth: 1920, MaxHeight: 1080}
	ProofImageRule   = ImageRule{MaxMB: 15, MinAspect: 1.2, MaxAspect: 2.5}
	BackgroundRule   = ImageRule{MaxMB: 20}
	AvatarRule       = ImageRule{MaxMB: 5}
)

func (r ImageRule) needsDimensions() bool {
	return r.MinWidth > 0 || r.MaxWidth > 0 || r.MinAspect > 0 || r.MaxAspect > 0
}

// Check validates info against the rule: size first, then type, then geometry.
func (r ImageRule) Check(info ImageInfo) *errs.CustomError {
	if r.MaxMB > 0 && info.Size > int64(r.MaxMB)<<20 {
		return errs.NewError(errs.ErrImageTooLarge, r.MaxMB)
	}
	if !strings.HasPrefix(info.ContentType, "image/") {
		return errs.NewError(errs.ErrImageNotImage)
	}
	if !r.needsDimensions() {
		return nil
	}
	if !info.Decoded || info.Width == 0 || info.Height == 0 {
		return errs.NewError(errs.ErrImageUnreadable)
	}

	if (r.MaxWidth > 0 && info.Width > r.MaxWidth) || (r.MaxHeight > 0 && info.Height > r.MaxHeight) {
		return errs.NewError(errs.ErrImageResolution, r.MaxWidth, r.MaxHeight, info.Width, info.Height)
	}
	if info.Width < r.MinWidth || info.Height < r.MinHeight {
		return errs.NewError(errs.ErrImageTooSmall, r.MinWidth, r.MinHeight, info.Width, info.Height)
	}

	if r.MinAspect > 0 || r.MaxAspect > 0 {
		aspect := float64(info.Width) / float64(info.Height)
		if aspect < r.MinAspect || (r.MaxAspect > 0 && aspect > r.MaxAspect) {
			return errs.NewError(errs.ErrImageAspectRatio, r.MinAspect, r.MaxAspect)
		}
	}
	return nil
}
