package quiz

import "strings"

// Kind is the broad category of an uploaded study document.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindVideo Kind = "video"
)

// KindFromMIME classifies a MIME type. Anything that is neither an image
// nor a video is treated as a PDF document.
func KindFromMIME(mimeType string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "image"):
		return KindImage
	case strings.HasPrefix(mimeType, "video"):
		return KindVideo
	default:
		return KindPDF
	}
}

// UploadedMaterial is a study document selected by the user. It is never
// modified after creation.
type UploadedMaterial struct {
	Name     string
	Data     []byte
	MIMEType string
	Kind     Kind
}

// Size returns the payload size in bytes.
func (m UploadedMaterial) Size() int {
	return len(m.Data)
}
