// Package messages defines the canonical message model shared by the bot engine and its drivers.
package messages

// AttachmentKind identifies the kind of an attachment.
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindAudio    AttachmentKind = "audio"
	KindVideo    AttachmentKind = "video"
	KindFile     AttachmentKind = "file"
	KindLocation AttachmentKind = "location"
)

// Placeholder markers. An incoming message whose content lives in an attachment
// carries the marker of that kind as its text.
const (
	ImagePattern    = "%%%_IMAGE_%%%"
	AudioPattern    = "%%%_AUDIO_%%%"
	VideoPattern    = "%%%_VIDEO_%%%"
	FilePattern     = "%%%_FILE_%%%"
	LocationPattern = "%%%_LOCATION_%%%"
)

// Pattern returns the placeholder marker for the kind, or "" for unknown kinds.
func (k AttachmentKind) Pattern() string {
	switch k {
	case KindImage:
		return ImagePattern
	case KindAudio:
		return AudioPattern
	case KindVideo:
		return VideoPattern
	case KindFile:
		return FilePattern
	case KindLocation:
		return LocationPattern
	}
	return ""
}

// ParseUploadKind maps a request discriminator to one of the uploadable kinds.
// Location is not uploadable and is rejected like any unknown value.
func ParseUploadKind(raw string) (AttachmentKind, bool) {
	switch k := AttachmentKind(raw); k {
	case KindImage, KindAudio, KindVideo, KindFile:
		return k, true
	}
	return "", false
}

// Attachment is a single media item. Image, audio, video and file attachments wrap a URL
// (for inbound web uploads, a base64 data URI); locations carry coordinates instead.
type Attachment struct {
	Kind      AttachmentKind
	URL       string
	Title     string
	Latitude  float64
	Longitude float64
}

// NewImage creates an image attachment.
func NewImage(url string) Attachment { return Attachment{Kind: KindImage, URL: url} }

// NewAudio creates an audio attachment.
func NewAudio(url string) Attachment { return Attachment{Kind: KindAudio, URL: url} }

// NewVideo creates a video attachment.
func NewVideo(url string) Attachment { return Attachment{Kind: KindVideo, URL: url} }

// NewFile creates a file attachment.
func NewFile(url string) Attachment { return Attachment{Kind: KindFile, URL: url} }

// NewLocation creates a location attachment.
func NewLocation(latitude, longitude float64) Attachment {
	return Attachment{Kind: KindLocation, Latitude: latitude, Longitude: longitude}
}

// NewAttachment creates an attachment of the given kind wrapping url.
func NewAttachment(kind AttachmentKind, url string) Attachment {
	return Attachment{Kind: kind, URL: url}
}

// WithTitle returns a copy of the attachment with a title set.
func (a Attachment) WithTitle(title string) Attachment {
	a.Title = title
	return a
}

// ToWebDriver renders the attachment for the web channel.
func (a Attachment) ToWebDriver() map[string]any {
	if a.Kind == KindLocation {
		return map[string]any{
			"type":      string(KindLocation),
			"latitude":  a.Latitude,
			"longitude": a.Longitude,
		}
	}
	return map[string]any{
		"type":  string(a.Kind),
		"url":   a.URL,
		"title": a.Title,
	}
}
