package entities

// MediaKind is the closed set of attachment variants the relay knows how to
// re-send with a typed call. Anything else is copied opaquely.
type MediaKind string

const (
	MediaKindOpaque    MediaKind = "opaque"
	MediaKindImage     MediaKind = "image"
	MediaKindAnimation MediaKind = "animation"
	MediaKindVideo     MediaKind = "video"
)

// ClassifyMIME maps a declared content type to a media kind.
func ClassifyMIME(mime string) MediaKind {
	switch mime {
	case "image/jpeg", "image/png", "image/webp":
		return MediaKindImage
	case "image/gif":
		return MediaKindAnimation
	case "video/quicktime", "video/mp4":
		return MediaKindVideo
	default:
		return MediaKindOpaque
	}
}

// FileName is the name typed re-sends are uploaded under.
func (k MediaKind) FileName() string {
	switch k {
	case MediaKindImage:
		return "image.png"
	case MediaKindAnimation:
		return "image.gif"
	case MediaKindVideo:
		return "image.mp4"
	default:
		return "file"
	}
}

type Attachment struct {
	FileID   string
	FileName string
	MimeType string
}

func (a *Attachment) Kind() MediaKind {
	if a == nil {
		return MediaKindOpaque
	}
	return ClassifyMIME(a.MimeType)
}

// InputFile is either raw bytes to upload or a handle issued by a previous upload.
type InputFile struct {
	Name   string
	Bytes  []byte
	Handle string
}

func (f InputFile) IsHandle() bool {
	return f.Handle != ""
}

// Button is an inline keyboard button carrying an opaque payload.
type Button struct {
	Text string
	Data string
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

type OutgoingText struct {
	ChatID   int64
	Text     string
	ReplyTo  int
	Keyboard Keyboard
}

type OutgoingMedia struct {
	ChatID  int64
	Kind    MediaKind
	File    InputFile
	Caption string
	ReplyTo int
}

// Sent describes a delivered message. FileHandle is set when the gateway issued
// a reusable handle for the uploaded file.
type Sent struct {
	Ref        MessageRef
	FileHandle string
}
