package mediatype

import (
	"mime"
	"strings"
	"time"
)

// Kind enumerates the known content types.
type Kind int

const (
	KindUnknown Kind = iota
	KindGIF
	KindMP4
	KindWebM
	KindOGV
	KindJPEG
	KindPNG
	KindSVG
	KindMP3
	KindOGG
)

// Format names a rendition format by MIME type and storage extension.
type Format struct {
	MIME string
	Ext  string
}

// Profile describes the processing expected for a content type. Targets are
// the renditions a worker must produce; Extras are auxiliary renditions
// (e.g. a poster frame) that do not participate in compression accounting.
// TimeBudget is advisory metadata for a worker-side timeout; nothing in the
// core enforces it.
type Profile struct {
	Kind       Kind
	MIME       string
	Targets    []Format
	Extras     []Format
	TimeBudget time.Duration
}

var (
	formatMP4  = Format{MIME: "video/mp4", Ext: "mp4"}
	formatOGV  = Format{MIME: "video/ogv", Ext: "ogv"}
	formatWebM = Format{MIME: "video/webm", Ext: "webm"}
	formatPNG  = Format{MIME: "image/png", Ext: "png"}
	formatMP3  = Format{MIME: "audio/mp3", Ext: "mp3"}
	formatOGG  = Format{MIME: "audio/ogg", Ext: "ogg"}
	formatOGA  = Format{MIME: "audio/oga", Ext: "oga"}
)

var profiles = map[Kind]Profile{
	KindGIF: {
		Kind:    KindGIF,
		MIME:    "image/gif",
		Targets: []Format{formatMP4, formatOGV, formatWebM},
		Extras:  []Format{formatPNG},
	},
	KindMP4: {
		Kind:       KindMP4,
		MIME:       "video/mp4",
		Targets:    []Format{formatWebM, formatOGV},
		Extras:     []Format{formatPNG},
		TimeBudget: 600 * time.Second,
	},
	KindWebM: {
		Kind:       KindWebM,
		MIME:       "video/webm",
		Targets:    []Format{formatMP4, formatOGV},
		Extras:     []Format{formatPNG},
		TimeBudget: 600 * time.Second,
	},
	KindOGV: {
		Kind:       KindOGV,
		MIME:       "video/ogv",
		Targets:    []Format{formatMP4, formatWebM},
		Extras:     []Format{formatPNG},
		TimeBudget: 600 * time.Second,
	},
	KindJPEG: {
		Kind:       KindJPEG,
		MIME:       "image/jpeg",
		TimeBudget: 5 * time.Second,
	},
	KindPNG: {
		Kind:       KindPNG,
		MIME:       "image/png",
		TimeBudget: 60 * time.Second,
	},
	KindSVG: {
		Kind:       KindSVG,
		MIME:       "image/svg",
		TimeBudget: 5 * time.Second,
	},
	KindMP3: {
		Kind:       KindMP3,
		MIME:       "audio/mp3",
		Targets:    []Format{formatOGG},
		TimeBudget: 120 * time.Second,
	},
	KindOGG: {
		Kind:       KindOGG,
		MIME:       "audio/ogg",
		Targets:    []Format{formatOGA, formatMP3},
		TimeBudget: 120 * time.Second,
	},
}

// kindByExtension maps every allowed extension to its content kind.
// jpe/jpg/jpeg collapse to JPEG and oga to OGG the same way the MIME
// registry collapses them.
var kindByExtension = map[string]Kind{
	"gif":  KindGIF,
	"mp4":  KindMP4,
	"webm": KindWebM,
	"ogv":  KindOGV,
	"jpg":  KindJPEG,
	"jpe":  KindJPEG,
	"jpeg": KindJPEG,
	"png":  KindPNG,
	"svg":  KindSVG,
	"mp3":  KindMP3,
	"ogg":  KindOGG,
	"oga":  KindOGG,
}

// VideoExtensions and AudioExtensions classify allowed extensions for
// callers that render playback surfaces.
var (
	VideoExtensions = []string{"gif", "ogv", "mp4", "webm"}
	AudioExtensions = []string{"mp3", "ogg", "oga"}
)

// Allowed reports whether the extension is in the supported set.
func Allowed(ext string) bool {
	_, ok := kindByExtension[strings.ToLower(ext)]
	return ok
}

// AllowedFilename reports whether the filename carries a supported extension.
func AllowedFilename(filename string) bool {
	ext := ExtensionOf(filename)
	return ext != "" && Allowed(ext)
}

// ExtensionOf returns the lowercased extension of a filename, without the
// dot, or "" when the name has none.
func ExtensionOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// KindForExtension resolves an extension to its content kind.
func KindForExtension(ext string) (Kind, bool) {
	kind, ok := kindByExtension[strings.ToLower(ext)]
	return kind, ok
}

// ProfileForExtension resolves an extension to its processing profile.
// The second return value is false for unknown extensions.
func ProfileForExtension(ext string) (Profile, bool) {
	kind, ok := kindByExtension[strings.ToLower(ext)]
	if !ok {
		return Profile{}, false
	}
	return profiles[kind], true
}

// ProfileFor returns the processing profile for a known kind.
func ProfileFor(kind Kind) (Profile, bool) {
	profile, ok := profiles[kind]
	return profile, ok
}

// ExtensionForMIME derives a filename extension from a MIME type using the
// platform registry, falling back to the subtype when the registry has no
// entry. The result omits the leading dot and is "" for malformed input.
func ExtensionForMIME(contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(normalized, ';'); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if normalized == "" {
		return ""
	}

	if exts, err := mime.ExtensionsByType(normalized); err == nil && len(exts) > 0 {
		// Prefer an extension we recognize; registries list variants like
		// .jpe ahead of .jpg.
		for _, candidate := range exts {
			trimmed := strings.TrimPrefix(candidate, ".")
			if Allowed(trimmed) {
				return trimmed
			}
		}
		return strings.TrimPrefix(exts[0], ".")
	}

	if idx := strings.IndexByte(normalized, '/'); idx >= 0 && idx < len(normalized)-1 {
		return normalized[idx+1:]
	}
	return ""
}

// String names the kind for logs and CLI output.
func (k Kind) String() string {
	if profile, ok := profiles[k]; ok {
		return profile.MIME
	}
	return "unknown"
}

// HasTargets reports whether the profile declares any target renditions.
func (p Profile) HasTargets() bool {
	return len(p.Targets) > 0
}
