package vision

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const DefaultMediaType = "image/jpeg"

// Hints are best-effort product fields read off a photo. Empty means absent. Price is
// the model's text and may not parse as a number.
type Hints struct {
	Manufacturer string `json:"hersteller,omitempty"`
	Model        string `json:"modell,omitempty"`
	Color        string `json:"farbe,omitempty"`
	Size         string `json:"groesse,omitempty"`
	Description  string `json:"produktbeschreibung,omitempty"`
	Price        string `json:"preis,omitempty"`
}

func (h Hints) Empty() bool {
	return h == Hints{}
}

// Label names what was recognised, e.g. "Nike Air Max 90".
func (h Hints) Label() string {
	return strings.TrimSpace(h.Manufacturer + " " + h.Model)
}

var reFence = regexp.MustCompile("```(?:json)?")

// StripFences removes markdown code fences the model may wrap its answer in.
func StripFences(text string) string {
	return strings.TrimSpace(reFence.ReplaceAllString(text, ""))
}

// ParseHints decodes a model reply. Anything other than a JSON object yields empty
// Hints. Numbers are kept as their shortest decimal text.
func ParseHints(text string) Hints {
	var raw map[string]any
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return Hints{}
	}
	return Hints{
		Manufacturer: hintString(raw["hersteller"]),
		Model:        hintString(raw["modell"]),
		Color:        hintString(raw["farbe"]),
		Size:         hintString(raw["groesse"]),
		Description:  hintString(raw["produktbeschreibung"]),
		Price:        hintString(raw["preis"]),
	}
}

func hintString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// EncodeImage reads an upload into base64. An empty media type falls back to
// DefaultMediaType.
func EncodeImage(r io.Reader, mediaType string) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("read image: empty file")
	}
	if mediaType = strings.TrimSpace(mediaType); mediaType == "" {
		mediaType = DefaultMediaType
	}
	return base64.StdEncoding.EncodeToString(data), mediaType, nil
}
