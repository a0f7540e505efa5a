package throttle

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// DeviceTraits are the browser attributes a client reports for fingerprinting.
// Missing values fold in as empty strings or zero.
type DeviceTraits struct {
	UserAgent       string `json:"user_agent"`
	Language        string `json:"language"`
	ScreenWidth     int    `json:"screen_width"`
	ScreenHeight    int    `json:"screen_height"`
	TimezoneOffset  int    `json:"timezone_offset"`
	CanvasSignature string `json:"canvas_signature"`
	Platform        string `json:"platform"`
	CookieEnabled   bool   `json:"cookie_enabled"`
}

// Fingerprint folds the traits into a short heuristic identifier. It is neither stable across
// browser updates nor collision resistant and must not be used as a security control.
func Fingerprint(t DeviceTraits) string {
	cookie := "0"
	if t.CookieEnabled {
		cookie = "1"
	}
	joined := strings.Join([]string{
		t.UserAgent,
		t.Language,
		strconv.Itoa(t.ScreenWidth),
		strconv.Itoa(t.ScreenHeight),
		strconv.Itoa(t.TimezoneOffset),
		t.CanvasSignature,
		t.Platform,
		cookie,
	}, "|")
	return strconv.FormatInt(int64(fold(joined)), 36)
}

// fold computes h = h*31 + c over UTF-16 code units with 32-bit wrap-around.
func fold(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	return h
}
