package journey

import "strings"

// Fixed priority lists for user-agent sniffing. First match wins; substring
// matching is case-insensitive. This feeds dashboard charts, not feature
// detection.
var (
	deviceHints = []struct {
		needle string
		value  string
	}{
		{"mobile", "mobile"},
		{"ipad", "tablet"},
		{"tablet", "tablet"},
		{"windows", "desktop"},
		{"macintosh", "desktop"},
		{"mac os", "desktop"},
		{"linux", "desktop"},
		{"x11", "desktop"},
	}

	browserHints = []struct {
		needle string
		value  string
	}{
		{"chrome", "Chrome"},
		{"firefox", "Firefox"},
		{"safari", "Safari"},
		{"edge", "Edge"},
		{"opera", "Opera"},
	}

	osHints = []struct {
		needle string
		value  string
	}{
		{"windows", "Windows"},
		{"mac os", "macOS"},
		{"macintosh", "macOS"},
		{"android", "Android"},
		{"linux", "Linux"},
		{"iphone", "iOS"},
		{"ipad", "iOS"},
		{"ios", "iOS"},
	}
)

// DetectDevice derives the device snapshot from a raw user-agent string.
// Unknown agents yield {"unknown", "Unknown", "Unknown"}.
func DetectDevice(userAgent string) DeviceInfo {
	ua := strings.ToLower(userAgent)

	info := DeviceInfo{DeviceType: "unknown", Browser: "Unknown", OS: "Unknown"}

	for _, h := range deviceHints {
		if strings.Contains(ua, h.needle) {
			info.DeviceType = h.value
			break
		}
	}
	for _, h := range browserHints {
		if strings.Contains(ua, h.needle) {
			info.Browser = h.value
			break
		}
	}
	for _, h := range osHints {
		if strings.Contains(ua, h.needle) {
			info.OS = h.value
			break
		}
	}

	return info
}
