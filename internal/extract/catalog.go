// SPDX-License-Identifier: MIT

// Package extract retrieves a remote video by identifier using an
// ordered battery of download strategies against an adversarial source.
package extract

// Strategy is one fixed extraction configuration: identity profile,
// format preference, and capability flags. Strategies are defined at
// process start, never mutated, and read concurrently by any number of
// runs.
type Strategy struct {
	Name string

	// Identity profile. Header values rot against the live source and
	// are configuration, not invariants.
	UserAgent string
	Headers   map[string]string

	// Format is an ordered preference expression; first match wins.
	Format string

	// Player identity hints passed to the extraction tool.
	PlayerClients  []string
	InnertubeHosts []string

	GeoBypass  bool
	GeoCountry string

	// IgnoreErrors tolerates partial per-fragment failures.
	IgnoreErrors bool

	// NeedsCookies gates the strategy on persisted credential material.
	// An absent cookies file skips the strategy entirely.
	NeedsCookies bool

	// AudioOnly tags the outcome so the transcode stage synthesizes a
	// video stream.
	AudioOnly bool
}

// Catalog returns the seven strategies in strict priority order. The
// order is never changed at runtime and attempts are never
// parallelized: parallel attempts would multiply request volume and
// raise the chance of tripping defenses for all later attempts.
func Catalog() []Strategy {
	return []Strategy{
		{
			Name:      "best_quality",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.5",
				"Sec-Fetch-Mode":  "navigate",
				"DNT":             "1",
			},
			Format:         "best[height<=720][ext=mp4]/best[height<=720]/best[ext=mp4]/best/worst",
			PlayerClients:  []string{"web", "android", "ios"},
			InnertubeHosts: []string{"www.youtube.com", "youtubei.googleapis.com"},
		},
		{
			Name:      "with_cookies",
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
				"Referer":         "https://www.youtube.com/",
			},
			Format:         "best[height<=720][ext=mp4]/best[height<=720]/best[ext=mp4]/best/worst",
			PlayerClients:  []string{"web", "android", "ios"},
			InnertubeHosts: []string{"www.youtube.com", "youtubei.googleapis.com"},
			NeedsCookies:   true,
		},
		{
			Name:      "mobile_identity",
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			Headers: map[string]string{
				"Accept-Language":  "en-US,en;q=0.9",
				"Referer":          "https://m.youtube.com/",
				"X-Requested-With": "XMLHttpRequest",
			},
			Format:         "best[height<=480]/worst",
			PlayerClients:  []string{"ios", "android"},
			InnertubeHosts: []string{"m.youtube.com", "youtubei.googleapis.com"},
		},
		{
			Name:      "geo_bypass",
			UserAgent: "Mozilla/5.0 (Linux; Android 13; SM-S908B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Mobile Safari/537.36",
			Headers: map[string]string{
				"Origin":                   "https://www.youtube.com",
				"Referer":                  "https://www.youtube.com/",
				"X-YouTube-Client-Name":    "2",
				"X-YouTube-Client-Version": "2.20240701.01.00",
			},
			Format:         "worst/best",
			PlayerClients:  []string{"android", "web"},
			InnertubeHosts: []string{"youtubei.googleapis.com"},
			GeoBypass:      true,
			GeoCountry:     "US",
		},
		{
			Name:      "worst_quality",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
			Headers: map[string]string{
				"Accept-Language": "en-US,en;q=0.5",
				"Referer":         "https://www.google.com/",
				"Sec-GPC":         "1",
			},
			Format:         "worst",
			PlayerClients:  []string{"web", "tv_embedded", "android"},
			InnertubeHosts: []string{"www.youtube.com"},
			IgnoreErrors:   true,
		},
		{
			Name:      "legacy_formats",
			UserAgent: "Mozilla/5.0 (SMART-TV; Linux; Tizen 5.5) AppleWebKit/537.36 (KHTML, like Gecko) SamsungBrowser/3.0 Chrome/69.0.3497.106 TV Safari/537.36",
			Headers: map[string]string{
				"Origin":                   "https://www.youtube.com",
				"Referer":                  "https://www.youtube.com/",
				"X-YouTube-Client-Name":    "3",
				"X-YouTube-Client-Version": "16.20",
			},
			// Explicit ordered set of legacy format identifiers.
			Format:         "18/22/36/17/13/5",
			PlayerClients:  []string{"tv_embedded", "android"},
			InnertubeHosts: []string{"youtubei.googleapis.com"},
			IgnoreErrors:   true,
		},
		{
			Name:      "audio_only",
			UserAgent: "Mozilla/5.0 (PlayStation; PlayStation 5/2.26) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0 Safari/605.1.15",
			Headers: map[string]string{
				"Referer":                  "https://www.youtube.com/",
				"X-YouTube-Client-Name":    "5",
				"X-YouTube-Client-Version": "16.20",
			},
			Format:         "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio",
			PlayerClients:  []string{"tv_embedded", "android", "web"},
			InnertubeHosts: []string{"youtubei.googleapis.com"},
			IgnoreErrors:   true,
			AudioOnly:      true,
		},
	}
}
