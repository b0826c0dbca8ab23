package assets

import (
	"net/url"
	"strings"

	"wordsmith/internal/core"
)

// imageExtensions are the file suffixes accepted as direct image URLs.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg"}

// knownImageHosts serve images from extension-less URLs; a URL on one of
// these passes validation without a recognized suffix.
var knownImageHosts = []string{
	"upload.wikimedia.org",
	"images.unsplash.com",
	"images.pexels.com",
	"live.staticflickr.com",
	"i.imgur.com",
	"raw.githubusercontent.com",
	"user-images.githubusercontent.com",
}

// validate keeps only assets whose URL plausibly points at an image:
// absolute http(s), and either an image extension or a known image host.
func validate(assets []core.FoundAsset) []core.FoundAsset {
	var out []core.FoundAsset
	for _, a := range assets {
		if usableURL(a.URL) {
			out = append(out, a)
		}
	}
	return out
}

func usableURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	host := strings.ToLower(u.Host)
	for _, known := range knownImageHosts {
		if host == known {
			return true
		}
	}
	return false
}

// diversify deduplicates by URL, caps assets per hosting domain and per
// source site, and truncates to the overall result cap, preserving input
// order. The hosting domain and the source site differ when a site serves
// its images from a CDN.
func (f *Finder) diversify(assets []core.FoundAsset) []core.FoundAsset {
	seen := make(map[string]bool)
	perDomain := make(map[string]int)
	perSite := make(map[string]int)

	var out []core.FoundAsset
	for _, a := range assets {
		if len(out) >= f.limits.MaxResults {
			break
		}
		if seen[a.URL] {
			continue
		}
		domain := hostOf(a.URL)
		if perDomain[domain] >= f.limits.PerDomain {
			continue
		}
		site := strings.ToLower(a.SourceSite)
		if site != "" && perSite[site] >= f.limits.PerDomain {
			continue
		}
		seen[a.URL] = true
		perDomain[domain]++
		if site != "" {
			perSite[site]++
		}
		out = append(out, a)
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
