package service

import "strings"

// ImageResolver maps stored image keys to public URLs. It is a pure mapping
// applied at the read boundary; entities carry keys and stay storage-agnostic.
type ImageResolver struct {
	baseURL string
}

// NewImageResolver creates a resolver rooted at baseURL.
func NewImageResolver(baseURL string) *ImageResolver {
	return &ImageResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve turns a storage key into a public URL. Empty keys resolve to "".
// Keys that already look like absolute URLs pass through untouched.
func (r *ImageResolver) Resolve(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return r.baseURL + "/" + strings.TrimLeft(key, "/")
}

// ResolveAll maps a key list to URLs, preserving order.
func (r *ImageResolver) ResolveAll(keys []string) []string {
	urls := make([]string, len(keys))
	for i, k := range keys {
		urls[i] = r.Resolve(k)
	}
	return urls
}
