package model

import (
	"fmt"
	"strings"

	"github.com/stevemurr/content-builder/apperr"
)

// SupportedPlatforms lists the accepted platform names in display order.
var SupportedPlatforms = []string{
	"youtube", "instagram", "tiktok", "twitter",
	"linkedin", "website", "facebook", "twitch",
}

// forbiddenHandleChars break platform profile URLs.
var forbiddenHandleChars = []string{" ", "\t", "\n", "@", "#", "&", "?", "=", "+", "%"}

// NormalizePlatform lowercases and checks a platform name against
// SupportedPlatforms.
func NormalizePlatform(name string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(name))
	for _, p := range SupportedPlatforms {
		if p == v {
			return v, nil
		}
	}
	return "", apperr.Validation("platform", name, fmt.Sprintf(
		"platform %q is not supported. Valid platforms: %s",
		name, strings.Join(SupportedPlatforms, ", ")))
}

// NormalizeHandle rejects empty handles and handles containing whitespace or
// any of @ # & ? = + %, and returns the trimmed handle.
func NormalizeHandle(handle string) (string, error) {
	if strings.TrimSpace(handle) == "" {
		return "", apperr.Validation("handle", handle, "platform handle cannot be empty")
	}
	var found []string
	for _, c := range forbiddenHandleChars {
		if strings.Contains(handle, c) {
			found = append(found, quoteChar(c))
		}
	}
	if len(found) > 0 {
		return "", apperr.Validation("handle", handle, fmt.Sprintf(
			"platform handle %q is invalid: it contains %s; handles cannot contain spaces or any of @ # & ? = + %%",
			handle, strings.Join(found, ", ")))
	}
	return strings.TrimSpace(handle), nil
}

func quoteChar(c string) string {
	switch c {
	case " ":
		return "space"
	case "\t":
		return "tab"
	case "\n":
		return "newline"
	default:
		return "'" + c + "'"
	}
}

// NormalizePlatforms validates every entry and returns a copy with lowercase
// platform names and trimmed handles.
func NormalizePlatforms(in []Platform) ([]Platform, error) {
	out := make([]Platform, 0, len(in))
	for i, p := range in {
		name, err := NormalizePlatform(p.Platform)
		if err != nil {
			return nil, indexed(err, i)
		}
		handle, err := NormalizeHandle(p.Handle)
		if err != nil {
			return nil, indexed(err, i)
		}
		out = append(out, Platform{Platform: name, Handle: handle})
	}
	return out, nil
}

func indexed(err error, i int) error {
	if ve, ok := err.(*apperr.ValidationError); ok {
		return apperr.Validation(fmt.Sprintf("platforms[%d].%s", i, ve.Field), ve.Value, ve.Reason)
	}
	return err
}
