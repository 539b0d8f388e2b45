package ytresolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"fknsrs.biz/p/ytstats/internal/ytapi"
)

type KeyKind string

const (
	ChannelID = KeyKind("channel_id")
	Username  = KeyKind("username")
)

// Key is a canonical lookup key for the metadata source.
type Key struct {
	Kind  KeyKind
	Value string
}

var (
	ErrNotFound = fmt.Errorf("ytresolver: channel not found")
)

var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// Resolve turns free-text input (URL, handle, raw id, or name) into a lookup
// key. Strategies are tried in order; a failed search is non-fatal except for
// the final name-search fallback.
func Resolve(ctx context.Context, input string) (*Key, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("ytresolver.Resolve: empty input")
	}

	if parsed, err := url.Parse(input); err == nil && parsed.Host != "" {
		if id, ok := channelIDFromPath(parsed.Path); ok {
			return &Key{Kind: ChannelID, Value: id}, nil
		}

		if name, ok := usernameFromPath(parsed.Path); ok {
			return &Key{Kind: Username, Value: name}, nil
		}
	}

	if handle, ok := handleFrom(input); ok {
		if id, err := ytapi.SearchChannelID(ctx, handle); err == nil {
			return &Key{Kind: ChannelID, Value: id}, nil
		}
	}

	if channelIDPattern.MatchString(input) {
		return &Key{Kind: ChannelID, Value: input}, nil
	}

	id, err := ytapi.SearchChannelID(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ytresolver.Resolve: search for %q failed: %w", input, ErrNotFound)
	}

	return &Key{Kind: ChannelID, Value: id}, nil
}

func channelIDFromPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	for i, part := range parts {
		if part == "channel" && i+1 < len(parts) && channelIDPattern.MatchString(parts[i+1]) {
			return parts[i+1], true
		}
	}

	return "", false
}

func usernameFromPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	for i, part := range parts {
		if part == "user" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], true
		}
	}

	return "", false
}

// handleFrom accepts a bare @handle or a URL whose last path segment is one.
func handleFrom(input string) (string, bool) {
	if strings.HasPrefix(input, "@") && !strings.ContainsAny(input, "/ ") {
		return input, true
	}

	if parsed, err := url.Parse(input); err == nil && parsed.Host != "" {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) > 0 && strings.HasPrefix(parts[len(parts)-1], "@") {
			return parts[len(parts)-1], true
		}
	}

	return "", false
}
