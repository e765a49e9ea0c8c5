// Package domain contains core concepts of the chat session.
// This file defines Peer entities and their avatar.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Avatar is an opaque picture attached to a peer. Nil or empty means absent.
type Avatar []byte

// Peer is an online participant. Identity is the unique key.
type Peer struct {
	Identity string
	Avatar   Avatar
}

// AvatarFromFile reads a locally selected picture.
// An empty path yields an absent avatar.
func AvatarFromFile(path string) (Avatar, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read avatar %s: %w", path, err)
	}
	return content, nil
}

func (a Avatar) Present() bool {
	return len(a) > 0
}

// MimeType sniffs the avatar content, "" when absent.
func (a Avatar) MimeType() string {
	if !a.Present() {
		return ""
	}
	return mimetype.Detect(a).String()
}

// DataURL returns a displayable reference for the avatar.
// Renderers show no image when the result is empty.
func (a Avatar) DataURL() string {
	if !a.Present() {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType(), base64.StdEncoding.EncodeToString(a))
}
