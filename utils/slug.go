package utils

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// slugAttempts bounds the uniqueness-retry loop; a second collision on a
// random 10-char suffix is practically impossible.
const slugAttempts = 5

// ErrSlugExhausted is returned when no unique slug could be allocated.
var ErrSlugExhausted = errors.New("could not allocate a unique slug")

// SlugCandidate derives the URL-safe slug candidate from a title. It is a
// pure function; uniqueness is handled by UniqueSlug.
func SlugCandidate(title string) string {
	return slug.Make(title)
}

// ShortID returns a short random identifier used to de-collide slugs.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// UniqueSlug builds a slug from title and retries with a random suffix while
// exists reports a collision.
func UniqueSlug(title string, exists func(string) (bool, error)) (string, error) {
	base := SlugCandidate(title)
	if base == "" {
		base = ShortID()
	}
	candidate := base
	for i := 0; i < slugAttempts; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + ShortID()
	}
	return "", ErrSlugExhausted
}

// CommentSlug derives a slug for a comment from its body. Comment slugs are
// not unique-indexed, so a random suffix is always appended.
func CommentSlug(body string) string {
	const maxBase = 40
	base := body
	if len(base) > maxBase {
		base = base[:maxBase]
	}
	candidate := SlugCandidate(base)
	if candidate == "" {
		return ShortID()
	}
	return candidate + "-" + ShortID()
}
