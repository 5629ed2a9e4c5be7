package reddit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidUsername is returned when no username can be read from input.
var ErrInvalidUsername = errors.New("invalid reddit username or profile URL")

var (
	profileURL = regexp.MustCompile(`^(?:https?://)?(?:www\.|old\.)?reddit\.com/(?:user|u)/([A-Za-z0-9_-]+)/?`)
	shortForm  = regexp.MustCompile(`^/?u/([A-Za-z0-9_-]+)/?$`)
	bareName   = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
)

// ParseUsername extracts the username from a profile URL, "u/name" or a
// bare name.
func ParseUsername(input string) (string, error) {
	s := strings.TrimSpace(input)
	if m := profileURL.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if m := shortForm.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if bareName.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUsername, input)
}
