package preview

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func canonicalise(title string) (string, error) {
	str := nonAlphanumeric.ReplaceAllString(title, " ")
	str = strings.ToLower(str)
	str = strings.Join(strings.Fields(str), "-")

	if len(str) > 100 {
		str = str[:100]
	}

	str = strings.Trim(str, "-")

	if len(str) < 2 {
		return "", errors.Errorf("preview: slug too short: title was '%s'", title)
	}

	return str, nil
}
