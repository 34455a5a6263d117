package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// NewAPI builds a client for a Confluence Cloud instance, i.e. https://INSTANCE.atlassian.net/wiki.
func NewAPI(instance string, username string, token string) (*API, error) {
	if instance == "" {
		return nil, errors.New("confluence: configure your Confluence instance name --confluence-instance")
	}

	return NewAPIWithBaseURL(fmt.Sprintf("https://%s.atlassian.net/wiki", instance), username, token)
}

// NewAPIWithBaseURL builds a client for any Confluence whose REST API lives under
// BASE/rest/api, e.g. https://wiki.example.com/confluence for Server/Data Center installs.
func NewAPIWithBaseURL(baseURL string, username string, token string) (*API, error) {
	if username == "" {
		return nil, errors.New("confluence: configure your Confluence username with --auth-username")
	}
	if token == "" {
		return nil, errors.New("confluence: auth token is empty, please check auth-token-cmd")
	}

	// endpoints are resolved relative to the base, so it has to look like a directory.
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}

	a := &API{
		BaseURI:  u,
		token:    token,
		username: username,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Root of the wiki, always with a trailing slash, e.g. https://INSTANCE.atlassian.net/wiki/
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Auth info
	username, token string
}
