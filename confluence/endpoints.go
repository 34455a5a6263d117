package confluence

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"gitlab.com/tozd/go/errors"
)

// getContentEndpoint returns the (v1) API endpoint to search content by space, title and type:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
//
// The same path, POSTed to, creates content.
func (a *API) getContentEndpoint(opts ContentQuery) (*url.URL, error) {
	return a.queryEndpoint("rest/api/content", opts)
}

// getContentByIDEndpoint returns the (v1) API endpoint to fetch one piece of content:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
func (a *API) getContentByIDEndpoint(opts ContentByIDQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, errors.New("confluence: please provide ID to get content by ID")
	}

	return a.queryEndpoint(fmt.Sprintf("rest/api/content/%s", url.PathEscape(opts.ID)), opts)
}

// getChildrenEndpoint returns the (v1) API endpoint to list direct children of one type:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-child-and-descendants/#api-wiki-rest-api-content-id-child-type-get
func (a *API) getChildrenEndpoint(opts ChildrenQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, errors.New("confluence: please provide parent ID to list children")
	}
	if opts.ChildType == "" {
		return nil, errors.New("confluence: please provide child type to list children")
	}

	return a.queryEndpoint(fmt.Sprintf("rest/api/content/%s/child/%s",
		url.PathEscape(opts.ID),
		url.PathEscape(opts.ChildType)), opts)
}

// getAttachmentsEndpoint returns the (v1) API endpoint to list, or POST new, attachments:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-get
func (a *API) getAttachmentsEndpoint(opts AttachmentsQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, errors.New("confluence: please provide container ID for attachments")
	}

	return a.queryEndpoint(fmt.Sprintf("rest/api/content/%s/child/attachment", url.PathEscape(opts.ID)), opts)
}

// getAttachmentDataEndpoint returns the (v1) API endpoint to upload a new version of an attachment:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-attachmentid-data-post
func (a *API) getAttachmentDataEndpoint(containerID string, attachmentID string) (*url.URL, error) {
	if containerID == "" || attachmentID == "" {
		return nil, errors.New("confluence: please provide container and attachment ID to update an attachment")
	}

	return a.resolveEndpoint(fmt.Sprintf("rest/api/content/%s/child/attachment/%s/data",
		url.PathEscape(containerID),
		url.PathEscape(attachmentID)))
}

// getLabelsEndpoint returns the (v1) API endpoint to list, or POST new, labels:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-labels/#api-wiki-rest-api-content-id-label-get
func (a *API) getLabelsEndpoint(opts LabelsQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, errors.New("confluence: please provide content ID for labels")
	}

	return a.queryEndpoint(fmt.Sprintf("rest/api/content/%s/label", url.PathEscape(opts.ID)), opts)
}

// getSpaceEndpoint returns the (v1) API endpoint for a single space:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
func (a *API) getSpaceEndpoint(opts SpaceQuery) (*url.URL, error) {
	if opts.Key == "" {
		return nil, errors.New("confluence: please provide a space key")
	}

	return a.queryEndpoint(fmt.Sprintf("rest/api/space/%s", url.PathEscape(opts.Key)), opts)
}

// getSpacesEndpoint returns the (v1) API endpoint to list spaces
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
func (a *API) getSpacesEndpoint(opts SpacesQuery) (*url.URL, error) {
	return a.queryEndpoint("rest/api/space", opts)
}

// getCurrentUserEndpoint returns the (v1) API endpoint to query current user
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("rest/api/user/current")
}

// getDownloadEndpoint turns an attachment's _links.download (relative to the wiki root, with
// its own query string) into an absolute URL.
func (a *API) getDownloadEndpoint(downloadLink string) (*url.URL, error) {
	if downloadLink == "" {
		return nil, errors.New("confluence: attachment has no download link")
	}

	link, err := url.Parse(downloadLink)
	if err != nil {
		return nil, errors.Errorf("confluence: failed to parse download link: %w", err)
	}
	if link.IsAbs() {
		return link, nil
	}

	return a.BaseURI.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(link.Path, "/"),
		RawQuery: link.RawQuery,
	}), nil
}

func (a *API) queryEndpoint(endpoint string, opts any) (*url.URL, error) {
	ep, err := a.resolveEndpoint(endpoint)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	if strings.HasPrefix(endpoint, "/") {
		return nil, errors.Errorf("confluence: endpoint must be relative to the wiki root: %s", endpoint)
	}

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	return a.BaseURI.ResolveReference(ref), nil
}
