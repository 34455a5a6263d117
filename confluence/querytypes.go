package confluence

// SpacesQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
type SpacesQuery struct {
	// Filter the results to spaces based on...
	Keys   []string `url:"spaceKey,omitempty"` // their keys.
	Type   string   `url:"type,omitempty"`     // their types. Valid values: "global" or "personal"
	Status string   `url:"status,omitempty"`   // their status: current, archived.
	Label  []string `url:"label,omitempty"`    // their labels.

	Expand []string `url:"expand,omitempty,comma"`

	// Offset pagination; the next offset is read back out of the '_links.next' URL.
	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"` // page limit; default 25
}

// SpaceQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
type SpaceQuery struct {
	Key    string   `url:"-"` // key of the space; required
	Expand []string `url:"expand,omitempty,comma"`
}

// ContentQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
//
// Confluence only honours Title when SpaceKey is given as well.
type ContentQuery struct {
	Type     string   `url:"type,omitempty"` // page, blogpost
	SpaceKey string   `url:"spaceKey,omitempty"`
	Title    string   `url:"title,omitempty"`
	Status   []string `url:"status,omitempty,comma"` // current, trashed, draft, any
	Expand   []string `url:"expand,omitempty,comma"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// ContentByIDQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
type ContentByIDQuery struct {
	ID      string   `url:"-"` // ID of the content; required
	Status  []string `url:"status,omitempty,comma"`
	Version int      `url:"version,omitempty"` // retrieve a previously published version
	Expand  []string `url:"expand,omitempty,comma"`
}

// ChildrenQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-child-and-descendants/#api-wiki-rest-api-content-id-child-type-get
//
// It also covers the comment listing, which is the same endpoint with ChildType "comment".
type ChildrenQuery struct {
	ID        string `url:"-"` // ID of the parent content; required
	ChildType string `url:"-"` // page, comment, attachment; required

	Expand        []string `url:"expand,omitempty,comma"`
	ParentVersion int      `url:"parentVersion,omitempty"`
	Location      []string `url:"location,omitempty"` // comments only: inline, footer, resolved
	Depth         string   `url:"depth,omitempty"`    // comments only: "all" for nested replies

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// AttachmentsQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-get
type AttachmentsQuery struct {
	ID        string   `url:"-"` // ID of the container; required
	Filename  string   `url:"filename,omitempty"`
	MediaType string   `url:"mediaType,omitempty"`
	Expand    []string `url:"expand,omitempty,comma"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// LabelsQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-labels/#api-wiki-rest-api-content-id-label-get
type LabelsQuery struct {
	ID     string `url:"-"` // ID of the content; required
	Prefix string `url:"prefix,omitempty"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"`
}
