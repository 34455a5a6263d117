package confluence

import "encoding/json"

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	UserKey     string `json:"userKey"`
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get.
// Homepage is only filled in when asked for with expand=homepage.
type Space struct {
	ID       json.Number `json:"id,omitempty"`
	Key      string      `json:"key,omitempty"`
	Name     string      `json:"name,omitempty"`
	Type     string      `json:"type,omitempty"`
	Status   string      `json:"status,omitempty"`
	Homepage *Content    `json:"homepage,omitempty"`
}

// Content is the v1 representation shared by pages, blogposts, comments and attachments:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
//
// Most of the nested objects only show up when requested through expand, hence the pointers.
type Content struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`   // page, blogpost, comment, attachment
	Status string `json:"status,omitempty"` // current, trashed, historical, draft
	Title  string `json:"title,omitempty"`

	Space      *Space      `json:"space,omitempty"`
	Ancestors  []Ancestor  `json:"ancestors,omitempty"` // root first, nearest parent last
	Container  *Container  `json:"container,omitempty"`
	Body       *Body       `json:"body,omitempty"`
	Version    *Version    `json:"version,omitempty"`
	Extensions *Extensions `json:"extensions,omitempty"`

	Links Links `json:"_links"`
}

// NewContent is the request body for creating pages, blogposts and comments:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-post
type NewContent struct {
	Type      string     `json:"type"`
	Title     string     `json:"title,omitempty"`
	Space     *SpaceKey  `json:"space,omitempty"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
	Container *Container `json:"container,omitempty"` // comments hang off a container, not an ancestor
	Body      Body       `json:"body"`
}

type SpaceKey struct {
	Key string `json:"key"`
}

type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"` // only in responses
}

type Container struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// Version defines the content version number
// the version number is used for updating content
type Version struct {
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit"`
}

// Body holds the storage information
type Body struct {
	Storage Storage  `json:"storage"`
	View    *Storage `json:"view,omitempty"`
}

// Storage defines the storage information
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// Extensions carries the type-specific bits: media type and size for attachments, location
// for comments.
type Extensions struct {
	MediaType string `json:"mediaType,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Location  string `json:"location,omitempty"`
}

type Links struct {
	WebUI    string `json:"webui,omitempty"`
	TinyUI   string `json:"tinyui,omitempty"`
	Download string `json:"download,omitempty"`
	Self     string `json:"self,omitempty"`
	Base     string `json:"base,omitempty"`

	// Only on list responses: the relative URL for the next set of results, using a start
	// query parameter. Absent when there is no more data.
	Next string `json:"next,omitempty"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content-labels/
type Label struct {
	ID     string `json:"id,omitempty"`
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}
