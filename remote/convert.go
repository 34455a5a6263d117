package remote

import (
	"github.com/toothbrush/confluence-copy/confluence"
	"github.com/toothbrush/confluence-copy/deepcopy"
)

func toNode(c confluence.Content) deepcopy.ContentNode {
	// Unknown types are treated as pages.
	contentType, _ := deepcopy.ParseContentType(c.Type)

	node := deepcopy.ContentNode{
		ID:    c.ID,
		Type:  contentType,
		Title: c.Title,
	}
	if c.Space != nil {
		node.SpaceKey = c.Space.Key
	}
	if c.Body != nil {
		node.Body = c.Body.Storage.Value
	}
	if n := len(c.Ancestors); n > 0 {
		node.AncestorID = c.Ancestors[n-1].ID
	} else if c.Container != nil {
		node.AncestorID = c.Container.ID
	}
	return node
}

func toAttachment(c confluence.Content) deepcopy.AttachmentRef {
	attachment := deepcopy.AttachmentRef{
		ID:           c.ID,
		Title:        c.Title,
		DownloadLink: c.Links.Download,
	}
	if c.Extensions != nil {
		attachment.MediaType = c.Extensions.MediaType
		attachment.FileSize = c.Extensions.FileSize
	}
	return attachment
}
