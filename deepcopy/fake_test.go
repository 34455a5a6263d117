package deepcopy

import (
	"context"
	"path"
	"strconv"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// fakeRepo is an in-memory Confluence.  Created content gets ids counting up from 100.
type fakeRepo struct {
	fs afero.Fs

	nodes       map[string]ContentNode
	order       []string
	attachments map[string][]AttachmentRef
	comments    map[string][]CommentRef
	labels      map[string][]LabelRef
	homepages   map[string]string
	blobs       map[string]string

	nextID int

	failProbe     map[string]error
	failCreate    map[string]error
	failChildren  map[string]error
	failComments  map[string]error
	failUpload    map[string]error
	failDownload  map[string]error
	failGetByID   map[string]error
	failLabels    error
	cancelOnProbe context.CancelFunc

	probes    []string
	creates   []CreatePayload
	uploads   []LocalFile
	replaced  []string
	downloads []string
	added     map[string][]LabelRef
}

func newFakeRepo(fs afero.Fs) *fakeRepo {
	return &fakeRepo{
		fs:           fs,
		nodes:        map[string]ContentNode{},
		attachments:  map[string][]AttachmentRef{},
		comments:     map[string][]CommentRef{},
		labels:       map[string][]LabelRef{},
		homepages:    map[string]string{},
		blobs:        map[string]string{},
		nextID:       100,
		failProbe:    map[string]error{},
		failCreate:   map[string]error{},
		failChildren: map[string]error{},
		failComments: map[string]error{},
		failUpload:   map[string]error{},
		failDownload: map[string]error{},
		failGetByID:  map[string]error{},
		added:        map[string][]LabelRef{},
	}
}

func (f *fakeRepo) add(node ContentNode) ContentNode {
	if node.ID == "" {
		node.ID = strconv.Itoa(f.nextID)
		f.nextID++
	}
	f.nodes[node.ID] = node
	f.order = append(f.order, node.ID)
	return node
}

func (f *fakeRepo) page(id, space, title, parent string) ContentNode {
	return f.add(ContentNode{
		ID:         id,
		Type:       PageContent,
		Title:      title,
		SpaceKey:   space,
		Body:       "<p>" + title + "</p>",
		AncestorID: parent,
	})
}

func (f *fakeRepo) attach(contentID, id, title, data string) {
	f.attachments[contentID] = append(f.attachments[contentID], AttachmentRef{
		ID:           id,
		Title:        title,
		MediaType:    "text/plain",
		FileSize:     int64(len(data)),
		DownloadLink: "/download/attachments/" + contentID + "/" + title,
	})
	f.blobs[id] = data
}

func (f *fakeRepo) childrenOf(parentID string) []ContentNode {
	var out []ContentNode
	for _, id := range f.order {
		n := f.nodes[id]
		if n.AncestorID == parentID && n.Type == PageContent {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeRepo) GetContentByID(_ context.Context, id string, _ ...string) (ContentNode, error) {
	if err := f.failGetByID[id]; err != nil {
		return ContentNode{}, err
	}
	n, ok := f.nodes[id]
	if !ok {
		return ContentNode{}, errors.Errorf("fake: %s: %w", id, ErrNotFound)
	}
	return n, nil
}

func (f *fakeRepo) GetContentByFilter(_ context.Context, filter ContentFilter) ([]ContentNode, error) {
	f.probes = append(f.probes, filter.Title)
	if f.cancelOnProbe != nil {
		f.cancelOnProbe()
	}
	if err := f.failProbe[filter.Title]; err != nil {
		return nil, err
	}
	var out []ContentNode
	for _, id := range f.order {
		n := f.nodes[id]
		if n.SpaceKey == filter.SpaceKey && n.Title == filter.Title && n.Type == filter.Type {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetChildrenByType(_ context.Context, parentID string, _ ContentType) ([]ContentNode, error) {
	if err := f.failChildren[parentID]; err != nil {
		return nil, err
	}
	// Listings come without bodies.
	children := f.childrenOf(parentID)
	for i := range children {
		children[i].Body = ""
	}
	return children, nil
}

func (f *fakeRepo) GetAttachments(_ context.Context, contentID string) ([]AttachmentRef, error) {
	return f.attachments[contentID], nil
}

func (f *fakeRepo) GetComments(_ context.Context, contentID string, _ ...string) ([]CommentRef, error) {
	if err := f.failComments[contentID]; err != nil {
		return nil, err
	}
	return f.comments[contentID], nil
}

func (f *fakeRepo) GetLabels(_ context.Context, contentID string) ([]LabelRef, error) {
	return f.labels[contentID], nil
}

func (f *fakeRepo) GetSpaceHomepage(_ context.Context, spaceKey string) (ContentNode, error) {
	id, ok := f.homepages[spaceKey]
	if !ok {
		return ContentNode{}, errors.Errorf("fake: space %s: %w", spaceKey, ErrNotFound)
	}
	return f.nodes[id], nil
}

func (f *fakeRepo) CreateContent(_ context.Context, payload CreatePayload) (ContentNode, error) {
	f.creates = append(f.creates, payload)
	if err := f.failCreate[payload.Title]; err != nil {
		return ContentNode{}, err
	}
	parent := payload.ParentID
	if payload.Type == CommentContent {
		parent = payload.ContainerID
	}
	return f.add(ContentNode{
		Type:       payload.Type,
		Title:      payload.Title,
		SpaceKey:   payload.SpaceKey,
		Body:       payload.Body,
		AncestorID: parent,
	}), nil
}

func (f *fakeRepo) CreateOrUpdateAttachment(_ context.Context, contentID string, file LocalFile, existingID string) (AttachmentRef, error) {
	if err := f.failUpload[file.Title]; err != nil {
		return AttachmentRef{}, err
	}
	data, err := afero.ReadFile(f.fs, file.Path)
	if err != nil {
		return AttachmentRef{}, err
	}
	f.uploads = append(f.uploads, file)
	if existingID != "" {
		f.replaced = append(f.replaced, existingID)
		return AttachmentRef{ID: existingID, Title: file.Title, FileSize: int64(len(data))}, nil
	}
	ref := AttachmentRef{ID: strconv.Itoa(f.nextID), Title: file.Title, FileSize: int64(len(data))}
	f.nextID++
	f.attachments[contentID] = append(f.attachments[contentID], ref)
	f.blobs[ref.ID] = string(data)
	return ref, nil
}

func (f *fakeRepo) AddLabels(_ context.Context, contentID string, labels []LabelRef) error {
	if f.failLabels != nil {
		return f.failLabels
	}
	f.added[contentID] = append(f.added[contentID], labels...)
	return nil
}

func (f *fakeRepo) DownloadAttachment(_ context.Context, attachment AttachmentRef, destDir string) (string, error) {
	f.downloads = append(f.downloads, attachment.ID)
	p := path.Join(destDir, attachment.Title)
	if err := f.failDownload[attachment.Title]; err != nil {
		// Leave a partial file behind, as an interrupted download would.
		_ = afero.WriteFile(f.fs, p, []byte("partial"), 0o600)
		return "", err
	}
	data, ok := f.blobs[attachment.ID]
	if !ok {
		return "", errors.Errorf("fake: no data for attachment %s", attachment.ID)
	}
	if err := afero.WriteFile(f.fs, p, []byte(data), 0o600); err != nil {
		return "", err
	}
	return p, nil
}

var _ Repository = (*fakeRepo)(nil)
