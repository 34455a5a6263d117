package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned (wrapped) for any 404 from the API.
	ErrNotFound = errors.Base("confluence: not found")
	// ErrUnauthorized is returned (wrapped) for 401 and 403 responses.
	ErrUnauthorized = errors.Base("confluence: not permitted")
)

func (api *API) GetContent(ctx context.Context, opts ContentQuery) (*ContentList, error) {
	ep, err := api.getContentEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	var contentList ContentList
	if err := api.getJSON(ctx, ep, &contentList); err != nil {
		return nil, err
	}

	return &contentList, nil
}

func (api *API) GetContentByID(ctx context.Context, opts ContentByIDQuery) (*Content, error) {
	ep, err := api.getContentByIDEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get single content endpoint: %w", err)
	}

	var content Content
	if err := api.getJSON(ctx, ep, &content); err != nil {
		return nil, err
	}

	return &content, nil
}

func (api *API) GetChildren(ctx context.Context, opts ChildrenQuery) (*ContentList, error) {
	ep, err := api.getChildrenEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get children endpoint: %w", err)
	}

	var children ContentList
	if err := api.getJSON(ctx, ep, &children); err != nil {
		return nil, err
	}

	return &children, nil
}

func (api *API) GetAttachments(ctx context.Context, opts AttachmentsQuery) (*ContentList, error) {
	ep, err := api.getAttachmentsEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get attachments endpoint: %w", err)
	}

	var attachments ContentList
	if err := api.getJSON(ctx, ep, &attachments); err != nil {
		return nil, err
	}

	return &attachments, nil
}

func (api *API) GetLabels(ctx context.Context, opts LabelsQuery) (*LabelList, error) {
	ep, err := api.getLabelsEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get labels endpoint: %w", err)
	}

	var labels LabelList
	if err := api.getJSON(ctx, ep, &labels); err != nil {
		return nil, err
	}

	return &labels, nil
}

func (api *API) GetSpace(ctx context.Context, opts SpaceQuery) (*Space, error) {
	ep, err := api.getSpaceEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get space endpoint: %w", err)
	}

	var space Space
	if err := api.getJSON(ctx, ep, &space); err != nil {
		return nil, err
	}

	return &space, nil
}

func (api *API) getSpaces(ctx context.Context, opts SpacesQuery) (*SpaceList, error) {
	ep, err := api.getSpacesEndpoint(opts)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get spaces endpoint: %w", err)
	}

	var allSpaces SpaceList
	if err := api.getJSON(ctx, ep, &allSpaces); err != nil {
		return nil, err
	}

	return &allSpaces, nil
}

// CurrentUser return current user information
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := api.getCurrentUserEndpoint()
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get current user endpoint: %w", err)
	}

	var user User
	if err := api.getJSON(ctx, ep, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// CreateContent creates a page, blogpost or comment.
func (api *API) CreateContent(ctx context.Context, content NewContent) (*Content, error) {
	ep, err := api.getContentEndpoint(ContentQuery{})
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't encode new content: %w", err)
	}

	var created Content
	if err := api.sendJSON(ctx, http.MethodPost, ep, payload, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// AddLabels adds labels to a piece of content in one call.  Labels that are already present
// are left as they are.
func (api *API) AddLabels(ctx context.Context, contentID string, labels []Label) (*LabelList, error) {
	ep, err := api.getLabelsEndpoint(LabelsQuery{ID: contentID})
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get labels endpoint: %w", err)
	}

	payload, err := json.Marshal(labels)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't encode labels: %w", err)
	}

	var added LabelList
	if err := api.sendJSON(ctx, http.MethodPost, ep, payload, &added); err != nil {
		return nil, err
	}

	return &added, nil
}

// CreateAttachment uploads file as a new attachment on the container.
func (api *API) CreateAttachment(ctx context.Context, containerID string, filename string, file io.Reader) (*Content, error) {
	ep, err := api.getAttachmentsEndpoint(AttachmentsQuery{ID: containerID})
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get attachments endpoint: %w", err)
	}

	// creation answers with a list, even for a single file.
	var created ContentList
	if err := api.upload(ctx, ep, filename, file, &created); err != nil {
		return nil, err
	}
	if len(created.Results) == 0 {
		return nil, errors.Errorf("confluence: attachment upload of %s returned no results", filename)
	}

	return &created.Results[0], nil
}

// UpdateAttachmentData uploads file as a new version of an existing attachment.
func (api *API) UpdateAttachmentData(ctx context.Context, containerID string, attachmentID string, filename string, file io.Reader) (*Content, error) {
	ep, err := api.getAttachmentDataEndpoint(containerID, attachmentID)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't get attachment data endpoint: %w", err)
	}

	var updated Content
	if err := api.upload(ctx, ep, filename, file, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DownloadAttachment streams the attachment behind downloadLink (its _links.download) into w.
func (api *API) DownloadAttachment(ctx context.Context, downloadLink string, w io.Writer) (int64, error) {
	ep, err := api.getDownloadEndpoint(downloadLink)
	if err != nil {
		return 0, errors.Errorf("confluence: couldn't get download endpoint: %w", err)
	}

	req, err := api.newRequest(ctx, http.MethodGet, ep, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "*/*")

	response, err := api.Client.Do(req)
	if err != nil {
		return 0, errors.Errorf("confluence: couldn't perform http request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(response.Body)
		return 0, checkStatus(response, ep, body)
	}

	n, err := io.Copy(w, response.Body)
	if err != nil {
		return n, errors.Errorf("confluence: couldn't read attachment body: %w", err)
	}

	return n, nil
}

func (api *API) getJSON(ctx context.Context, ep *url.URL, v any) error {
	body, err := api.request(ctx, ep)
	if err != nil {
		return errors.Errorf("confluence: couldn't perform request: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return nil
}

func (api *API) sendJSON(ctx context.Context, method string, ep *url.URL, payload []byte, v any) error {
	req, err := api.newRequest(ctx, method, ep, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := api.do(req)
	if err != nil {
		return errors.Errorf("confluence: couldn't perform request: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return nil
}

func (api *API) upload(ctx context.Context, ep *url.URL, filename string, file io.Reader, v any) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return errors.Errorf("confluence: couldn't create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Errorf("confluence: couldn't copy %s into request: %w", filename, err)
	}
	if err := form.WriteField("minorEdit", "true"); err != nil {
		return errors.Errorf("confluence: couldn't write multipart field: %w", err)
	}
	if err := form.Close(); err != nil {
		return errors.Errorf("confluence: couldn't finish multipart body: %w", err)
	}

	req, err := api.newRequest(ctx, http.MethodPost, ep, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	// attachment endpoints refuse to work without this XSRF opt-out.
	req.Header.Set("X-Atlassian-Token", "no-check")

	body, err := api.do(req)
	if err != nil {
		return errors.Errorf("confluence: couldn't perform upload: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return nil
}

// Request implements the basic Request function
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	req, err := api.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	return api.do(req)
}

func (api *API) newRequest(ctx context.Context, method string, url *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url.String(), body)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", "application/json, */*")

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	return req, nil
}

func (api *API) do(req *http.Request) ([]byte, error) {
	response, err := api.Client.Do(req)
	if err != nil {
		return nil, errors.Errorf("confluence: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, errors.Errorf("confluence: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, errors.Errorf("confluence: couldn't close response body: %w", err)
	}

	if err := checkStatus(response, req.URL, body); err != nil {
		return nil, err
	}

	return body, nil
}

func checkStatus(response *http.Response, url *url.URL, body []byte) error {
	switch response.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPartialContent, http.StatusNoContent, http.StatusResetContent:
		return nil
	case http.StatusNotFound:
		return errors.Errorf("%w: %s", ErrNotFound, url.Path)
	case http.StatusUnauthorized:
		return errors.Errorf("%w: authentication failed", ErrUnauthorized)
	case http.StatusForbidden:
		return errors.Errorf("%w: %s", ErrUnauthorized, url.Path)
	case http.StatusBadRequest:
		return errors.Errorf("confluence: bad request: %s", errorMessage(body))
	case http.StatusServiceUnavailable:
		return errors.Errorf("confluence: service is not available: %s", response.Status)
	case http.StatusInternalServerError:
		return errors.Errorf("confluence: internal server error: %s", response.Status)
	case http.StatusConflict:
		return errors.Errorf("confluence: conflict: %s", errorMessage(body))
	}

	return errors.Errorf("confluence: unknown HTTP response status: %s: %s", response.Status, url.String())
}

// errorMessage digs the human readable part out of an API error body, if there is one.
func errorMessage(body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return string(body)
	}

	return apiErr.Message
}
