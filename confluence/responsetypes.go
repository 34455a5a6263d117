package confluence

// SpaceList response type
type SpaceList struct {
	Results []Space `json:"results"`
	Start   int     `json:"start"`
	Limit   int     `json:"limit"`
	Size    int     `json:"size"`
	Links   Links   `json:"_links"`
}

// ContentList is what every content search and child listing returns.
type ContentList struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
	Links   Links     `json:"_links"`
}

type LabelList struct {
	Results []Label `json:"results"`
	Start   int     `json:"start"`
	Limit   int     `json:"limit"`
	Size    int     `json:"size"`
	Links   Links   `json:"_links"`
}
