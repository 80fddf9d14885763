package entities

// CollectionRef points at the target collection either by ID or by name.
// ID wins when both are set; a name that does not exist yet is created.
type CollectionRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (r CollectionRef) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// Selection is what the user picked at the UI boundary: which books to export,
// where to put them and which extra tags to attach. It is built once and handed
// to the export pipeline as a plain value.
type Selection struct {
	Books          []string      `json:"books,omitempty"` // empty selects every book
	Collection     CollectionRef `json:"collection"`
	Tags           []string      `json:"tags,omitempty"`
	TagWithAuthor  *bool         `json:"tag_with_author,omitempty"` // nil keeps the configured default
	SkipDuplicates *bool         `json:"skip_duplicates,omitempty"` // nil keeps the configured default
}
