package model

import "time"

// Quote represents a stored quote
type Quote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// CreateQuoteRequest is the payload for creating a quote
type CreateQuoteRequest struct {
	Text   string   `json:"text"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

// UpdateQuoteRequest carries a partial update; nil fields keep their stored value
type UpdateQuoteRequest struct {
	Text   *string   `json:"text"`
	Author *string   `json:"author"`
	Tags   *[]string `json:"tags"`
}

// Apply merges the supplied fields into q.
func (r UpdateQuoteRequest) Apply(q *Quote) {
	if r.Text != nil {
		q.Text = *r.Text
	}
	if r.Author != nil {
		q.Author = *r.Author
	}
	if r.Tags != nil {
		q.Tags = NormalizeTags(*r.Tags)
	}
}

// NormalizeTags never returns nil so tags always encode as a JSON array.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
