package domain

import "time"

const (
	// SourceTransnet labels every record produced by this feed; it is never
	// read from the raw item.
	SourceTransnet = "Transnet"

	// DispatchGroupKey is the ordering key shared by all outbound messages of
	// this feed, so the transport keeps them ordered relative to each other.
	DispatchGroupKey = "TransnetTenderScrape"

	attachmentDocName = "Tender Attachment"
)

type SupportingDocument struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TenderRecord is the canonical form of one tender listing. TenderID is the
// source identifier, kept for correlation and logging; it does not travel in
// the queue payload.
type TenderRecord struct {
	TenderID       string
	Title          string
	Description    string
	Source         string
	PublishedDate  *time.Time
	ClosingDate    *time.Time
	SupportingDocs []SupportingDocument
	Tags           []string
	TenderNumber   string
	Institution    string
	Category       string
	TenderType     string
	Location       string
	Email          string
	ContactPerson  string
}

// TenderPayload is the queue message body expected by the downstream
// enrichment consumer. Field names and order are part of that contract.
type TenderPayload struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Source         string               `json:"source"`
	PublishedDate  *string              `json:"publishedDate"`
	ClosingDate    *string              `json:"closingDate"`
	SupportingDocs []SupportingDocument `json:"supporting_docs"`
	Tags           []string             `json:"tags"`
	TenderNumber   string               `json:"tenderNumber"`
	Institution    string               `json:"institution"`
	Category       string               `json:"category"`
	TenderType     string               `json:"tenderType"`
	Location       string               `json:"location"`
	Email          string               `json:"email"`
	ContactPerson  string               `json:"contactPerson"`
}

// Payload renders the record in its transport shape. Dates serialize as
// RFC 3339 strings or null; document and tag collections serialize as empty
// arrays rather than null.
func (t TenderRecord) Payload() TenderPayload {
	p := TenderPayload{
		Title:          t.Title,
		Description:    t.Description,
		Source:         t.Source,
		SupportingDocs: t.SupportingDocs,
		Tags:           t.Tags,
		TenderNumber:   t.TenderNumber,
		Institution:    t.Institution,
		Category:       t.Category,
		TenderType:     t.TenderType,
		Location:       t.Location,
		Email:          t.Email,
		ContactPerson:  t.ContactPerson,
	}
	if p.SupportingDocs == nil {
		p.SupportingDocs = []SupportingDocument{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.PublishedDate = formatDate(t.PublishedDate)
	p.ClosingDate = formatDate(t.ClosingDate)
	return p
}

func formatDate(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	s := ts.Format(time.RFC3339)
	return &s
}
