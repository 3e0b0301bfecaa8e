package model

// Site content is stored as one JSON payload per section.  Each section
// has an explicitly typed structure so the payload is validated where it
// is read instead of being passed around as an untyped map.

// ContentSection names the known site_content sections.
const (
	SectionHero    = "hero"
	SectionFAQ     = "faq"
	SectionContact = "contact"
)

// HeroContent is the landing-page hero block.
type HeroContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	CTALabel string `json:"cta_label,omitempty"`
	CTALink  string `json:"cta_link,omitempty"`
}

// FAQEntry is a single question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQContent is the ordered list of FAQ entries.
type FAQContent struct {
	Entries []FAQEntry `json:"entries"`
}

// ContactContent holds the school's contact details shown on the site
// and printed on invoices.
type ContactContent struct {
	SchoolName string `json:"school_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	IBAN       string `json:"iban,omitempty"`
}
