package entity

import "time"

// Language keys the generated copy variants of a listing.
type Language string

const (
	LanguageEnglish Language = "eng"
	LanguageSpanish Language = "esp"
)

var ContentLanguages = []Language{LanguageEnglish, LanguageSpanish}

type LanguageContent struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	MarketingDescription string `json:"marketing_description"`
	EnhancedAudio        string `json:"enhanced_audio"`
}

// Complete reports whether the variant can be shown and narrated.
func (c LanguageContent) Complete() bool {
	return c.Title != "" && c.MarketingDescription != "" && c.EnhancedAudio != ""
}

type Listing struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Image      string          `json:"image"`
	Audio      string          `json:"audio"`
	English    LanguageContent `json:"eng"`
	Spanish    LanguageContent `json:"esp"`
	Price      Price           `json:"price"`
	Transcript string          `json:"transcript"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (l *Listing) Content(lang Language) *LanguageContent {
	if lang == LanguageSpanish {
		return &l.Spanish
	}
	return &l.English
}

// ListingUpdate carries the editable fields of one language variant. Nil
// fields are left unchanged.
type ListingUpdate struct {
	Title       *string
	Description *string
	Price       *string
}

func (u ListingUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil
}
