package listing

import (
	"Replicaide/internal/entity"
	"time"
)

// CreateListingInput is an uploaded item before enrichment.
type CreateListingInput struct {
	Image         []byte
	ImageName     string
	ImageMIMEType string
	Audio         []byte
	AudioName     string
	AudioMIMEType string
}

type UpdateListingRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Price       *string `json:"price" validate:"omitnil,min=1,max=64"`
}

func (r UpdateListingRequest) ToUpdate() entity.ListingUpdate {
	return entity.ListingUpdate{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
	}
}

type ContentResponse struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	MarketingDescription string `json:"marketing_description"`
	EnhancedAudio        string `json:"enhanced_audio"`
}

type PriceResponse struct {
	Raw       string  `json:"raw"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type ListingResponse struct {
	ID         string          `json:"id"`
	Image      string          `json:"image"`
	Audio      string          `json:"audio"`
	English    ContentResponse `json:"eng"`
	Spanish    ContentResponse `json:"esp"`
	Price      PriceResponse   `json:"price"`
	Transcript string          `json:"transcript"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func makeContent(c entity.LanguageContent) ContentResponse {
	return ContentResponse(c)
}

func MakeListingResponse(l entity.Listing) ListingResponse {
	return ListingResponse{
		ID:      l.ID,
		Image:   l.Image,
		Audio:   l.Audio,
		English: makeContent(l.English),
		Spanish: makeContent(l.Spanish),
		Price: PriceResponse{
			Raw:       l.Price.Raw,
			Amount:    l.Price.Amount,
			Currency:  l.Price.Currency,
			Formatted: l.Price.String(),
		},
		Transcript: l.Transcript,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func MakeListingResponses(listings []entity.Listing) []ListingResponse {
	res := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		res = append(res, MakeListingResponse(l))
	}
	return res
}
