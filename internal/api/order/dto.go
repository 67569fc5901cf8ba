package order

import (
	"Replicaide/internal/entity"
	"time"
)

type StartSessionRequest struct {
	Language string `json:"language" validate:"omitempty,max=8"`
}

type AppendMessageRequest struct {
	Source string `json:"source" validate:"required,oneof=user agent"`
	Text   string `json:"text" validate:"required,max=4000"`
}

type OrderItemRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// ConfirmOrderRequest carries the manual edits made before saving. A nil
// field keeps what was extracted from the conversation.
type ConfirmOrderRequest struct {
	CustomerName *string            `json:"customer_name" validate:"omitnil,max=255"`
	Items        []OrderItemRequest `json:"items" validate:"omitempty,dive"`
}

func (r ConfirmOrderRequest) ToOverrides() Overrides {
	o := Overrides{CustomerName: r.CustomerName}
	if r.Items != nil {
		o.Items = make([]entity.OrderItem, 0, len(r.Items))
		for _, item := range r.Items {
			o.Items = append(o.Items, entity.OrderItem{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			})
		}
	}
	return o
}

// Overrides replaces parts of the extracted order on confirmation. Items
// replaces the whole list when non-nil.
type Overrides struct {
	CustomerName *string
	Items        []entity.OrderItem
}

type OrderItemResponse struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderResponse struct {
	ID             string              `json:"id,omitempty"`
	CustomerName   string              `json:"customer_name"`
	Items          []OrderItemResponse `json:"items"`
	Total          float64             `json:"total"`
	FormattedTotal string              `json:"formatted_total"`
	Language       string              `json:"language"`
	CreatedAt      *time.Time          `json:"created_at,omitempty"`
}

func MakeOrderResponse(o entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse(item))
	}

	res := OrderResponse{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		Items:          items,
		Total:          o.Total,
		FormattedTotal: o.FormattedTotal(),
		Language:       o.Language,
	}
	if !o.CreatedAt.IsZero() {
		createdAt := o.CreatedAt
		res.CreatedAt = &createdAt
	}
	return res
}

func MakeOrderResponses(orders []entity.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, MakeOrderResponse(o))
	}
	return res
}

type AgentConfigResponse struct {
	Prompt       string `json:"prompt"`
	FirstMessage string `json:"first_message"`
	Language     string `json:"language"`
	VoiceID      string `json:"voice_id"`
}

type StartSessionResponse struct {
	SessionID string              `json:"session_id"`
	Agent     AgentConfigResponse `json:"agent"`
}

func MakeStartSessionResponse(s entity.VoiceSession) StartSessionResponse {
	return StartSessionResponse{
		SessionID: s.ID,
		Agent:     AgentConfigResponse(s.Agent),
	}
}

type TranscriptEntryResponse struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type SessionResponse struct {
	ID         string                    `json:"id"`
	Language   string                    `json:"language"`
	Transcript []TranscriptEntryResponse `json:"transcript"`
	Version    int64                     `json:"version"`
	Order      *OrderResponse            `json:"order"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

func MakeSessionResponse(s entity.VoiceSession) SessionResponse {
	transcript := make([]TranscriptEntryResponse, 0, len(s.Transcript))
	for _, entry := range s.Transcript {
		transcript = append(transcript, TranscriptEntryResponse(entry))
	}

	res := SessionResponse{
		ID:         s.ID,
		Language:   s.Language,
		Transcript: transcript,
		Version:    s.Version,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.Order != nil {
		o := MakeOrderResponse(*s.Order)
		res.Order = &o
	}
	return res
}

// UpdateMessage is the frame pushed to order update subscribers.
type UpdateMessage struct {
	Type    string        `json:"type"`
	Version int64         `json:"version"`
	Order   OrderResponse `json:"order"`
}

func MakeUpdateMessage(u entity.OrderUpdate) UpdateMessage {
	return UpdateMessage{
		Type:    "order_update",
		Version: u.Version,
		Order:   MakeOrderResponse(u.Order),
	}
}

// TranscriptMessage echoes a relayed conversation turn to the browser.
type TranscriptMessage struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Text   string `json:"text"`
}
