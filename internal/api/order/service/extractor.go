package orderService

import (
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"Replicaide/pkg/generation"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lithammer/dedent"
	"github.com/sirupsen/logrus"
)

// maxItemQuantity bounds model supplied quantities before they become ints.
const maxItemQuantity = math.MaxInt32

var extractionInstruction = strings.TrimSpace(dedent.Dedent(`
	You turn a restaurant phone conversation into an order.
	The menu is: %s.

	Read the whole conversation and reply with a single JSON object and nothing else:
	{"customerName": "...", "items": [{"name": "...", "quantity": 0, "price": 0}]}

	Rules:
	- Use the menu names and menu prices for the items the customer asked for.
	- Include every item the customer currently wants, with the quantity they settled on.
	- Leave out items the customer cancelled.
	- Use an empty string or zero for anything not stated yet. Never reply with an error.
`))

// Extractor derives the full order from a transcript. A false result means
// the reply could not be used; callers keep their previous order.
type Extractor interface {
	Extract(ctx context.Context, menu string, transcript []entity.TranscriptEntry) (entity.Order, bool)
}

type orderExtractor struct {
	generator generation.Generator
	log       *logrus.Logger
}

func NewExtractor(generator generation.Generator, log *logrus.Logger) Extractor {
	return &orderExtractor{generator: generator, log: log}
}

func (e *orderExtractor) Extract(ctx context.Context, menu string, transcript []entity.TranscriptEntry) (entity.Order, bool) {
	raw, err := e.generator.Complete(ctx, generation.CompletionRequest{
		System:      fmt.Sprintf(extractionInstruction, menu),
		Prompt:      renderTranscript(transcript),
		JSON:        true,
		Temperature: 0,
		MaxTokens:   600,
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Order extraction call failed")
		return entity.Order{}, false
	}

	o, ok := ParseExtraction(raw)
	if !ok {
		e.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
		}).Debug("Order extraction reply discarded")
	}
	return o, ok
}

func renderTranscript(transcript []entity.TranscriptEntry) string {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, entry := range transcript {
		speaker := "Customer"
		if entry.Source == entity.SourceAgent {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, entry.Text)
	}
	return b.String()
}

type extractionItem struct {
	Name     string      `json:"name"`
	Quantity interface{} `json:"quantity"`
	Price    interface{} `json:"price"`
}

type extractionPayload struct {
	CustomerName string            `json:"customerName"`
	Items        *[]extractionItem `json:"items"`
}

// ParseExtraction validates a model reply. The total is always computed
// here from the items.
func ParseExtraction(raw string) (entity.Order, bool) {
	var payload extractionPayload
	if err := jsoniter.UnmarshalFromString(strings.TrimSpace(raw), &payload); err != nil {
		obj, ok := generation.ExtractJSONObject(raw)
		if !ok {
			return entity.Order{}, false
		}
		payload = extractionPayload{}
		if err := jsoniter.UnmarshalFromString(obj, &payload); err != nil {
			return entity.Order{}, false
		}
	}

	if payload.Items == nil {
		return entity.Order{}, false
	}

	items := make([]entity.OrderItem, 0, len(*payload.Items))
	for _, it := range *payload.Items {
		quantity, ok := number(it.Quantity)
		if !ok || quantity < 0 || quantity > maxItemQuantity || quantity != math.Trunc(quantity) {
			return entity.Order{}, false
		}
		price, ok := number(it.Price)
		if !ok || price < 0 {
			return entity.Order{}, false
		}

		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		items = append(items, entity.OrderItem{Name: name, Quantity: int(quantity), Price: price})
	}

	return entity.Order{
		CustomerName: strings.TrimSpace(payload.CustomerName),
		Items:        items,
		Total:        entity.ComputeTotal(items),
	}, true
}

// number accepts JSON numbers and numeric strings such as "3" or "$4.50".
// Missing values count as zero.
func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(n), "$€£"))
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
