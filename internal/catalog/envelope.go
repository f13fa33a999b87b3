package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// ErrMalformedResponse is returned when the body matches no known envelope.
var ErrMalformedResponse = errors.New("catalog: malformed response")

type envelope struct {
	Data        json.RawMessage `json:"data"`
	Products    json.RawMessage `json:"products"`
	Total       *int            `json:"total"`
	CurrentPage *int            `json:"current_page"`
	LastPage    *int            `json:"last_page"`
	Meta        *struct {
		Total       *int `json:"total"`
		CurrentPage *int `json:"current_page"`
		LastPage    *int `json:"last_page"`
	} `json:"meta"`
}

// DecodeEnvelope accepts a bare product array, or an object carrying the list
// under data or products with paging at the top level or under meta.
func DecodeEnvelope(body []byte) (domain.ProductPage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return domain.ProductPage{}, ErrMalformedResponse
	}

	if body[0] == '[' {
		var products []domain.Product
		if err := json.Unmarshal(body, &products); err != nil {
			return domain.ProductPage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return domain.ProductPage{Products: products, Total: len(products), CurrentPage: 1, LastPage: 1}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	list := env.Data
	if !isArray(list) {
		list = env.Products
	}
	var products []domain.Product
	if isArray(list) {
		if err := json.Unmarshal(list, &products); err != nil {
			return domain.ProductPage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	if products == nil {
		products = []domain.Product{}
	}

	page := domain.ProductPage{Products: products}
	var metaTotal, metaCurrent, metaLast *int
	if env.Meta != nil {
		metaTotal, metaCurrent, metaLast = env.Meta.Total, env.Meta.CurrentPage, env.Meta.LastPage
	}
	page.Total = firstPositive(0, env.Total, metaTotal)
	page.CurrentPage = firstPositive(1, env.CurrentPage, metaCurrent)
	page.LastPage = firstPositive(1, env.LastPage, metaLast)
	return page, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func firstPositive(fallback int, candidates ...*int) int {
	for _, c := range candidates {
		if c != nil && *c > 0 {
			return *c
		}
	}
	return fallback
}
