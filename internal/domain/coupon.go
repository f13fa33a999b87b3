package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Coupon maps a code to a percentage discount.
type Coupon struct {
	Code    string `yaml:"code" json:"code"`
	Percent int    `yaml:"percent" json:"percent"`
}

// CouponBook is a static, case-insensitive coupon table.
type CouponBook struct {
	byCode map[string]Coupon
}

// NewCouponBook indexes coupons by their case-folded code. Later duplicates win.
func NewCouponBook(coupons []Coupon) CouponBook {
	book := CouponBook{byCode: make(map[string]Coupon, len(coupons))}
	for _, c := range coupons {
		key := foldCode(c.Code)
		if key == "" {
			continue
		}
		c.Percent = ClampPercent(c.Percent)
		book.byCode[key] = c
	}
	return book
}

// Lookup finds a coupon ignoring case and surrounding whitespace.
func (b CouponBook) Lookup(code string) (Coupon, bool) {
	c, ok := b.byCode[foldCode(code)]
	return c, ok
}

// Len reports the number of known codes.
func (b CouponBook) Len() int {
	return len(b.byCode)
}

func foldCode(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}
