package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

// ErrDealNotFound indicates an unknown countdown id.
var ErrDealNotFound = errors.New("countdown: deal not found")

// Deal is a countdown target.
type Deal struct {
	ID     string
	Title  string
	EndsAt time.Time
}

// DealView is a deal with its remaining time at render.
type DealView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	EndsAt string `json:"endsAt"`
	domain.CountdownParts
}

// DealBoard renders countdowns against a shared clock. It is stateless per session.
type DealBoard struct {
	clock clock.Clock
	deals []Deal
}

// NewDealBoard builds a board over deals.
func NewDealBoard(clk clock.Clock, deals []Deal) (*DealBoard, error) {
	if clk == nil {
		return nil, errClockRequired
	}
	return &DealBoard{clock: clk, deals: append([]Deal(nil), deals...)}, nil
}

// All renders every deal, expired ones included.
func (b *DealBoard) All() []DealView {
	now := b.clock.Now()
	views := make([]DealView, 0, len(b.deals))
	for _, deal := range b.deals {
		views = append(views, renderDeal(deal, now))
	}
	return views
}

// Get renders a single deal.
func (b *DealBoard) Get(id string) (DealView, error) {
	for _, deal := range b.deals {
		if deal.ID == id {
			return renderDeal(deal, b.clock.Now()), nil
		}
	}
	return DealView{}, fmt.Errorf("%w: %q", ErrDealNotFound, id)
}

func renderDeal(deal Deal, now time.Time) DealView {
	return DealView{
		ID:             deal.ID,
		Title:          deal.Title,
		EndsAt:         deal.EndsAt.UTC().Format(time.RFC3339),
		CountdownParts: domain.Countdown(deal.EndsAt, now),
	}
}
