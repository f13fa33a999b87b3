package services

import (
	"errors"
	"testing"
	"time"
)

func TestDealBoardCountsDown(t *testing.T) {
	clk := newTestClock()
	board, err := NewDealBoard(clk, []Deal{
		{ID: "summer", Title: "Summer sale", EndsAt: testStart.Add(49*time.Hour + 3*time.Minute + 7*time.Second)},
		{ID: "gone", Title: "Spring sale", EndsAt: testStart.Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("new board: %v", err)
	}

	deal, err := board.Get("summer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if deal.Days != "02" || deal.Hours != "01" || deal.Minutes != "03" || deal.Seconds != "07" || deal.Expired {
		t.Fatalf("unexpected countdown %+v", deal)
	}

	clk.Advance(time.Second)
	deal, _ = board.Get("summer")
	if deal.Seconds != "06" {
		t.Fatalf("expected one second less, got %q", deal.Seconds)
	}

	all := board.All()
	if len(all) != 2 || !all[1].Expired || all[1].Days != "00" {
		t.Fatalf("unexpected board %+v", all)
	}
	if _, err := board.Get("winter"); !errors.Is(err, ErrDealNotFound) {
		t.Fatalf("expected ErrDealNotFound, got %v", err)
	}
}
