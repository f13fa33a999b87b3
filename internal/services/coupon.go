package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// applyCouponLocked runs the delayed coupon check shared by the cart and
// checkout pages. onMatch runs under mu once the code is accepted.
func (p *page) applyCouponLocked(
	ctx context.Context,
	scope string,
	btn *button,
	book domain.CouponBook,
	code string,
	delay time.Duration,
	onMatch func(domain.Coupon),
) error {
	code = strings.TrimSpace(code)
	if code == "" {
		p.postLocked(domain.NoticeError, msgCouponRequired)
		return ErrCouponRequired
	}
	if !btn.start(labelApplying) {
		return fmt.Errorf("%w: coupon", ErrControlBusy)
	}
	logCtx := detach(ctx)
	p.afterLocked(delay, func() {
		btn.reset()
		coupon, ok := book.Lookup(code)
		if !ok {
			p.postLocked(domain.NoticeError, msgCouponInvalid)
			p.logger(logCtx, scope+".coupon_rejected", nil)
			return
		}
		onMatch(coupon)
		p.postLocked(domain.NoticeSuccess, couponAppliedText(coupon.Percent))
		p.logger(logCtx, scope+".coupon_applied", map[string]any{"percent": coupon.Percent})
	})
	return nil
}
