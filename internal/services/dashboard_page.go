package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
)

// ErrDashboardInvalidInput indicates a dashboard submission was rejected.
var ErrDashboardInvalidInput = errors.New("dashboard page: invalid input")

// Address kinds shown on the addresses tab.
const (
	AddressBilling  = "billing"
	AddressShipping = "shipping"
)

const (
	labelSaveChanges = "SAVE CHANGES"
	labelSaving      = "Saving..."
	labelLogout      = "Logout"
	labelLoggingOut  = "Logging out..."
	labelSignUp      = "SIGN UP"
	labelSigningUp   = "Signing up..."
)

// AccountForm is the account details submission. Passwords are never accepted here.
type AccountForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// DashboardPageDeps wires the dashboard controller.
type DashboardPageDeps struct {
	Account   AccountForm
	Addresses map[string]string
	Clock     clock.Clock
	Timings   config.Timings
	Logger    EventLogger
}

// DashboardView is the rendered account dashboard.
type DashboardView struct {
	Account      AccountForm       `json:"account"`
	Addresses    map[string]string `json:"addresses"`
	SaveButton   ButtonView        `json:"saveButton"`
	LogoutButton ButtonView        `json:"logoutButton"`
	SignUpButton ButtonView        `json:"signUpButton"`
	Newsletter   string            `json:"newsletterEmail"`
	Notice       *NoticeView       `json:"notice,omitempty"`
}

type dashboardPage struct {
	page
	timings config.Timings
	policy  *bluemonday.Policy

	account    AccountForm
	addresses  map[string]string
	newsletter string
	saveBtn    button
	logoutBtn  button
	signUpBtn  button
}

// NewDashboardPage constructs the dashboard controller.
func NewDashboardPage(deps DashboardPageDeps) (DashboardPage, error) {
	timings := timingsOrDefault(deps.Timings)
	policy := bluemonday.NewPolicy()
	policy.AllowElements("br")

	d := &dashboardPage{
		timings:   timings,
		policy:    policy,
		account:   deps.Account,
		addresses: map[string]string{AddressBilling: "", AddressShipping: ""},
		saveBtn:   newButton(labelSaveChanges),
		logoutBtn: newButton(labelLogout),
		signUpBtn: newButton(labelSignUp),
	}
	for kind, address := range deps.Addresses {
		if _, ok := d.addresses[kind]; ok {
			d.addresses[kind] = d.addressHTML(address)
		}
	}
	if err := d.init(deps.Clock, deps.Logger, timings.PageNotice); err != nil {
		return nil, fmt.Errorf("dashboard page: %w", err)
	}
	return d, nil
}

func (d *dashboardPage) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DashboardView{
		Account:      d.account,
		Addresses:    maps.Clone(d.addresses),
		SaveButton:   d.saveBtn.view(),
		LogoutButton: d.logoutBtn.view(),
		SignUpButton: d.signUpBtn.view(),
		Newsletter:   d.newsletter,
		Notice:       d.noticeLocked(),
	}
}

// SaveAccount keeps the submitted details once the simulated save completes.
func (d *dashboardPage) SaveAccount(ctx context.Context, form AccountForm) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.saveBtn.start(labelSaving) {
		return fmt.Errorf("%w: save account", ErrControlBusy)
	}
	form = AccountForm{
		FirstName:   strings.TrimSpace(form.FirstName),
		LastName:    strings.TrimSpace(form.LastName),
		DisplayName: strings.TrimSpace(form.DisplayName),
		Email:       strings.TrimSpace(form.Email),
	}
	logCtx := detach(ctx)
	d.afterLocked(d.timings.DashboardSave, func() {
		d.account = form
		d.postLocked(domain.NoticeSuccess, "Account details updated successfully!")
		d.saveBtn.reset()
		d.logger(logCtx, "dashboard.account_saved", nil)
	})
	return nil
}

func (d *dashboardPage) SaveAddress(ctx context.Context, kind, address string) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.addresses[kind]; !ok {
		return fmt.Errorf("%w: address kind %q", ErrDashboardInvalidInput, kind)
	}
	d.addresses[kind] = d.addressHTML(address)
	d.postLocked(domain.NoticeSuccess, "Address updated successfully!")
	return nil
}

// Logout only plays the animation; there is no session to end.
func (d *dashboardPage) Logout(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.logoutBtn.start(labelLoggingOut) {
		return fmt.Errorf("%w: logout", ErrControlBusy)
	}
	d.afterLocked(d.timings.DashboardSave, func() {
		d.postLocked(domain.NoticeSuccess, "Logged out successfully! Redirecting...")
		d.afterLocked(d.timings.ButtonReset, d.logoutBtn.reset)
	})
	return nil
}

func (d *dashboardPage) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case email == "":
		d.postLocked(domain.NoticeError, "Please enter your email address")
		return fmt.Errorf("%w: email required", ErrDashboardInvalidInput)
	case !domain.IsValidEmail(email):
		d.postLocked(domain.NoticeError, domain.MsgInvalidEmail)
		return fmt.Errorf("%w: invalid email", ErrDashboardInvalidInput)
	}
	if !d.signUpBtn.start(labelSigningUp) {
		return fmt.Errorf("%w: newsletter", ErrControlBusy)
	}
	d.newsletter = email
	logCtx := detach(ctx)
	d.afterLocked(d.timings.DashboardSave, func() {
		d.postLocked(domain.NoticeSuccess, "Successfully subscribed to newsletter!")
		d.newsletter = ""
		d.signUpBtn.reset()
		d.logger(logCtx, "dashboard.newsletter_subscribed", nil)
	})
	return nil
}

func (d *dashboardPage) addressHTML(address string) string {
	address = strings.ReplaceAll(strings.TrimSpace(address), "\r\n", "\n")
	return d.policy.Sanitize(strings.ReplaceAll(address, "\n", "<br>"))
}
