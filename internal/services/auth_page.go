package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
)

// ErrAuthInvalid indicates the submitted login or register form failed validation.
var ErrAuthInvalid = errors.New("auth page: form invalid")

// ErrAuthUnknownField indicates a field id outside the auth forms.
var ErrAuthUnknownField = errors.New("auth page: unknown field")

// AuthMode is the visible form.
type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

// Field ids as rendered on the page.
const (
	FieldLoginUsername    = "loginUsername"
	FieldLoginPassword    = "loginPassword"
	FieldRegisterUsername = "registerUsername"
	FieldRegisterEmail    = "registerEmail"
	FieldRegisterPassword = "registerPassword"
	FieldConfirmPassword  = "confirmPassword"
	FieldAgreeTerms       = "agreeTerms"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	msgLoginSuccess    = "Login successful!"
	msgRegisterSuccess = "Registration successful! Welcome to Tiamo!"

	labelLogin        = "LOGIN"
	labelLoggingIn    = "Logging in..."
	labelRegister     = "REGISTER"
	labelCreatingAcct = "Creating Account..."

	dashboardURL = "dashboard.html"
)

// LoginForm is a login submission. Password is validated for presence only and never retained.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// RegisterForm is a registration submission.
type RegisterForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Agree           bool   `json:"agree"`
}

// AuthPageDeps wires the auth controller.
type AuthPageDeps struct {
	Clock   clock.Clock
	Timings config.Timings
	Logger  EventLogger
}

// AuthView is the rendered login/register page.
type AuthView struct {
	Mode            AuthMode          `json:"mode"`
	Focus           string            `json:"focus"`
	Errors          map[string]string `json:"errors"`
	LoginUsername   string            `json:"loginUsername,omitempty"`
	PasswordVisible map[string]bool   `json:"passwordVisible"`
	LoginButton     ButtonView        `json:"loginButton"`
	RegisterButton  ButtonView        `json:"registerButton"`
	Notice          *NoticeView       `json:"notice,omitempty"`
	Redirect        string            `json:"redirect,omitempty"`
}

type authPage struct {
	page
	timings config.Timings

	mode        AuthMode
	focus       string
	errors      map[string]string
	prefill     string
	visible     map[string]bool
	loginBtn    button
	registerBtn button
	redirect    string
}

// NewAuthPage constructs the auth controller showing the login form.
func NewAuthPage(deps AuthPageDeps) (AuthPage, error) {
	timings := timingsOrDefault(deps.Timings)
	a := &authPage{
		timings: timings,
		mode:    AuthModeLogin,
		focus:   FieldLoginUsername,
		errors:  make(map[string]string),
		visible: map[string]bool{
			FieldLoginPassword:    false,
			FieldRegisterPassword: false,
			FieldConfirmPassword:  false,
		},
		loginBtn:    newButton(labelLogin),
		registerBtn: newButton(labelRegister),
	}
	if err := a.init(deps.Clock, deps.Logger, timings.AuthNotice); err != nil {
		return nil, fmt.Errorf("auth page: %w", err)
	}
	return a, nil
}

func (a *authPage) View() AuthView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AuthView{
		Mode:            a.mode,
		Focus:           a.focus,
		Errors:          maps.Clone(a.errors),
		LoginUsername:   a.prefill,
		PasswordVisible: maps.Clone(a.visible),
		LoginButton:     a.loginBtn.view(),
		RegisterButton:  a.registerBtn.view(),
		Notice:          a.noticeLocked(),
		Redirect:        a.redirect,
	}
}

func (a *authPage) ShowLogin(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showLocked(AuthModeLogin)
}

func (a *authPage) ShowRegister(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showLocked(AuthModeRegister)
}

func (a *authPage) showLocked(mode AuthMode) {
	a.mode = mode
	clear(a.errors)
	if mode == AuthModeRegister {
		a.focus = FieldRegisterUsername
		return
	}
	a.focus = FieldLoginUsername
}

func (a *authPage) SubmitLogin(ctx context.Context, form LoginForm) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.errors)
	if strings.TrimSpace(form.Username) == "" {
		a.errors[FieldLoginUsername] = "Username or email is required"
	}
	if strings.TrimSpace(form.Password) == "" {
		a.errors[FieldLoginPassword] = "Password is required"
	}
	if len(a.errors) > 0 {
		return fmt.Errorf("%w: %d field(s)", ErrAuthInvalid, len(a.errors))
	}
	if !a.loginBtn.start(labelLoggingIn) {
		return fmt.Errorf("%w: login", ErrControlBusy)
	}

	logCtx := detach(ctx)
	remember := form.Remember
	a.afterLocked(a.timings.AuthSubmit, func() {
		a.postLocked(domain.NoticeSuccess, msgLoginSuccess)
		a.loginBtn.reset()
		a.logger(logCtx, "auth.login_simulated", map[string]any{"remember": remember})
		a.afterLocked(a.timings.LoginRedirect, func() {
			a.redirect = dashboardURL
		})
	})
	return nil
}

func (a *authPage) SubmitRegister(ctx context.Context, form RegisterForm) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.errors)
	maps.Copy(a.errors, validateRegister(form))
	if len(a.errors) > 0 {
		return fmt.Errorf("%w: %d field(s)", ErrAuthInvalid, len(a.errors))
	}
	if !a.registerBtn.start(labelCreatingAcct) {
		return fmt.Errorf("%w: register", ErrControlBusy)
	}

	logCtx := detach(ctx)
	username := form.Username
	a.afterLocked(a.timings.AuthSubmit, func() {
		a.postLocked(domain.NoticeSuccess, msgRegisterSuccess)
		a.registerBtn.reset()
		a.logger(logCtx, "auth.register_simulated", nil)
		a.afterLocked(a.timings.RegisterReturn, func() {
			a.showLocked(AuthModeLogin)
			a.prefill = username
		})
	})
	return nil
}

// BlurRegisterField re-checks one register field. Empty values clear the error.
func (a *authPage) BlurRegisterField(ctx context.Context, field string, form RegisterForm) (domain.FormFieldState, error) {
	var value, msg string
	switch field {
	case FieldRegisterUsername:
		value = form.Username
		if value != "" && utf8.RuneCountInString(value) < minUsernameLength {
			msg = "Username must be at least 3 characters"
		}
	case FieldRegisterEmail:
		value = form.Email
		if value != "" && !domain.IsValidEmail(value) {
			msg = domain.MsgInvalidEmail
		}
	case FieldRegisterPassword:
		if form.Password != "" && utf8.RuneCountInString(form.Password) < minPasswordLength {
			msg = "Password must be at least 6 characters"
		}
	case FieldConfirmPassword:
		if form.ConfirmPassword != "" && form.Password != form.ConfirmPassword {
			msg = "Passwords do not match"
		}
	default:
		return domain.FormFieldState{}, fmt.Errorf("%w: %q", ErrAuthUnknownField, field)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if msg == "" {
		delete(a.errors, field)
	} else {
		a.errors[field] = msg
	}
	return domain.FormFieldState{Value: value, Valid: msg == "", ErrorMessage: msg}, nil
}

func (a *authPage) TogglePasswordVisibility(ctx context.Context, field string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	shown, ok := a.visible[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrAuthUnknownField, field)
	}
	a.visible[field] = !shown
	return nil
}

func validateRegister(form RegisterForm) map[string]string {
	errs := make(map[string]string)
	switch {
	case strings.TrimSpace(form.Username) == "":
		errs[FieldRegisterUsername] = "Username is required"
	case utf8.RuneCountInString(form.Username) < minUsernameLength:
		errs[FieldRegisterUsername] = "Username must be at least 3 characters"
	}
	switch {
	case strings.TrimSpace(form.Email) == "":
		errs[FieldRegisterEmail] = "Email is required"
	case !domain.IsValidEmail(form.Email):
		errs[FieldRegisterEmail] = domain.MsgInvalidEmail
	}
	switch {
	case strings.TrimSpace(form.Password) == "":
		errs[FieldRegisterPassword] = "Password is required"
	case utf8.RuneCountInString(form.Password) < minPasswordLength:
		errs[FieldRegisterPassword] = "Password must be at least 6 characters"
	}
	if form.Password != form.ConfirmPassword {
		errs[FieldConfirmPassword] = "Passwords do not match"
	}
	if !form.Agree {
		errs[FieldAgreeTerms] = "You must agree to the terms and conditions"
	}
	return errs
}
