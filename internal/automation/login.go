package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Login form selectors.
const (
	usernameInput = "#username"
	passwordInput = "#password"
	submitButton  = `button[type="submit"]`

	// checkpointPath marks the step-up verification pages.
	checkpointPath = "/checkpoint/"

	submitPoll = 250 * time.Millisecond
)

// Credentials holds login form data.
type Credentials struct {
	Username string
	Password string
}

// Validate reports missing credential values.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return errors.New("username and password are required")
	}
	return nil
}

// Login submits the login form and waits out any verification challenge.
func Login(ctx context.Context, sess FormSession, cfg config.LoginConfig, creds Credentials, logger *slog.Logger) error {
	logger = logger.With("component", "login")
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := sess.Navigate(ctx, cfg.URL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := sess.Input(ctx, usernameInput, creds.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	if err := sess.Input(ctx, passwordInput, creds.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	if err := sess.Submit(ctx, submitButton); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	if err := waitForRedirect(ctx, sess, cfg); err != nil {
		return err
	}

	if err := WaitForVerification(ctx, sess, cfg, logger); err != nil {
		return err
	}
	logger.Info("logged in", "user", creds.Username)
	return nil
}

// waitForRedirect returns once the tab has left the login page. A form that
// is still shown after cfg.SubmitTimeout was rejected.
func waitForRedirect(ctx context.Context, sess FormSession, cfg config.LoginConfig) error {
	waitCtx, cancel := context.WithTimeout(ctx, cfg.SubmitTimeout)
	defer cancel()

	current := cfg.URL
	for {
		u, err := sess.URL(waitCtx)
		if err == nil {
			current = u
			if !onLoginPage(current, cfg.URL) {
				return nil
			}
			err = sess.Wait(waitCtx, submitPoll)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if waitCtx.Err() != nil {
				return fmt.Errorf("%w: still on %s after %s", types.ErrLoginRejected, current, cfg.SubmitTimeout)
			}
			return err
		}
	}
}

// onLoginPage reports whether current shows the same page as loginURL,
// ignoring query strings and trailing slashes.
func onLoginPage(current, loginURL string) bool {
	cu, err := url.Parse(current)
	if err != nil {
		return false
	}
	lu, err := url.Parse(loginURL)
	if err != nil {
		return false
	}
	return cu.Host == lu.Host && strings.TrimSuffix(cu.Path, "/") == strings.TrimSuffix(lu.Path, "/")
}

// IsChallenge reports whether rawURL is a verification challenge page.
func IsChallenge(rawURL string) bool {
	return strings.Contains(rawURL, checkpointPath)
}

// WaitForVerification returns once the tab has left any verification page.
// A headless session cannot show the challenge to anyone, so it fails at once.
func WaitForVerification(ctx context.Context, sess FormSession, cfg config.LoginConfig, logger *slog.Logger) error {
	challenge, err := sess.URL(ctx)
	if err != nil {
		return err
	}
	if !IsChallenge(challenge) {
		return nil
	}

	if sess.Headless() {
		return &types.VerificationError{URL: challenge, Headless: true, Err: types.ErrVerificationRequired}
	}

	logger.Warn("verification required, complete it in the browser window",
		"url", challenge, "timeout", cfg.VerificationTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.VerificationTimeout)
	defer cancel()

	for {
		if err := sess.Wait(waitCtx, cfg.VerificationPoll); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &types.VerificationError{URL: challenge, Err: types.ErrVerificationTimeout}
		}
		current, err := sess.URL(waitCtx)
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return &types.VerificationError{URL: challenge, Err: types.ErrVerificationTimeout}
			}
			return err
		}
		if !IsChallenge(current) {
			logger.Info("verification completed", "url", current)
			return nil
		}
	}
}
