// Package browser is the rod-backed implementation of the driver capability
// surface. It owns one Chrome instance and one logged-in page, and exposes
// list enumeration, the unfollow action, and block-signal observation over it.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"igunfollow/pkg/auth"
	"igunfollow/pkg/config"
	"igunfollow/pkg/driver"
	"igunfollow/pkg/errors"
	"igunfollow/pkg/logger"
)

const baseURL = "https://www.instagram.com"

// Session drives one logged-in browser against the profile UI. It is an
// exclusive resource: at most one list is open and one action in flight at a
// time, which is what the core expects.
type Session struct {
	cfg     config.BrowserConfig
	profile string
	log     logger.Logger

	browser *rod.Browser
	page    *rod.Page
}

var _ driver.Session = (*Session)(nil)

// NewSession creates an unstarted session for the given profile.
func NewSession(cfg config.BrowserConfig, profile string) *Session {
	return &Session{
		cfg:     cfg,
		profile: strings.ToLower(strings.TrimSpace(profile)),
		log:     logger.GetLogger().WithField("component", "browser"),
	}
}

// Start launches Chrome and opens the working page.
func (s *Session) Start(ctx context.Context) error {
	launch := launcher.New().Headless(s.cfg.Headless)
	if s.cfg.UserDataDir != "" {
		launch = launch.UserDataDir(s.cfg.UserDataDir)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "failed to launch chrome", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "failed to connect to chrome", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: baseURL})
	if err != nil {
		_ = browser.Close()
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "failed to open page", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            900,
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		s.log.WithError(err).Warn("Failed to set viewport")
	}

	s.browser = browser
	s.page = page
	return nil
}

// Login signs the session in unless a persisted profile is already
// authenticated. Two-factor prompts cannot be answered headlessly; the caller
// is expected to have done one non-headless run first.
func (s *Session) Login(account *auth.Account) error {
	if err := s.navigate(baseURL + "/accounts/login/"); err != nil {
		return err
	}

	if !s.loginFormPresent() {
		s.log.Info("Existing browser profile is already logged in")
		return nil
	}

	userField, err := s.element("input[name='username']")
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "login form username field missing", err)
	}
	if err := userField.Input(account.Username); err != nil {
		return errors.Wrap(errors.ErrorTypeTransient, "failed to type username", err)
	}

	passField, err := s.element("input[name='password']")
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "login form password field missing", err)
	}
	if err := passField.Input(account.Password); err != nil {
		return errors.Wrap(errors.ErrorTypeTransient, "failed to type password", err)
	}

	submit, err := s.element("button[type='submit']")
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNonRecoverable, "login submit button missing", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return errors.Wrap(errors.ErrorTypeTransient, "failed to submit login", err)
	}

	time.Sleep(5 * time.Second)
	s.dismissPostLoginPrompts()

	if s.loginFormPresent() {
		return errors.New(errors.ErrorTypeNonRecoverable, "login was not accepted, check credentials or complete 2FA in a non-headless run")
	}

	s.log.WithField("username", account.Username).Info("Logged in")
	return nil
}

// dismissPostLoginPrompts clicks through the "Save your login info" and
// "Turn on notifications" interstitials when they appear.
func (s *Session) dismissPostLoginPrompts() {
	for _, label := range []string{"Not Now", "Not now"} {
		if el, err := s.page.Timeout(3 * time.Second).ElementR("button", "^"+label+"$"); err == nil {
			_ = el.Click(proto.InputMouseButtonLeft, 1)
			time.Sleep(time.Second)
		}
	}
}

// OpenList navigates to the profile, reads the reported total from the list
// link, and opens the list dialog. name is "following" or "followers".
func (s *Session) OpenList(name string) (driver.ListSource, error) {
	if err := s.navigate(fmt.Sprintf("%s/%s/", baseURL, s.profile)); err != nil {
		return nil, err
	}

	linkSel := fmt.Sprintf("a[href='/%s/%s/']", s.profile, name)
	link, err := s.element(linkSel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNonRecoverable,
			fmt.Sprintf("%s link not found on profile page", name), err)
	}

	total, hasTotal := 0, false
	if text, err := link.Text(); err == nil {
		total, hasTotal = parseCount(text)
	}

	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransient, "failed to open list dialog", err)
	}
	if _, err := s.element("div[role='dialog']"); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransient, "list dialog did not appear", err)
	}

	s.log.WithFields(map[string]interface{}{
		"list":     name,
		"reported": total,
	}).Info("List opened")

	return &listSource{session: s, name: name, total: total, hasTotal: hasTotal}, nil
}

// ApplyAction unfollows the referenced account from its profile page and
// verifies the button flipped to Follow. A profile that is gone or already
// not followed is a definitive failure; an unverifiable click is ambiguous.
func (s *Session) ApplyAction(ref driver.EntityRef) (driver.ActionResult, error) {
	if err := s.navigate(fmt.Sprintf("%s/%s/", baseURL, ref.Username)); err != nil {
		return driver.ActionAmbiguous, err
	}

	if s.pageContains("Sorry, this page isn't available") {
		return driver.ActionFailure, nil
	}

	state, err := s.followButtonState()
	if err != nil {
		return driver.ActionAmbiguous, errors.Wrap(errors.ErrorTypeTransient, "follow button not found", err)
	}
	if state != "following" {
		// Already not following; nothing to do.
		return driver.ActionFailure, nil
	}

	btn, err := s.page.Timeout(s.navWait()).ElementR("button", "/^following$/i")
	if err != nil {
		return driver.ActionAmbiguous, errors.Wrap(errors.ErrorTypeTransient, "follow button disappeared", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return driver.ActionAmbiguous, errors.Wrap(errors.ErrorTypeTransient, "failed to click following button", err)
	}

	confirm, err := s.page.Timeout(10 * time.Second).ElementR("div[role='dialog'] button, div[role='dialog'] span", "/^unfollow$/i")
	if err != nil {
		return driver.ActionAmbiguous, nil
	}
	if err := confirm.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return driver.ActionAmbiguous, errors.Wrap(errors.ErrorTypeTransient, "failed to confirm unfollow", err)
	}

	time.Sleep(2 * time.Second)

	state, err = s.followButtonState()
	if err != nil || state == "" {
		return driver.ActionAmbiguous, nil
	}
	if state == "follow" {
		return driver.ActionSuccess, nil
	}
	return driver.ActionAmbiguous, nil
}

// ObservedBlockPhrases returns the texts of any dialog or alert surfaces plus
// a slice of the page body, for the detector to scan.
func (s *Session) ObservedBlockPhrases() []string {
	var texts []string
	raw, err := s.evalJSON(`
	() => {
		const out = [];
		for (const sel of ["div[role='dialog']", "div[role='alert']"]) {
			for (const el of document.querySelectorAll(sel)) {
				const t = (el.innerText || '').trim();
				if (t) out.push(t);
			}
		}
		out.push((document.body ? document.body.innerText : '').slice(0, 4000));
		return out;
	}
	`)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, &texts); err != nil {
		return nil
	}
	return texts
}

// Close shuts the page and browser down.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		err := s.browser.Close()
		s.browser = nil
		return err
	}
	return nil
}

func (s *Session) navWait() time.Duration {
	if s.cfg.NavigationWait > 0 {
		return s.cfg.NavigationWait
	}
	return 30 * time.Second
}

func (s *Session) navigate(url string) error {
	if err := s.page.Timeout(s.navWait()).Navigate(url); err != nil {
		return errors.Wrap(errors.ErrorTypeTransient, "navigation failed", err)
	}
	if err := s.page.Timeout(s.navWait()).WaitLoad(); err != nil {
		return errors.Wrap(errors.ErrorTypeTransient, "page load timed out", err)
	}
	return nil
}

func (s *Session) element(selector string) (*rod.Element, error) {
	return s.page.Timeout(s.navWait()).Element(selector)
}

func (s *Session) loginFormPresent() bool {
	_, err := s.page.Timeout(5 * time.Second).Element("input[name='username']")
	return err == nil
}

// followButtonState reads the primary profile button: "following", "follow",
// or "" when no recognizable button is present.
func (s *Session) followButtonState() (string, error) {
	raw, err := s.evalJSON(`
	() => {
		for (const btn of document.querySelectorAll('header button, main button')) {
			const t = (btn.innerText || '').trim().toLowerCase();
			if (t === 'following' || t === 'follow' || t === 'follow back' || t === 'requested') {
				return t === 'follow back' ? 'follow' : t;
			}
		}
		return '';
	}
	`)
	if err != nil {
		return "", err
	}
	var state string
	if err := json.Unmarshal(raw, &state); err != nil {
		return "", err
	}
	return state, nil
}

func (s *Session) pageContains(phrase string) bool {
	raw, err := s.evalJSON(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

// evalJSON runs a JS function on the page and returns the result as JSON.
func (s *Session) evalJSON(js string) ([]byte, error) {
	res, err := s.page.Evaluate(&rod.EvalOptions{
		JS:           js,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return res.Value.MarshalJSON()
}

// listSource is the paginated view over one open list dialog.
type listSource struct {
	session  *Session
	name     string
	total    int
	hasTotal bool
}

// RevealNextPage scrolls the dialog to its current bottom and returns the
// entities now rendered. The virtualized list may recycle rows, so the same
// entity can reappear across calls; the collector deduplicates.
func (l *listSource) RevealNextPage() ([]driver.EntityRef, error) {
	_, err := l.session.evalJSON(`
	() => {
		const dialog = document.querySelector("div[role='dialog']");
		if (!dialog) return false;
		let target = null;
		for (const el of dialog.querySelectorAll('div')) {
			if (el.scrollHeight > el.clientHeight + 10) target = el;
		}
		if (target) target.scrollTop = target.scrollHeight;
		return true;
	}
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransient, "list scroll failed", err)
	}
	return l.CurrentlyVisible()
}

// CurrentlyVisible extracts the profile links rendered in the dialog.
func (l *listSource) CurrentlyVisible() ([]driver.EntityRef, error) {
	raw, err := l.session.evalJSON(`
	() => {
		const dialog = document.querySelector("div[role='dialog']");
		if (!dialog) return [];
		const hrefs = [];
		for (const a of dialog.querySelectorAll('a[href]')) {
			hrefs.push(a.getAttribute('href'));
		}
		return hrefs;
	}
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransient, "list read failed", err)
	}

	var hrefs []string
	if err := json.Unmarshal(raw, &hrefs); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransient, "list decode failed", err)
	}

	seen := make(map[string]bool, len(hrefs))
	refs := make([]driver.EntityRef, 0, len(hrefs))
	for _, href := range hrefs {
		username, ok := usernameFromHref(href)
		if !ok {
			continue
		}
		id := strings.ToLower(username)
		if id == l.session.profile || seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, driver.EntityRef{ID: id, Username: username})
	}
	return refs, nil
}

// ReportedTotal is the count read from the profile header link.
func (l *listSource) ReportedTotal() (int, bool) {
	return l.total, l.hasTotal
}
