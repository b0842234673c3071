package crawler

import (
	"context"
	"fmt"
	"time"

	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/internal/race"
	"sjsage522/oddsworker/logger"
	apperrors "sjsage522/oddsworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// State is a position in the portal's menu hierarchy
type State int

const (
	StateHome State = iota
	StateOddsLanding
	StateMeetingSelected
	StateRaceSelected
	StateBetTypeTab
)

func (s State) String() string {
	switch s {
	case StateHome:
		return "home"
	case StateOddsLanding:
		return "odds_landing"
	case StateMeetingSelected:
		return "meeting_selected"
	case StateRaceSelected:
		return "race_selected"
	case StateBetTypeTab:
		return "bet_type_tab"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NavigatorOptions configures a Navigator
type NavigatorOptions struct {
	PortalURL    string
	StepTimeout  time.Duration
	PollInterval time.Duration
}

// Navigator walks one session from the portal home page to a race's odds
// tables by following links whose text is derived from the race identifier.
type Navigator struct {
	session  Session
	contract page.Contract
	opts     NavigatorOptions
	id       race.ID
	state    State
	tab      page.BetType
	fallback bool
	log      *logger.Logger
}

// NewNavigator creates a navigator for id on session
func NewNavigator(session Session, contract page.Contract, opts NavigatorOptions, id race.ID) *Navigator {
	return &Navigator{
		session:  session,
		contract: contract,
		opts:     opts,
		id:       id,
		state:    StateHome,
		log:      logger.ForRace("navigator", id.String()),
	}
}

// RaceID returns the race being navigated to
func (n *Navigator) RaceID() race.ID { return n.id }

// State returns the current position
func (n *Navigator) State() State { return n.state }

// Tab returns the selected bet type; only meaningful in StateBetTypeTab
func (n *Navigator) Tab() page.BetType { return n.tab }

// UsedFallback reports whether the race was reached via the results listing
func (n *Navigator) UsedFallback() bool { return n.fallback }

// GoToRace drives the session to the race's odds page.
//
// The odds menu only lists a meeting while it is open; otherwise the race is
// reached through the results listing and the odds link on the result panel.
func (n *Navigator) GoToRace(ctx context.Context) error {
	if err := n.session.Navigate(ctx, n.opts.PortalURL); err != nil {
		return n.fail("open portal", err)
	}
	n.state = StateHome

	if err := n.follow(ctx, page.Document, n.contract.OddsLink()); err != nil {
		return err
	}
	n.state = StateOddsLanding

	meeting := n.contract.MeetingLink(n.id.Venue, n.id.MeetingDay)
	raceLink := n.contract.RaceLink(n.id.RaceNumber)

	doc, err := n.Snapshot(ctx)
	if err != nil {
		return err
	}

	if link, ok := page.FindLink(doc, page.Document, meeting); ok {
		if err := n.click(ctx, link); err != nil {
			return err
		}
		n.state = StateMeetingSelected

		if err := n.follow(ctx, page.Document, raceLink); err != nil {
			return err
		}
		n.state = StateRaceSelected
		n.log.Debug().Msg("Reached race odds page")
		return nil
	}

	n.fallback = true
	n.log.Info().
		Str("meeting", meeting.Label).
		Msg("Meeting not listed on odds page, going through race results")

	if err := n.follow(ctx, page.Document, n.contract.ResultsLink()); err != nil {
		return err
	}
	if err := n.follow(ctx, page.Document, meeting); err != nil {
		return err
	}
	n.state = StateMeetingSelected

	if err := n.follow(ctx, page.Document, raceLink); err != nil {
		return err
	}
	if err := n.follow(ctx, n.contract.ResultPanel, n.contract.RaceOddsLink()); err != nil {
		return err
	}
	n.state = StateRaceSelected
	n.log.Debug().Msg("Reached race odds page via results")
	return nil
}

// SelectTab clicks the tab for bet type b and waits for it to load.
func (n *Navigator) SelectTab(ctx context.Context, b page.BetType) error {
	if n.state < StateRaceSelected {
		return n.fail(fmt.Sprintf("cannot select %s tab from %s", b, n.state), nil)
	}
	m, ok := n.contract.TabLink(b)
	if !ok {
		return n.fail(fmt.Sprintf("no tab label configured for %s", b), nil)
	}
	if err := n.follow(ctx, n.contract.TabStrip, m); err != nil {
		return err
	}
	n.state = StateBetTypeTab
	n.tab = b
	return nil
}

// Snapshot parses the current page
func (n *Navigator) Snapshot(ctx context.Context) (*goquery.Document, error) {
	html, err := n.session.HTML(ctx)
	if err != nil {
		return nil, n.fail("read page", err)
	}
	doc, err := page.Parse(html)
	if err != nil {
		return nil, n.fail("parse page", err)
	}
	return doc, nil
}

func (n *Navigator) follow(ctx context.Context, scope page.Scope, m page.Matcher) error {
	link, err := n.waitForLink(ctx, scope, m)
	if err != nil {
		return err
	}
	return n.click(ctx, link)
}

func (n *Navigator) click(ctx context.Context, link page.Link) error {
	if err := n.session.Click(ctx, link); err != nil {
		return n.fail(fmt.Sprintf("click %q", link.Text), err)
	}
	return nil
}

// waitForLink polls fresh snapshots until the link shows up or the step
// timeout elapses.
func (n *Navigator) waitForLink(ctx context.Context, scope page.Scope, m page.Matcher) (page.Link, error) {
	deadline := time.Now().Add(n.opts.StepTimeout)
	for {
		doc, err := n.Snapshot(ctx)
		if err != nil {
			return page.Link{}, err
		}
		if link, ok := page.FindLink(doc, scope, m); ok {
			return link, nil
		}
		if !time.Now().Before(deadline) {
			return page.Link{}, n.fail(fmt.Sprintf("link %q not found within %s", m.Label, n.opts.StepTimeout), nil)
		}

		select {
		case <-ctx.Done():
			return page.Link{}, n.fail(fmt.Sprintf("waiting for link %q", m.Label), ctx.Err())
		case <-time.After(n.opts.PollInterval):
		}
	}
}

func (n *Navigator) fail(reason string, err error) error {
	return apperrors.NewNavigation(n.id.String(), fmt.Sprintf("%s (at %s)", reason, n.state), err)
}
