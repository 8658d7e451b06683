package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/logger"
	"github.com/jetsetilly/raclient/postqueue"
	"github.com/jetsetilly/raclient/progress"
	"github.com/jetsetilly/raclient/raerrors"
	"github.com/jetsetilly/raclient/session"
)

// Client is the single host-facing object of spec §6: it owns one
// session.Session (the login/load orchestrator), at most one achieve.Game
// (the loaded title's runtime state), and one postqueue.Queue (award/submit
// retries), all driven by the single coarse mutex of spec §5.
type Client struct {
	mu sync.Mutex

	cfg       Config
	transport *wireTransport
	sess      *session.Session
	queue     *postqueue.Queue
	dev       session.DevSession

	game            *achieve.Game
	gameHash        string
	waitingForReset bool
}

// NewClient builds a Client from cfg, ready for BeginLoginWithPassword or
// BeginLoginWithToken (spec §4.G).
func NewClient(cfg Config) *Client {
	wt := newWireTransport(cfg.Call, cfg.Host)
	c := &Client{cfg: cfg, transport: wt}
	c.sess = session.New(wt, session.Config{
		Hardcore:   cfg.Hardcore,
		EncoreMode: cfg.EncoreMode,
		Unofficial: cfg.Unofficial,
		Spectator:  cfg.Spectator,
		Host:       cfg.Host,
	})
	c.queue = postqueue.NewQueue(c.send)
	return c
}

// BeginLoginWithPassword starts r=login with a password (spec §4.G).
func (c *Client) BeginLoginWithPassword(user, password string, cb func(error)) session.Handle {
	return c.sess.BeginLogin(user, password, "", cb)
}

// BeginLoginWithToken starts r=login with a previously-issued token.
func (c *Client) BeginLoginWithToken(user, token string, cb func(error)) session.Handle {
	return c.sess.BeginLogin(user, "", token, cb)
}

// BeginLoadGame resolves hash into a loaded achieve.Game (spec §4.G). cb
// fires once, with the fresh Game on success.
func (c *Client) BeginLoadGame(hash string, cb func(*achieve.Game, error)) session.Handle {
	c.mu.Lock()
	c.gameHash = hash
	c.mu.Unlock()

	return c.sess.BeginLoadGame(hash, func(result session.LoadResult, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		g := c.buildGame(result)
		c.mu.Lock()
		c.game = g
		c.waitingForReset = false
		c.mu.Unlock()
		cb(g, nil)
	})
}

// BeginChangeMedia swaps the loaded disc/cartridge mid-session (spec §4.G).
// A media change that resolves to an unidentified disc downgrades hardcore
// and parks the runtime until the host calls Reset. Blocked outright while
// an attached developer tool holds AllowReload false.
func (c *Client) BeginChangeMedia(filePath string, data []byte, cb func(error)) session.Handle {
	if !c.dev.AllowReload() {
		cb(raerrors.InvalidState("reload blocked by integration"))
		return session.Handle{}
	}
	return c.sess.BeginChangeMedia(filePath, data, func(err error) {
		if raerrors.Is(err, raerrors.HardcoreDisabled) {
			c.mu.Lock()
			c.waitingForReset = true
			c.mu.Unlock()
		}
		cb(err)
	})
}

// Reset clears the parked-for-reset state a downgraded media change leaves
// behind, letting DoFrame resume stepping engines (spec §4.F step 1).
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitingForReset = false
}

// Logout cancels every in-flight orchestrator step and clears the loaded
// game (spec §4.G); already-posted award/submit retries keep draining.
func (c *Client) Logout() {
	c.sess.Logout()
	c.mu.Lock()
	c.game = nil
	c.mu.Unlock()
}

// Game returns the currently loaded game, or nil if none is loaded.
func (c *Client) Game() *achieve.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

// DoFrame steps the loaded game one frame and dispatches every resulting
// event to Config.EventHandler (spec §4.F). Award/submit posts for newly
// triggered achievements and submitted leaderboard entries go through the
// post queue (spec §4.H), which makes the first attempt at once, during
// this call, when no earlier post with the same key is pending.
func (c *Client) DoFrame() {
	c.mu.Lock()
	g := c.game
	waiting := c.waitingForReset
	c.mu.Unlock()
	if g == nil {
		return
	}

	events := g.DoFrame(c.cfg.ReadMemory, waiting)
	c.dispatch(g, events)
}

// Idle drains the loaded game's event queue without stepping any engine
// (spec §4.F "idle"), used while the host is paused.
func (c *Client) Idle() {
	c.mu.Lock()
	g := c.game
	c.mu.Unlock()
	if g == nil {
		return
	}
	c.dispatch(g, g.Idle())
}

// Pump advances the post queue's retry schedule (spec §4.H); call once per
// host tick, independent of DoFrame.
func (c *Client) Pump(now time.Time) {
	c.queue.Pump(now)
}

func (c *Client) dispatch(g *achieve.Game, events []achieve.Event) {
	for _, e := range events {
		switch e.Kind {
		case achieve.EventAchievementTriggered:
			c.onAchievementTriggered(g, e.AchievementID)
		case achieve.EventLeaderboardSubmitted:
			c.onLeaderboardSubmitted(g, e.LeaderboardID)
		}
		if c.cfg.EventHandler != nil {
			c.cfg.EventHandler(e)
		}
	}
}

func (c *Client) onAchievementTriggered(g *achieve.Game, id uint32) {
	var a *achieve.Achievement
	for _, cand := range g.Achievements {
		if cand.ID == id {
			a = cand
			break
		}
	}
	if a == nil {
		return
	}
	a.UnlockTime = time.Now()
	hardcore := c.cfg.Hardcore && !c.dev.HardcoreDisabledByIntegration()
	if hardcore {
		a.UnlockedHardcore = true
	} else {
		a.UnlockedSoftcore = true
	}
	if c.sess.Spectating() {
		return
	}
	c.queue.Enqueue(&postqueue.Item{
		Key:     fmt.Sprintf("award:%d", id),
		Payload: awardPayload{achievementID: id, hardcore: hardcore, hash: c.gameHash},
	}, time.Now())
}

func (c *Client) onLeaderboardSubmitted(g *achieve.Game, id uint32) {
	var lb *achieve.LeaderboardEngine
	for _, cand := range g.Leaderboards {
		if cand.ID == id {
			lb = cand
			break
		}
	}
	if lb == nil || c.sess.Spectating() {
		return
	}
	c.queue.Enqueue(&postqueue.Item{
		Key:     fmt.Sprintf("submit:%d", id),
		Payload: submitPayload{leaderboardID: id, score: lb.RawValue.AsInt(), hash: c.gameHash},
	}, time.Now())
}

// awardPayload and submitPayload are the postqueue.Item payload shapes this
// Client enqueues; send switches on their concrete type.
type awardPayload struct {
	achievementID uint32
	hardcore      bool
	hash          string
}

type submitPayload struct {
	leaderboardID uint32
	score         int64
	hash          string
}

// send bridges postqueue's synchronous Send contract to the transport's
// asynchronous callback by blocking on a buffered channel (spec §4.H: the
// queue attempts one item at a time per key and needs its Outcome back
// before advancing).
func (c *Client) send(item postqueue.Item) postqueue.Outcome {
	result := make(chan postqueue.Outcome, 1)

	switch p := item.Payload.(type) {
	case awardPayload:
		c.transport.AwardAchievement(p.achievementID, p.hardcore, p.hash, func(res session.AwardResult, err error) {
			result <- classifyOutcome(err)
		})
	case submitPayload:
		c.transport.SubmitLeaderboardEntry(p.leaderboardID, p.score, p.hash, func(res session.SubmitResult, err error) {
			result <- classifyOutcome(err)
		})
	default:
		return postqueue.OutcomeHardFailure
	}

	outcome := <-result
	if outcome == postqueue.OutcomeHardFailure {
		if g := c.Game(); g != nil {
			g.PushEvent(achieve.Event{Kind: achieve.EventServerError, Message: item.Key})
		}
	}
	return outcome
}

// classifyOutcome sorts a transport error into the postqueue.Outcome
// taxonomy of spec §4.H: a benign, already-applied server rejection stops
// retrying silently; any other API-level rejection is a hard failure that
// surfaces a ServerError event; anything else (bad JSON, non-2xx status) is
// a transport failure and gets requeued.
func classifyOutcome(err error) postqueue.Outcome {
	if err == nil {
		return postqueue.OutcomeSuccess
	}
	if raerrors.Is(err, raerrors.APIFailure) {
		if strings.Contains(strings.ToLower(err.Error()), "already has") ||
			strings.Contains(strings.ToLower(err.Error()), "already awarded") {
			return postqueue.OutcomeBenignFailure
		}
		return postqueue.OutcomeHardFailure
	}
	return postqueue.OutcomeTransportFailure
}

// Serialize snapshots the loaded game's hit-counter progress (spec §4.I).
func (c *Client) Serialize() ([]byte, error) {
	g := c.Game()
	if g == nil {
		return nil, raerrors.NoGameLoaded()
	}
	return progress.Serialize(g), nil
}

// Deserialize restores previously-serialized progress into the loaded game
// and dispatches the resulting reconciliation events to Config.EventHandler
// (spec §4.I); it returns only an error.
func (c *Client) Deserialize(blob []byte) error {
	g := c.Game()
	if g == nil {
		return raerrors.NoGameLoaded()
	}
	events, err := progress.Deserialize(g, blob)
	if err != nil {
		return err
	}
	c.dispatch(g, events)
	return nil
}

// Summary reports an aggregate progress snapshot for the loaded game.
func (c *Client) Summary() (achieve.SummaryCounts, error) {
	g := c.Game()
	if g == nil {
		return achieve.SummaryCounts{}, raerrors.NoGameLoaded()
	}
	return g.Summary(), nil
}

// RichPresenceString returns the loaded game's most recently computed rich
// presence display string.
func (c *Client) RichPresenceString() string {
	g := c.Game()
	if g == nil {
		return ""
	}
	return g.RichPresenceString()
}

// Dev returns the client's developer-integration latches (spec's
// rc_client_raintegration equivalent). SetHardcoreDisabledByIntegration
// overrides Config.Hardcore for every subsequent DoFrame award decision.
func (c *Client) Dev() *session.DevSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &c.dev
}

// FetchLeaderboardEntries proxies r=lbinfo.
func (c *Client) FetchLeaderboardEntries(leaderboardID uint32, count int, cb func(session.LbInfo, error)) session.Handle {
	return c.sess.FetchLeaderboardEntries(leaderboardID, count, cb)
}

// buildGame turns a session.LoadResult into a ready-to-step achieve.Game:
// parsing every achievement/leaderboard/rich-presence patch entry, bounds-
// checking each trigger at load (spec §8 S6), and seeding already-unlocked
// state from the fetched unlock lists (skipped entirely under EncoreMode,
// spec §6 "encore_mode... treats all achievements as re-unlockable").
//
// The wire protocol modelled by session.AchievementPatch carries no subset
// id, so every achievement built here is left at SubsetID zero — the base
// subset of spec's bucket-grouping rule.
func (c *Client) buildGame(result session.LoadResult) *achieve.Game {
	patch := result.Patch
	g := achieve.NewGame(patch.ID, c.cfg.MaxValidAddress)

	hardSet := toSet(result.HardcoreUnlocks)
	softSet := toSet(result.SoftcoreUnlocks)

	for _, ap := range patch.Achievements {
		if ap.Unofficial && !c.cfg.Unofficial {
			continue
		}

		a := &achieve.Achievement{
			ID:          ap.ID,
			Title:       ap.Title,
			Description: ap.Description,
			Badge:       ap.Badge,
			Points:      ap.Points,
		}
		if ap.Unofficial {
			a.Category = achieve.CategoryUnofficial
		}

		trig, err := g.Parser.ParseTrigger(ap.MemAddr)
		if err == nil {
			err = g.Graph.ValidateTrigger(trig)
		}
		if err != nil {
			c.logf("achievement %d (%s) disabled: %s", ap.ID, ap.Title, err)
			a.Unsupported = true
			a.Engine = achieve.NewTriggerEngine(nil)
			g.Achievements = append(g.Achievements, a)
			continue
		}

		a.Engine = achieve.NewTriggerEngine(trig)
		if !c.cfg.EncoreMode {
			if hardSet[ap.ID] {
				a.UnlockedHardcore = true
			} else if softSet[ap.ID] {
				a.UnlockedSoftcore = true
			}
		}
		g.Achievements = append(g.Achievements, a)
	}

	for _, lp := range patch.Leaderboards {
		lb, err := g.Parser.ParseLeaderboard(lp.Mem)
		if err != nil {
			c.logf("leaderboard %d (%s) disabled: %s", lp.ID, lp.Title, err)
			continue
		}
		eng := achieve.NewLeaderboardEngine(lp.ID, lb, lp.Format)
		g.Leaderboards = append(g.Leaderboards, eng)
	}

	if patch.RichPresencePatch != "" {
		rp, err := g.Parser.ParseRichPresence(patch.RichPresencePatch)
		if err != nil {
			c.logf("rich presence disabled: %s", err)
		} else {
			g.RichPresence = rp
		}
	}

	return g
}

func toSet(ids []uint32) map[uint32]bool {
	s := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (c *Client) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Logf("client", "%s", msg)
	if c.cfg.Log != nil {
		c.cfg.Log(msg)
	}
}
