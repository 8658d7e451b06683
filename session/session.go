package session

import (
	"sync"

	"github.com/jetsetilly/raclient/raerrors"
)

// Config is the host-facing, per-session configuration of spec §6's
// configuration table.
type Config struct {
	Hardcore   bool
	EncoreMode bool
	Unofficial bool
	// Spectator is latched at load time (spec §4.G "Spectator mode"):
	// toggling it mid-session has no effect until the next load.
	Spectator bool
	Host      string
}

// state is the orchestrator's own lifecycle, distinct from whether a game
// is loaded (spec §4.G).
type state int

const (
	stateLoggedOut state = iota
	stateLoggingIn
	stateLoggedIn
)

// pendingLoad captures a begin_load_game call parked behind an in-flight
// login (spec §4.G "begin_load_game issued while begin_login_* is still in
// flight parks the game load until login completes").
type pendingLoad struct {
	hash string
	cb   func(LoadResult, error)
}

// LoadResult is what a successful begin_load_game delivers: the patch data
// plus the two unlock-id lists fetched alongside it (spec §4.G load DAG
// "fetch_unlocks(game_id, softcore)"/"fetch_unlocks(game_id, hardcore)"),
// needed by the caller to seed each achievement's already-unlocked state.
type LoadResult struct {
	Patch           PatchData
	HardcoreUnlocks []uint32
	SoftcoreUnlocks []uint32
}

// pendingMedia captures a begin_change_media call parked behind an
// incomplete load (spec §4.G).
type pendingMedia struct {
	filePath string
	data     []byte
	cb       func(error)
}

// Session is the asynchronous login→identify→patch→unlocks→ready
// dependency graph of spec §4.G, plus logout and change-media.
type Session struct {
	mu sync.Mutex

	transport Transport
	cfg       Config
	registry  handleRegistry

	state state
	token string
	user  string

	gameID      uint32
	consoleID   uint32
	loadHandle  *Handle
	loaded      bool
	spectatorLatched bool

	pendingLoad  *pendingLoad
	pendingMedia *pendingMedia
}

// New creates a Session bound to transport and cfg.
func New(transport Transport, cfg Config) *Session {
	return &Session{transport: transport, cfg: cfg}
}

// BeginLogin starts r=login with a password or (if password is empty) a
// token, completing into cb. If a begin_load_game arrived first, it is
// parked and resumed here (spec §4.G).
func (s *Session) BeginLogin(user, password, token string, cb func(error)) Handle {
	s.mu.Lock()
	s.state = stateLoggingIn
	h := s.registry.new()
	s.mu.Unlock()

	s.transport.Login(user, password, token, func(res LoginResult, err error) {
		if aborted(h) {
			return
		}
		s.mu.Lock()
		if err != nil {
			s.state = stateLoggedOut
			pending := s.pendingLoad
			s.pendingLoad = nil
			s.mu.Unlock()
			cb(err)
			if pending != nil {
				pending.cb(LoadResult{}, raerrors.LoginRequired())
			}
			return
		}
		s.state = stateLoggedIn
		s.user = res.User
		s.token = res.Token
		pending := s.pendingLoad
		s.pendingLoad = nil
		s.mu.Unlock()

		cb(nil)
		if pending != nil {
			s.beginLoadGame(pending.hash, pending.cb)
		}
	})

	return h
}

// BeginLoadGame resolves hash → game id → patch data → activity/unlocks →
// session ready (spec §4.G). While login is still in flight it parks;
// login failing with any non-abort error fails the load with
// LoginRequired, per spec.
func (s *Session) BeginLoadGame(hash string, cb func(LoadResult, error)) Handle {
	s.mu.Lock()
	if s.state == stateLoggingIn {
		s.pendingLoad = &pendingLoad{hash: hash, cb: cb}
		h := s.registry.new()
		s.mu.Unlock()
		return h
	}
	if s.state != stateLoggedIn {
		s.mu.Unlock()
		cb(LoadResult{}, raerrors.LoginRequired())
		return s.registry.new()
	}
	s.mu.Unlock()
	return s.beginLoadGame(hash, cb)
}

func (s *Session) beginLoadGame(hash string, cb func(LoadResult, error)) Handle {
	h := s.registry.new()
	s.mu.Lock()
	s.loadHandle = &h
	s.mu.Unlock()

	s.transport.IdentifyHash(hash, func(gameID uint32, err error) {
		if aborted(h) {
			return
		}
		if err != nil {
			cb(LoadResult{}, err)
			return
		}
		if gameID == 0 {
			cb(LoadResult{}, raerrors.UnknownGame())
			return
		}

		s.mu.Lock()
		s.gameID = gameID
		s.mu.Unlock()

		s.transport.FetchPatch(gameID, func(patch PatchData, err error) {
			if aborted(h) {
				return
			}
			if err != nil {
				cb(LoadResult{}, err)
				return
			}

			s.mu.Lock()
			s.consoleID = patch.ConsoleID
			s.spectatorLatched = s.cfg.Spectator
			s.mu.Unlock()

			if !s.spectatorLatched {
				s.transport.PostActivity(gameID, func(error) {})
			}

			var wg sync.WaitGroup
			var softIDs, hardIDs []uint32
			var softErr, hardErr error
			wg.Add(2)
			s.transport.FetchUnlocks(gameID, false, func(ids []uint32, err error) {
				softIDs, softErr = ids, err
				wg.Done()
			})
			s.transport.FetchUnlocks(gameID, true, func(ids []uint32, err error) {
				hardIDs, hardErr = ids, err
				wg.Done()
			})
			wg.Wait()

			if aborted(h) {
				return
			}
			if softErr != nil {
				cb(LoadResult{}, softErr)
				return
			}
			if hardErr != nil {
				cb(LoadResult{}, hardErr)
				return
			}

			s.mu.Lock()
			s.loaded = true
			media := s.pendingMedia
			s.pendingMedia = nil
			s.mu.Unlock()

			// session_ready: user callback fired
			cb(LoadResult{Patch: patch, HardcoreUnlocks: hardIDs, SoftcoreUnlocks: softIDs}, nil)
			if media != nil {
				s.BeginChangeMedia(media.filePath, media.data, media.cb)
			}
		})
	})

	return h
}

// BeginChangeMedia parks behind an incomplete load and, once the game's
// console id is known, resolves the new media's hash the same way a fresh
// load would (spec §4.G).
func (s *Session) BeginChangeMedia(filePath string, data []byte, cb func(error)) Handle {
	s.mu.Lock()
	if !s.loaded {
		s.pendingMedia = &pendingMedia{filePath: filePath, data: data, cb: cb}
		h := s.registry.new()
		s.mu.Unlock()
		return h
	}
	s.mu.Unlock()

	h := s.registry.new()
	s.beginLoadGame(filePath, func(result LoadResult, err error) {
		if aborted(h) {
			return
		}
		if raerrors.IsKind(err, raerrors.UnknownGame) {
			// unidentified media: the game stays loaded against a stub, but
			// hardcore cannot be trusted against an unverified disc image,
			// so it is silently downgraded rather than failing the swap
			// (spec §9 open question).
			s.mu.Lock()
			s.cfg.Hardcore = false
			s.mu.Unlock()
			cb(raerrors.HardcoreDisabled("unidentified media"))
			return
		}
		cb(err)
	})
	return h
}

// Logout cancels every in-flight orchestrator step and returns to logged
// out; already-posted unlock/submit retries still drain independently
// (spec §4.G "logout").
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadHandle != nil {
		s.loadHandle.Abort()
		s.loadHandle = nil
	}
	s.state = stateLoggedOut
	s.token = ""
	s.loaded = false
	s.pendingLoad = nil
	s.pendingMedia = nil
}

// Spectating reports whether award/submit posts should be skipped this
// session (latched at load; spec §4.G "Spectator mode").
func (s *Session) Spectating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spectatorLatched
}

// FetchLeaderboardEntries proxies r=lbinfo (SPEC_FULL supplement, spec §6).
func (s *Session) FetchLeaderboardEntries(leaderboardID uint32, count int, cb func(LbInfo, error)) Handle {
	h := s.registry.new()
	s.transport.FetchLeaderboardEntries(leaderboardID, s.user, count, func(info LbInfo, err error) {
		if aborted(h) {
			return
		}
		cb(info, err)
	})
	return h
}
