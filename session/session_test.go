package session_test

import (
	"testing"

	"github.com/jetsetilly/raclient/raerrors"
	"github.com/jetsetilly/raclient/ratest"
	"github.com/jetsetilly/raclient/session"
)

// fakeTransport completes every call synchronously so the orchestrator's
// dependency chain can be tested without a real goroutine/HTTP round trip.
type fakeTransport struct {
	loginErr error
	gameID   uint32
}

func (f *fakeTransport) Login(user, password, token string, cb func(session.LoginResult, error)) {
	if f.loginErr != nil {
		cb(session.LoginResult{}, f.loginErr)
		return
	}
	cb(session.LoginResult{User: user, Token: "tok"}, nil)
}
func (f *fakeTransport) IdentifyHash(hash string, cb func(uint32, error)) { cb(f.gameID, nil) }
func (f *fakeTransport) FetchPatch(gameID uint32, cb func(session.PatchData, error)) {
	cb(session.PatchData{ID: gameID, ConsoleID: 1}, nil)
}
func (f *fakeTransport) PostActivity(gameID uint32, cb func(error)) { cb(nil) }
func (f *fakeTransport) FetchUnlocks(gameID uint32, hardcore bool, cb func([]uint32, error)) {
	cb(nil, nil)
}
func (f *fakeTransport) AwardAchievement(id uint32, hardcore bool, hash string, cb func(session.AwardResult, error)) {
	cb(session.AwardResult{}, nil)
}
func (f *fakeTransport) SubmitLeaderboardEntry(id uint32, score int64, hash string, cb func(session.SubmitResult, error)) {
	cb(session.SubmitResult{}, nil)
}
func (f *fakeTransport) Ping(gameID uint32, rp string, cb func(error)) { cb(nil) }
func (f *fakeTransport) FetchLeaderboardEntries(id uint32, user string, count int, cb func(session.LbInfo, error)) {
	cb(session.LbInfo{ID: id}, nil)
}

func TestLoginThenLoadGame(t *testing.T) {
	s := session.New(&fakeTransport{gameID: 99}, session.Config{})

	var loginErr error
	s.BeginLogin("alice", "pw", "", func(err error) { loginErr = err })
	if !ratest.ExpectSuccess(t, loginErr) {
		return
	}

	var result session.LoadResult
	var loadErr error
	s.BeginLoadGame("abcd", func(r session.LoadResult, err error) {
		result = r
		loadErr = err
	})
	if !ratest.ExpectSuccess(t, loadErr) {
		return
	}
	ratest.ExpectEquality(t, uint32(99), result.Patch.ID)
}

func TestLoadGameParksBehindLogin(t *testing.T) {
	// BeginLogin marks the session as logging-in synchronously and only then
	// waits on the transport, so calling it first (against a transport whose
	// login callback never fires until we say so) leaves the session in
	// stateLoggingIn when BeginLoadGame arrives — exercising the parking path.
	tr := &parkingTransport{fakeTransport: fakeTransport{gameID: 5}}
	s := session.New(tr, session.Config{})

	var loginErr error
	s.BeginLogin("alice", "pw", "", func(err error) { loginErr = err })

	var loadErr error
	s.BeginLoadGame("abcd", func(r session.LoadResult, err error) { loadErr = err })

	tr.completeLogin(nil)

	ratest.ExpectSuccess(t, loginErr)
	ratest.ExpectSuccess(t, loadErr)
}

type parkingTransport struct {
	fakeTransport
	loginCb func(session.LoginResult, error)
}

func (p *parkingTransport) Login(user, password, token string, cb func(session.LoginResult, error)) {
	p.loginCb = cb
}

func (p *parkingTransport) completeLogin(err error) {
	p.loginCb(session.LoginResult{User: "alice", Token: "tok"}, err)
}

func TestLoginFailureFailsParkedLoadWithLoginRequired(t *testing.T) {
	tr := &parkingTransport{fakeTransport: fakeTransport{gameID: 5}}
	s := session.New(tr, session.Config{})

	s.BeginLogin("alice", "pw", "", func(err error) {})

	var loadErr error
	s.BeginLoadGame("abcd", func(r session.LoadResult, err error) { loadErr = err })

	tr.completeLogin(raerrors.APIFailure("bad credentials"))

	if !ratest.ExpectFailure(t, loadErr) {
		return
	}
	ratest.ExpectEquality(t, true, raerrors.IsKind(loadErr, raerrors.LoginRequired))
}

func TestLogoutAfterLoadDoesNotPanicAndClearsState(t *testing.T) {
	tr := &parkingTransport{fakeTransport: fakeTransport{gameID: 5}}
	s := session.New(tr, session.Config{})

	called := false
	s.BeginLogin("alice", "pw", "", func(err error) {})
	tr.completeLogin(nil)
	s.BeginLoadGame("abcd", func(r session.LoadResult, err error) { called = true })
	s.Logout()

	ratest.ExpectEquality(t, true, called)
}
