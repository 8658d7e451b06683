package client

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jetsetilly/raclient/raerrors"
	"github.com/jetsetilly/raclient/session"
)

// wireTransport adapts a host ServerCall into session.Transport, building
// the request field tables of spec §6's endpoint list and decoding each
// endpoint's JSON response shape. It is the one place in this module that
// knows the wire format; everything above it (package session) only deals
// in Go structs.
type wireTransport struct {
	call ServerCall
	host string

	// user/token are captured from the most recent successful Login and
	// attached to every authenticated endpoint below; session.Transport's
	// methods do not carry them explicitly; package session serializes
	// every orchestrator step under its own mutex, so this is never
	// written and read concurrently.
	user  string
	token string
}

func newWireTransport(call ServerCall, host string) *wireTransport {
	return &wireTransport{call: call, host: host}
}

// authed returns params with "u"/"t" set from the captured login, for every
// endpoint of spec §6's wire table that requires them.
func (w *wireTransport) authed(params url.Values) url.Values {
	params.Set("u", w.user)
	params.Set("t", w.token)
	return params
}

// envelope is the Success/Error shape every endpoint's response shares.
type envelope struct {
	Success bool   `json:"Success"`
	Error   string `json:"Error"`
}

// do issues one r=<op> POST and decodes its JSON body into out (if
// non-nil), reporting the raerrors taxonomy of spec §7. Transport-level
// failures (non-2xx status, empty body, malformed JSON) are wrapped with
// github.com/pkg/errors for call-site context; raerrors.Is/IsKind unwrap
// via errors.Cause so callers still match by curated head.
func (w *wireTransport) do(op string, params url.Values, out interface{}, cb func(error)) {
	params.Set("r", op)
	w.call(w.host, params, func(body []byte, status int, err error) {
		if err != nil {
			cb(errors.Wrapf(raerrors.InvalidJSON(err.Error()), "r=%s", op))
			return
		}
		if status < 200 || status >= 300 || len(body) == 0 {
			cb(errors.Wrapf(raerrors.InvalidJSON(statusText(status)), "r=%s", op))
			return
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			cb(errors.Wrapf(raerrors.InvalidJSON(err.Error()), "r=%s", op))
			return
		}
		if !env.Success {
			cb(raerrors.APIFailure(env.Error))
			return
		}
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				cb(errors.Wrapf(raerrors.InvalidJSON(err.Error()), "r=%s", op))
				return
			}
		}
		cb(nil)
	})
}

func statusText(status int) string {
	return "http " + strconv.Itoa(status)
}

// validator computes spec §6's "v=" anti-tamper MD5 over a canonical
// concatenation of the caller-supplied fields.
func validator(parts ...string) string {
	s := ""
	for _, p := range parts {
		s += p
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (w *wireTransport) Login(user, password, token string, cb func(session.LoginResult, error)) {
	params := url.Values{"u": {user}}
	if token != "" {
		params.Set("t", token)
	} else {
		params.Set("p", password)
	}

	var resp struct {
		envelope
		User          string   `json:"User"`
		Token         string   `json:"Token"`
		Score         int      `json:"Score"`
		SoftcoreScore int      `json:"SoftcoreScore"`
		Messages      []string `json:"Messages"`
	}
	w.do("login", params, &resp, func(err error) {
		if err != nil {
			cb(session.LoginResult{}, err)
			return
		}
		w.user = resp.User
		w.token = resp.Token
		cb(session.LoginResult{
			User:          resp.User,
			Token:         resp.Token,
			Score:         resp.Score,
			SoftcoreScore: resp.SoftcoreScore,
			Messages:      resp.Messages,
		}, nil)
	})
}

func (w *wireTransport) IdentifyHash(hash string, cb func(uint32, error)) {
	params := url.Values{"m": {hash}}
	var resp struct {
		envelope
		GameID uint32 `json:"GameID"`
	}
	w.do("gameid", params, &resp, func(err error) {
		if err != nil {
			cb(0, err)
			return
		}
		cb(resp.GameID, nil)
	})
}

func (w *wireTransport) FetchPatch(gameID uint32, cb func(session.PatchData, error)) {
	params := w.authed(url.Values{"g": {fmt.Sprint(gameID)}})
	var resp struct {
		envelope
		PatchData struct {
			ID           uint32                     `json:"ID"`
			Title        string                     `json:"Title"`
			ConsoleID    uint32                     `json:"ConsoleID"`
			ImageIcon    string                     `json:"ImageIcon"`
			Achievements []session.AchievementPatch `json:"Achievements"`
			Leaderboards []session.LeaderboardPatch `json:"Leaderboards"`
			RichPresencePatch string                `json:"RichPresencePatch"`
		} `json:"PatchData"`
	}
	w.do("patch", params, &resp, func(err error) {
		if err != nil {
			cb(session.PatchData{}, err)
			return
		}
		cb(session.PatchData{
			ID:                resp.PatchData.ID,
			Title:             resp.PatchData.Title,
			ConsoleID:         resp.PatchData.ConsoleID,
			ImageIcon:         resp.PatchData.ImageIcon,
			Achievements:      resp.PatchData.Achievements,
			Leaderboards:      resp.PatchData.Leaderboards,
			RichPresencePatch: resp.PatchData.RichPresencePatch,
		}, nil)
	})
}

func (w *wireTransport) PostActivity(gameID uint32, cb func(error)) {
	params := w.authed(url.Values{"a": {"3"}, "m": {fmt.Sprint(gameID)}, "l": {"1"}})
	w.do("postactivity", params, nil, cb)
}

func (w *wireTransport) FetchUnlocks(gameID uint32, hardcore bool, cb func([]uint32, error)) {
	params := w.authed(url.Values{"g": {fmt.Sprint(gameID)}, "h": {boolDigit(hardcore)}})
	var resp struct {
		envelope
		UserUnlocks []uint32 `json:"UserUnlocks"`
	}
	w.do("unlocks", params, &resp, func(err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		cb(resp.UserUnlocks, nil)
	})
}

// AwardAchievement posts r=awardachievement, with the user and token
// captured by the most recent successful Login (package session does not
// pass them; the one wireTransport built by NewClient keeps them).
func (w *wireTransport) AwardAchievement(achievementID uint32, hardcore bool, hash string, cb func(session.AwardResult, error)) {
	params := w.authed(url.Values{
		"a": {fmt.Sprint(achievementID)},
		"h": {boolDigit(hardcore)},
		"m": {hash},
		"v": {validator(w.user, fmt.Sprint(achievementID), hash)},
	})
	var resp struct {
		envelope
		Score                 int    `json:"Score"`
		SoftcoreScore         int    `json:"SoftcoreScore"`
		AchievementID         uint32 `json:"AchievementID"`
		AchievementsRemaining int    `json:"AchievementsRemaining"`
	}
	w.do("awardachievement", params, &resp, func(err error) {
		if err != nil {
			cb(session.AwardResult{}, err)
			return
		}
		cb(session.AwardResult{
			Score:                 resp.Score,
			SoftcoreScore:         resp.SoftcoreScore,
			AchievementID:         resp.AchievementID,
			AchievementsRemaining: resp.AchievementsRemaining,
		}, nil)
	})
}

func (w *wireTransport) SubmitLeaderboardEntry(leaderboardID uint32, score int64, hash string, cb func(session.SubmitResult, error)) {
	params := w.authed(url.Values{
		"i": {fmt.Sprint(leaderboardID)},
		"s": {fmt.Sprint(score)},
		"m": {hash},
		"v": {validator(w.user, fmt.Sprint(leaderboardID), fmt.Sprint(score), hash)},
	})
	var resp struct {
		envelope
		Response struct {
			Score      int64             `json:"Score"`
			BestScore  int64             `json:"BestScore"`
			TopEntries []session.LbEntry `json:"TopEntries"`
			RankInfo   struct {
				Rank       int `json:"Rank"`
				NumEntries int `json:"NumEntries"`
			} `json:"RankInfo"`
		} `json:"Response"`
	}
	w.do("submitlbentry", params, &resp, func(err error) {
		if err != nil {
			cb(session.SubmitResult{}, err)
			return
		}
		cb(session.SubmitResult{
			Score:      resp.Response.Score,
			BestScore:  resp.Response.BestScore,
			TopEntries: resp.Response.TopEntries,
			Rank:       resp.Response.RankInfo.Rank,
			NumEntries: resp.Response.RankInfo.NumEntries,
		}, nil)
	})
}

func (w *wireTransport) Ping(gameID uint32, richPresence string, cb func(error)) {
	params := w.authed(url.Values{"g": {fmt.Sprint(gameID)}})
	if richPresence != "" {
		params.Set("m", richPresence)
	}
	w.do("ping", params, nil, cb)
}

func (w *wireTransport) FetchLeaderboardEntries(leaderboardID uint32, user string, count int, cb func(session.LbInfo, error)) {
	params := url.Values{"i": {fmt.Sprint(leaderboardID)}, "c": {fmt.Sprint(count)}}
	if user != "" {
		params.Set("u", user)
	}
	var resp struct {
		envelope
		LeaderboardData struct {
			ID      uint32            `json:"ID"`
			Title   string            `json:"Title"`
			Entries []session.LbEntry `json:"Entries"`
		} `json:"LeaderboardData"`
	}
	w.do("lbinfo", params, &resp, func(err error) {
		if err != nil {
			cb(session.LbInfo{}, err)
			return
		}
		cb(session.LbInfo{
			ID:      resp.LeaderboardData.ID,
			Title:   resp.LeaderboardData.Title,
			Entries: resp.LeaderboardData.Entries,
		}, nil)
	})
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
