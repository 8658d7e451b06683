// Package session implements the asynchronous login → identify → load →
// patch → unlocks → session-ready dependency graph of spec §4.G, plus
// logout/change-media. Award/submit posts and their retry queue live in
// packages client and postqueue.
package session

// Transport is the host-supplied collaborator for the wire protocol of
// spec §6 (out of scope for this module: HTTP transport, JSON codec, MD5
// hashing are all external). Each method is asynchronous: it must invoke
// its callback exactly once, synchronously or from another goroutine.
type Transport interface {
	Login(user, password, token string, cb func(LoginResult, error))
	IdentifyHash(hash string, cb func(gameID uint32, err error))
	FetchPatch(gameID uint32, cb func(PatchData, error))
	PostActivity(gameID uint32, cb func(error))
	FetchUnlocks(gameID uint32, hardcore bool, cb func(unlockedIDs []uint32, err error))
	AwardAchievement(achievementID uint32, hardcore bool, hash string, cb func(AwardResult, error))
	SubmitLeaderboardEntry(leaderboardID uint32, score int64, hash string, cb func(SubmitResult, error))
	Ping(gameID uint32, richPresence string, cb func(error))
	FetchLeaderboardEntries(leaderboardID uint32, user string, count int, cb func(LbInfo, error))
}

// LoginResult mirrors the r=login response (spec §6).
type LoginResult struct {
	User          string
	Token         string
	Score         int
	SoftcoreScore int
	Messages      []string
}

// PatchData mirrors the r=patch response's PatchData object.
type PatchData struct {
	ID                uint32
	Title             string
	ConsoleID         uint32
	ImageIcon         string
	Achievements      []AchievementPatch
	Leaderboards      []LeaderboardPatch
	RichPresencePatch string
}

// AchievementPatch is one achievement entry of PatchData.Achievements.
type AchievementPatch struct {
	ID          uint32
	Title       string
	Description string
	Points      int
	Badge       string
	MemAddr     string // raw trigger DSL text
	Unofficial  bool
}

// LeaderboardPatch is one leaderboard entry of PatchData.Leaderboards.
type LeaderboardPatch struct {
	ID     uint32
	Title  string
	Mem    string // raw "STA:...::CAN:...::SUB:...::VAL:...::" text
	Format string
	Lower  bool // lower-is-better ranking
}

// AwardResult mirrors the r=awardachievement response.
type AwardResult struct {
	Score                 int
	SoftcoreScore         int
	AchievementID         uint32
	AchievementsRemaining int
}

// SubmitResult mirrors the r=submitlbentry response's Response object.
type SubmitResult struct {
	Score      int64
	BestScore  int64
	TopEntries []LbEntry
	Rank       int
	NumEntries int
}

// LbInfo mirrors the r=lbinfo response's LeaderboardData object (SPEC_FULL
// supplement: fetching a leaderboard's surrounding entries for UI display,
// grounded on original_source's rc_client_fetch_leaderboard_entries).
type LbInfo struct {
	ID      uint32
	Title   string
	Entries []LbEntry
}

// LbEntry is one ranked leaderboard row.
type LbEntry struct {
	Rank  int
	User  string
	Score int64
}
