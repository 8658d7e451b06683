package client_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/client"
	"github.com/jetsetilly/raclient/ratest"
)

// fakeServer answers the wire protocol endpoints this test exercises,
// synchronously, mirroring fakeTransport in package session's own tests but
// at the wire-format boundary.
type fakeServer struct {
	achievements []map[string]interface{}
	awards       []string
}

func (s *fakeServer) call(host string, params url.Values, cb func(body []byte, status int, err error)) {
	op := params.Get("r")
	var resp map[string]interface{}

	switch op {
	case "login":
		resp = map[string]interface{}{"Success": true, "User": params.Get("u"), "Token": "tok"}
	case "gameid":
		resp = map[string]interface{}{"Success": true, "GameID": 99}
	case "patch":
		resp = map[string]interface{}{"Success": true, "PatchData": map[string]interface{}{
			"ID":           99,
			"Title":        "Test Game",
			"ConsoleID":    1,
			"Achievements": s.achievements,
		}}
	case "postactivity":
		resp = map[string]interface{}{"Success": true}
	case "unlocks":
		resp = map[string]interface{}{"Success": true, "UserUnlocks": []uint32{}}
	case "awardachievement":
		s.awards = append(s.awards, params.Get("a"))
		resp = map[string]interface{}{"Success": true, "AchievementID": 1}
	default:
		resp = map[string]interface{}{"Success": false, "Error": "unhandled op " + op}
	}

	body, _ := json.Marshal(resp)
	cb(body, 200, nil)
}

func memory(buf []byte) func(address uint32, b []byte) int {
	return func(address uint32, b []byte) int {
		n := 0
		for i := range b {
			if int(address)+i >= len(buf) {
				break
			}
			b[i] = buf[int(address)+i]
			n++
		}
		return n
	}
}

func TestLoginLoadTriggerAwardsAchievement(t *testing.T) {
	server := &fakeServer{
		achievements: []map[string]interface{}{
			{"ID": 1, "Title": "First", "Description": "do a thing", "Points": 5, "MemAddr": "0xH0000=1"},
		},
	}
	buf := make([]byte, 16)
	var gotEvents []achieve.Event

	c := client.NewClient(client.Config{
		Hardcore:        true,
		MaxValidAddress: 0xFFFF,
		Call:            server.call,
		ReadMemory:      memory(buf),
		EventHandler:    func(e achieve.Event) { gotEvents = append(gotEvents, e) },
	})

	var loginErr error
	c.BeginLoginWithPassword("alice", "pw", func(err error) { loginErr = err })
	if !ratest.ExpectSuccess(t, loginErr) {
		return
	}

	var loadErr error
	var g *achieve.Game
	c.BeginLoadGame("abcd", func(game *achieve.Game, err error) {
		g = game
		loadErr = err
	})
	if !ratest.ExpectSuccess(t, loadErr) {
		return
	}
	ratest.ExpectEquality(t, 1, len(g.Achievements))
	ratest.ExpectEquality(t, achieve.Waiting, g.Achievements[0].State())

	c.DoFrame()
	ratest.ExpectEquality(t, achieve.Active, g.Achievements[0].State())

	buf[0] = 1
	c.DoFrame()
	ratest.ExpectEquality(t, achieve.Triggered, g.Achievements[0].State())

	foundTriggered := false
	for _, e := range gotEvents {
		if e.Kind == achieve.EventAchievementTriggered && e.AchievementID == 1 {
			foundTriggered = true
		}
	}
	ratest.ExpectEquality(t, true, foundTriggered)
	ratest.ExpectEquality(t, true, g.Achievements[0].UnlockedHardcore)

	c.Pump(time.Now())
	ratest.ExpectEquality(t, 1, len(server.awards))
	ratest.ExpectEquality(t, "1", server.awards[0])
}

func TestBeginLoadGameParksBehindLogin(t *testing.T) {
	server := &fakeServer{}
	loginDone := make(chan struct{})

	call := func(host string, params url.Values, cb func(body []byte, status int, err error)) {
		if params.Get("r") == "login" {
			go func() {
				<-loginDone
				server.call(host, params, cb)
			}()
			return
		}
		server.call(host, params, cb)
	}

	c := client.NewClient(client.Config{MaxValidAddress: 0xFFFF, Call: call, ReadMemory: memory(make([]byte, 4))})

	loginResult := make(chan error, 1)
	c.BeginLoginWithPassword("alice", "pw", func(err error) { loginResult <- err })

	loadResult := make(chan error, 1)
	c.BeginLoadGame("abcd", func(g *achieve.Game, err error) { loadResult <- err })

	close(loginDone)

	ratest.ExpectSuccess(t, <-loginResult)
	ratest.ExpectSuccess(t, <-loadResult)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	server := &fakeServer{
		achievements: []map[string]interface{}{
			{"ID": 1, "Title": "Hits", "MemAddr": "0xH0000=1.5."},
		},
	}
	buf := make([]byte, 16)

	c := client.NewClient(client.Config{MaxValidAddress: 0xFFFF, Call: server.call, ReadMemory: memory(buf)})

	var g *achieve.Game
	c.BeginLoginWithPassword("alice", "pw", func(err error) {})
	c.BeginLoadGame("abcd", func(game *achieve.Game, err error) { g = game })

	buf[0] = 1
	c.DoFrame()
	c.DoFrame()
	ratest.ExpectEquality(t, achieve.Active, g.Achievements[0].State())

	blob, err := c.Serialize()
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	buf[0] = 0
	c.DoFrame()

	err = c.Deserialize(blob)
	ratest.ExpectSuccess(t, err)
	ratest.ExpectEquality(t, uint32(2), g.Achievements[0].Engine.Trigger.Groups[0].Conditions[0].CurrentHits)
}
