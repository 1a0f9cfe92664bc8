package rtc

import (
	"testing"

	"github.com/dkeye/Huddle/internal/config"
)

func TestNewWebRTCConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		got, err := NewWebRTCConfig(config.ICEConfig{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.ICEServers) != 1 {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("stun and turn split", func(t *testing.T) {
		got, err := NewWebRTCConfig(config.ICEConfig{
			URLs:       []string{"stun:stun.example.org:3478", "turn:turn.example.org:3478?transport=udp"},
			Username:   "u",
			Credential: "p",
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.ICEServers) != 2 || got.ICEServers[1].Username != "u" {
			t.Fatalf("got %+v", got.ICEServers)
		}
	})

	t.Run("turn without credentials", func(t *testing.T) {
		if _, err := NewWebRTCConfig(config.ICEConfig{URLs: []string{"turn:turn.example.org:3478"}}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad url", func(t *testing.T) {
		if _, err := NewWebRTCConfig(config.ICEConfig{URLs: []string{"http://nope"}}); err == nil {
			t.Fatal("expected error")
		}
	})
}
