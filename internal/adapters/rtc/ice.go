package rtc

import (
	"fmt"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/config"
)

// DefaultWebRTCConfig is what browsers get when nothing is configured.
func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// NewWebRTCConfig validates the configured ICE urls and builds the peer
// connection configuration handed to clients. Media never passes through here.
func NewWebRTCConfig(cfg config.ICEConfig) (webrtc.Configuration, error) {
	if len(cfg.URLs) == 0 {
		return DefaultWebRTCConfig(), nil
	}
	var stunURLs, turnURLs []string
	for _, raw := range cfg.URLs {
		u, err := stun.ParseURI(raw)
		if err != nil {
			return webrtc.Configuration{}, fmt.Errorf("ice url %q: %w", raw, err)
		}
		switch u.Scheme {
		case stun.SchemeTypeTURN, stun.SchemeTypeTURNS:
			turnURLs = append(turnURLs, raw)
		default:
			stunURLs = append(stunURLs, raw)
		}
	}

	out := webrtc.Configuration{}
	if len(stunURLs) > 0 {
		out.ICEServers = append(out.ICEServers, webrtc.ICEServer{URLs: stunURLs})
	}
	if len(turnURLs) > 0 {
		if cfg.Username == "" || cfg.Credential == "" {
			return webrtc.Configuration{}, fmt.Errorf("turn servers need ice.username and ice.credential")
		}
		out.ICEServers = append(out.ICEServers, webrtc.ICEServer{
			URLs:           turnURLs,
			Username:       cfg.Username,
			Credential:     cfg.Credential,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}
	log.Info().Str("module", "rtc").Int("stun", len(stunURLs)).Int("turn", len(turnURLs)).Msg("ice servers configured")
	return out, nil
}
