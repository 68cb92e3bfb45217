package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundAuth(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"auth","displayName":"  alice ","avatarSeed":"seed-1","uid":"uid-1"}`))
	require.NoError(t, err)
	assert.Equal(t, InAuth, ev.Type)
	assert.Equal(t, "alice", ev.DisplayName, "display name is trimmed")
	assert.Equal(t, "seed-1", ev.AvatarSeed)
	assert.Equal(t, "uid-1", ev.UID)
}

func TestParseInboundRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":              `{`,
		"unknown type":          `{"type":"frobnicate"}`,
		"missing type":          `{"body":"hi"}`,
		"auth without name":     `{"type":"auth"}`,
		"auth blank name":       `{"type":"auth","displayName":"   "}`,
		"join without room":     `{"type":"join-room"}`,
		"message without body":  `{"type":"message"}`,
		"message blank body":    `{"type":"message","body":"  "}`,
		"message system kind":   `{"type":"message","body":"hi","kind":"system"}`,
		"message unknown kind":  `{"type":"message","body":"hi","kind":"video"}`,
		"delete without id":     `{"type":"delete-message"}`,
		"create without name":   `{"type":"create-room","name":" "}`,
		"signal without signal": `{"type":"call-signal"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInbound([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestParseInboundMessageDefaultsToText(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"message","body":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, KindText, ev.Kind)

	ev, err = ParseInbound([]byte(`{"type":"message","body":"blob","kind":"file","expiring":true}`))
	require.NoError(t, err)
	assert.Equal(t, KindFile, ev.Kind)
	assert.True(t, ev.Expiring)
}

func TestParseInboundTyping(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"typing","isTyping":true}`))
	require.NoError(t, err)
	assert.True(t, ev.IsTyping)

	ev, err = ParseInbound([]byte(`{"type":"typing"}`))
	require.NoError(t, err)
	assert.False(t, ev.IsTyping)
}

func TestParseInboundCallSignalOpaque(t *testing.T) {
	ev, err := ParseInbound([]byte(`{"type":"call-signal","signal":{"sdp":"offer","nested":[1,2,3]}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"sdp":"offer","nested":[1,2,3]}`, string(ev.Signal))
}

func TestMessageEventPicksSystemType(t *testing.T) {
	out := MessageEvent(Message{ID: "m1", Kind: KindText})
	assert.Equal(t, OutMessage, out.Type)

	out = MessageEvent(Message{ID: "m2", Kind: KindSystem})
	assert.Equal(t, OutSystemMessage, out.Type)
}
