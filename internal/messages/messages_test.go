package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncomingMessage(t *testing.T) {
	msg := NewIncomingMessage("hi", "s1", "u1", nil)

	assert.NotEmpty(t, msg.ID())
	assert.Equal(t, "hi", msg.Text())
	assert.Equal(t, "s1", msg.Sender())
	assert.Equal(t, "u1", msg.Recipient())
	assert.NotNil(t, msg.Payload())
	assert.NotNil(t, msg.Images())
	assert.NotNil(t, msg.Audio())
	assert.NotNil(t, msg.Videos())
	assert.NotNil(t, msg.Files())
	assert.False(t, msg.HasAttachments())

	other := NewIncomingMessage("hi", "s1", "u1", nil)
	assert.NotEqual(t, msg.ID(), other.ID())
}

func TestIncomingMessage_Extras(t *testing.T) {
	msg := NewIncomingMessage("", "", "", nil)
	assert.Nil(t, msg.Extra("missing"))

	msg.SetExtra("intent", "greet")
	assert.Equal(t, "greet", msg.Extra("intent"))
	assert.Equal(t, map[string]any{"intent": "greet"}, msg.Extras())
}

func TestIncomingMessage_SetAttachments(t *testing.T) {
	kinds := map[AttachmentKind]string{
		KindImage: ImagePattern,
		KindAudio: AudioPattern,
		KindVideo: VideoPattern,
		KindFile:  FilePattern,
	}

	for kind, pattern := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			msg := NewIncomingMessage("original", "s", "u", nil)
			ok := msg.SetAttachments(kind, []Attachment{NewAttachment(kind, "data:;base64,")})
			require.True(t, ok)
			assert.Equal(t, pattern, msg.Text())
			assert.Len(t, msg.Attachments(kind), 1)
			assert.True(t, msg.HasAttachments())
		})
	}

	msg := NewIncomingMessage("original", "s", "u", nil)
	assert.False(t, msg.SetAttachments(KindLocation, []Attachment{NewLocation(1, 2)}))
	assert.Equal(t, "original", msg.Text())
	assert.Nil(t, msg.Attachments(KindLocation))

	assert.True(t, msg.SetAttachments(KindImage, nil))
	assert.Equal(t, ImagePattern, msg.Text())
	assert.NotNil(t, msg.Images())
	assert.False(t, msg.HasAttachments())
}

func TestParseUploadKind(t *testing.T) {
	for _, raw := range []string{"image", "audio", "video", "file"} {
		kind, ok := ParseUploadKind(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, AttachmentKind(raw), kind)
	}
	for _, raw := range []string{"location", "IMAGE", "", "gif"} {
		_, ok := ParseUploadKind(raw)
		assert.False(t, ok, raw)
	}
}

func TestAttachmentKind_Pattern(t *testing.T) {
	assert.Equal(t, "%%%_IMAGE_%%%", KindImage.Pattern())
	assert.Equal(t, "%%%_LOCATION_%%%", KindLocation.Pattern())
	assert.Empty(t, AttachmentKind("sticker").Pattern())
}

func TestAttachment_ToWebDriver(t *testing.T) {
	assert.Equal(t, map[string]any{
		"type":  "video",
		"url":   "https://example.com/v.mp4",
		"title": "clip",
	}, NewVideo("https://example.com/v.mp4").WithTitle("clip").ToWebDriver())

	assert.Equal(t, map[string]any{
		"type":      "location",
		"latitude":  52.5,
		"longitude": 13.4,
	}, NewLocation(52.5, 13.4).ToWebDriver())
}

func TestOutgoingMessage(t *testing.T) {
	msg := NewOutgoingMessage("hello")
	assert.Equal(t, "hello", msg.Text())
	assert.Nil(t, msg.Attachment())

	msg.WithAttachment(NewFile("https://example.com/a.pdf"))
	require.NotNil(t, msg.Attachment())
	assert.Equal(t, KindFile, msg.Attachment().Kind)
}

func TestQuestion_ToWebDriver(t *testing.T) {
	q := NewQuestion("Continue?")
	q.Fallback = "Unable to ask"
	q.CallbackID = "continue"
	q.AddButtons(
		NewButton("Yes").WithValue("yes"),
		NewButton("No").WithImageURL("https://example.com/no.png"),
	)

	out := q.ToWebDriver()
	assert.Equal(t, "actions", out["type"])
	assert.Equal(t, "Continue?", out["text"])
	assert.Equal(t, "Unable to ask", out["fallback"])
	assert.Equal(t, "continue", out["callback_id"])

	actions := out["actions"].([]map[string]any)
	require.Len(t, actions, 2)
	assert.Equal(t, map[string]any{
		"name":       "Yes",
		"text":       "Yes",
		"image_url":  "",
		"type":       "button",
		"value":      "yes",
		"additional": map[string]any{},
	}, actions[0])
	assert.Equal(t, "No", actions[1]["value"])
	assert.Equal(t, "https://example.com/no.png", actions[1]["image_url"])

	var _ WebAccess = q
}
