package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Matches(t *testing.T) {
	cases := []struct {
		keyword string
		text    string
		want    bool
	}{
		{"price", "what is the price?", true},
		{"PRICE", "what is the price?", true},
		{"price", "prices please", true},
		{"price", "how much", false},
		{"", "anything", false},
	}
	for _, tc := range cases {
		r := Rule{Keyword: tc.keyword}
		assert.Equal(t, tc.want, r.Matches(tc.text), "%q in %q", tc.keyword, tc.text)
	}
}

func TestRule_Tags(t *testing.T) {
	r := Rule{Actions: []Action{
		{Type: ActionAddTag, Value: "lead"},
		{Type: "notify", Value: "ignored"},
		{Type: ActionAddTag, Value: ""},
		{Type: ActionAddTag, Value: "vip"},
	}}
	assert.Equal(t, []string{"lead", "vip"}, r.Tags())
	assert.Nil(t, (&Rule{}).Tags())
}

func TestMessagingEvent_HasText(t *testing.T) {
	cases := []struct {
		name string
		ev   MessagingEvent
		want bool
	}{
		{"text", MessagingEvent{Sender: Participant{ID: "U1"}, Message: &InboundMessage{Text: "hi"}}, true},
		{"echo", MessagingEvent{Sender: Participant{ID: "U1"}, Message: &InboundMessage{Text: "hi", IsEcho: true}}, false},
		{"no message", MessagingEvent{Sender: Participant{ID: "U1"}}, false},
		{"empty text", MessagingEvent{Sender: Participant{ID: "U1"}, Message: &InboundMessage{}}, false},
		{"no sender", MessagingEvent{Message: &InboundMessage{Text: "hi"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ev.HasText())
		})
	}
}

func TestWebhookEvent_Supported(t *testing.T) {
	assert.True(t, (&WebhookEvent{Object: ObjectPage}).Supported())
	assert.True(t, (&WebhookEvent{Object: ObjectInstagram}).Supported())
	assert.False(t, (&WebhookEvent{Object: "whatsapp_business_account"}).Supported())
}

func TestAccountResponse_HidesSecrets(t *testing.T) {
	a := &Account{ID: "a1", PageID: "p1", AccessToken: "tok", WebhookSecret: "whsec_value"}
	raw, err := json.Marshal(NewAccountResponse(a))
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "tok")
	assert.NotContains(t, body, "whsec_value")
	assert.Contains(t, body, `"has_webhook_secret":true`)
	assert.Contains(t, body, `"page_id":"p1"`)
}

func TestContact_HasTag(t *testing.T) {
	c := Contact{Tags: []string{"lead"}}
	assert.True(t, c.HasTag("lead"))
	assert.False(t, c.HasTag("Lead"))
}
