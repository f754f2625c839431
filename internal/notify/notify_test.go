package notify

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nextrack/nextrack/internal/models"
	"github.com/nextrack/nextrack/internal/workload"
	slackapi "github.com/slack-go/slack"
)

// mockSlack records PostMessage calls and fails the first failN of them.
type mockSlack struct {
	calls    int
	failN    int
	failWith error
	channels []string
}

func (m *mockSlack) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	m.channels = append(m.channels, channelID)
	if m.calls <= m.failN {
		return "", "", m.failWith
	}
	return channelID, "1.0", nil
}

// mockDiscord records embed sends and fails the first failN of them.
type mockDiscord struct {
	calls    int
	failN    int
	failWith error
	embeds   []*discordgo.MessageEmbed
}

func (m *mockDiscord) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.calls++
	if m.calls <= m.failN {
		return nil, m.failWith
	}
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, nil
}

func sampleEvent() Event {
	return Event{
		Title: "Workload critical: Dana",
		Body:  "assignee is overcommitted",
		Color: ColorCritical,
		Fields: []Field{
			{Name: "Task", Value: "Ship billing", Short: true},
			{Name: "Utilization", Value: "105.0%", Short: true},
		},
	}
}

func TestNewSlack_Validation(t *testing.T) {
	if _, err := NewSlack(SlackOpts{ChannelID: "C1"}); err == nil {
		t.Error("expected error without token or client")
	}
	if _, err := NewSlack(SlackOpts{Client: &mockSlack{}}); err == nil {
		t.Error("expected error without channel")
	}
}

func TestSlackSend(t *testing.T) {
	mock := &mockSlack{}
	n, err := NewSlack(SlackOpts{ChannelID: "C1", Client: mock})
	if err != nil {
		t.Fatalf("NewSlack: %v", err)
	}

	if err := n.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.calls != 1 || mock.channels[0] != "C1" {
		t.Errorf("calls = %d to %v, want 1 to C1", mock.calls, mock.channels)
	}
}

func TestSlackSend_RetriesRateLimit(t *testing.T) {
	mock := &mockSlack{
		failN:    2,
		failWith: &slackapi.RateLimitedError{RetryAfter: time.Millisecond},
	}
	n, _ := NewSlack(SlackOpts{ChannelID: "C1", Client: mock})

	if err := n.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.calls != 3 {
		t.Errorf("calls = %d, want 3 (two rate-limited attempts)", mock.calls)
	}
}

func TestSlackSend_NonRateLimitNotRetried(t *testing.T) {
	mock := &mockSlack{failN: 10, failWith: fmt.Errorf("channel_not_found")}
	n, _ := NewSlack(SlackOpts{ChannelID: "C1", Client: mock})

	if err := n.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on hard errors)", mock.calls)
	}
}

func TestDiscordSend(t *testing.T) {
	mock := &mockDiscord{}
	n, err := NewDiscord(DiscordOpts{ChannelID: "D1", Session: mock})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}

	if err := n.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(mock.embeds))
	}
	embed := mock.embeds[0]
	if embed.Title != "Workload critical: Dana" {
		t.Errorf("Title = %q", embed.Title)
	}
	if embed.Color != 0xd32f2f {
		t.Errorf("Color = %#x, want 0xd32f2f", embed.Color)
	}
	if len(embed.Fields) != 2 || embed.Fields[1].Value != "105.0%" {
		t.Errorf("Fields = %+v", embed.Fields)
	}
}

func TestDiscordSend_RetriesRateLimit(t *testing.T) {
	mock := &mockDiscord{
		failN: 1,
		failWith: &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusTooManyRequests},
		},
	}
	n, _ := NewDiscord(DiscordOpts{ChannelID: "D1", Session: mock})

	if err := n.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("calls = %d, want 2", mock.calls)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"36a64f", 0x36a64f},
		{"#D32F2F", 0xd32f2f},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseHexColor(tc.in); got != tc.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestFanout(t *testing.T) {
	ok := &mockSlack{}
	bad := &mockSlack{failN: 10, failWith: fmt.Errorf("down")}
	a, _ := NewSlack(SlackOpts{ChannelID: "C1", Client: ok})
	b, _ := NewSlack(SlackOpts{ChannelID: "C2", Client: bad})

	f := NewFanout(b, a)
	if f.Len() != 2 {
		t.Errorf("Len = %d, want 2", f.Len())
	}

	err := f.Send(context.Background(), sampleEvent())
	if err == nil {
		t.Error("expected error surfaced from failing destination")
	}
	if ok.calls != 1 {
		t.Error("healthy destination skipped after a failure")
	}
}

func TestWorkloadEvent(t *testing.T) {
	task := &models.Task{Name: "Ship billing", PlannedHours: 10}
	eval := &workload.Evaluation{
		Warnings: []string{"assignee is overcommitted"},
		Level:    workload.LevelCritical,
		Snapshot: workload.Snapshot{UtilizationPct: 105, AvailableHours: -2},
	}

	evt := WorkloadEvent(task, "Dana", eval)
	if evt.Color != ColorCritical {
		t.Errorf("Color = %q, want critical red", evt.Color)
	}
	if evt.Title != "Workload critical: Dana" {
		t.Errorf("Title = %q", evt.Title)
	}
	if len(evt.Fields) != 4 {
		t.Errorf("Fields = %+v, want 4", evt.Fields)
	}

	eval.Level = workload.LevelHigh
	if evt := WorkloadEvent(task, "Dana", eval); evt.Color != ColorHigh {
		t.Errorf("high level should use the yellow color, got %q", evt.Color)
	}
}

func TestBlockedEvent(t *testing.T) {
	task := &models.Task{Name: "Fix CSV export"}
	evt := BlockedEvent(task, "Arlo", "waiting on API credentials")
	if evt.Body != "waiting on API credentials" {
		t.Errorf("Body = %q", evt.Body)
	}
	if evt.Title != "Task blocked: Fix CSV export" {
		t.Errorf("Title = %q", evt.Title)
	}
}
