package pubsub

import (
	"testing"

	"github.com/angelmondragon/loomworks-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "loom-prod"}

	tests := []struct {
		got  string
		want string
	}{
		{got: c.topicResourceName("production-events"), want: "projects/loom-prod/topics/production-events"},
		{got: c.topicResourceName("projects/other/topics/x"), want: "projects/other/topics/x"},
		{got: c.subscriptionResourceName(" inventory-sub "), want: "projects/loom-prod/subscriptions/inventory-sub"},
		{got: c.topicResourceName(""), want: ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q want %q", tt.got, tt.want)
		}
	}

	var nilClient *Client
	if nilClient.topicResourceName("x") != "" {
		t.Fatal("nil client should produce empty names")
	}
}

func TestConfiguredNamesSkipBlanks(t *testing.T) {
	cfg := config.PubSubConfig{ProductionTopic: "prod", InventoryTopic: " ", ProductionSubscription: "prod-sub"}
	if got := topicNames(cfg); len(got) != 1 || got[0] != "prod" {
		t.Fatalf("unexpected topics %v", got)
	}
	if got := subscriptionNames(cfg); len(got) != 1 || got[0] != "prod-sub" {
		t.Fatalf("unexpected subscriptions %v", got)
	}
}

func TestNilClientPublisher(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil {
		t.Fatal("nil client should return nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close nil client: %v", err)
	}
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	if got := clientOptions(config.GCPConfig{}); len(got) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(got))
	}
	both := config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/secrets/sa.json"}
	if got := clientOptions(both); len(got) != 1 {
		t.Fatalf("expected a single credentials option, got %d", len(got))
	}
	if got := clientOptions(config.GCPConfig{ApplicationCredentials: "/secrets/sa.json"}); len(got) != 1 {
		t.Fatalf("expected file credentials option, got %d", len(got))
	}
}
