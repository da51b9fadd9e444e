package env

import "testing"

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("LOOMWORKS_TEST_VALUE", "   ")
	if got := Get("LOOMWORKS_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("LOOMWORKS_TEST_VALUE", "json")
	if got := Get("LOOMWORKS_TEST_VALUE", "fallback"); got != "json" {
		t.Fatalf("expected json, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("LOOMWORKS_TEST_FLAG", "true")
	if !Bool("LOOMWORKS_TEST_FLAG", false) {
		t.Fatal("expected true")
	}
	t.Setenv("LOOMWORKS_TEST_FLAG", "nope")
	if Bool("LOOMWORKS_TEST_FLAG", false) {
		t.Fatal("malformed value should use fallback")
	}
}
