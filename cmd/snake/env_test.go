package main

import "testing"

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SNAKE_TEST_STR", "wrap")
	t.Setenv("SNAKE_TEST_INT", "25")
	t.Setenv("SNAKE_TEST_BAD", "abc")
	t.Setenv("SNAKE_TEST_BOOL", "yes")

	if got := getEnvOrDefault("SNAKE_TEST_STR", "x"); got != "wrap" {
		t.Fatalf("str=%q", got)
	}
	if got := getEnvOrDefault("SNAKE_TEST_MISSING", "x"); got != "x" {
		t.Fatalf("missing=%q", got)
	}
	if got := getEnvIntOrDefault("SNAKE_TEST_INT", 1); got != 25 {
		t.Fatalf("int=%d", got)
	}
	if got := getEnvIntOrDefault("SNAKE_TEST_BAD", 7); got != 7 {
		t.Fatalf("bad int=%d want=7", got)
	}
	if got := getEnvInt64OrDefault("SNAKE_TEST_INT", 0); got != 25 {
		t.Fatalf("int64=%d", got)
	}
	if !getEnvBoolOrDefault("SNAKE_TEST_BOOL", false) {
		t.Fatalf("bool should be true")
	}
	if getEnvBoolOrDefault("SNAKE_TEST_MISSING", false) {
		t.Fatalf("missing bool should use default")
	}
}
