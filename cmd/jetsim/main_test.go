package main

import (
	"slices"
	"testing"
)

func TestChannelFlagDefaultsPerCommand(t *testing.T) {
	root := newRootCmd()

	parse := func(name string, args ...string) {
		t.Helper()
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("parse %s flags: %v", name, err)
		}
	}

	parse("analyze")
	if analyzeChannel != "pressure" {
		t.Errorf("analyze default channel = %q, want pressure", analyzeChannel)
	}

	parse("plot", "--channel", "z,u_exit")
	if !slices.Equal(plotChannels, []string{"z", "u_exit"}) {
		t.Errorf("plot channels = %v", plotChannels)
	}
	if analyzeChannel != "pressure" {
		t.Errorf("plot flags leaked into analyze: %q", analyzeChannel)
	}
	if !slices.Equal(renderChannels, []string{"x", "z", "pressure", "thrust"}) {
		t.Errorf("render channels = %v", renderChannels)
	}
}
