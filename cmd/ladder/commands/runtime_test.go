package commands

import (
	"testing"

	"github.com/teranos/ladder/config"
)

func TestValidateTemplates(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		cover   string
		message string
		wantErr bool
	}{
		{"drafting disabled skips checks", false, "{unbalanced", "{also {bad}", false},
		{"well-formed templates", true, "Dear {company}, {skills}", "Hi {name}", false},
		{"empty templates", true, "", "", false},
		{"unbalanced cover template", true, "Dear {company", "Hi {name}", true},
		{"nested message template", true, "", "Hi {{name}}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Drafting.Enabled = tt.enabled
			cfg.Drafting.CoverTemplate = tt.cover
			cfg.Drafting.MessageTemplate = tt.message

			err := validateTemplates(cfg)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("validateTemplates: %v", err)
			}
		})
	}
}
