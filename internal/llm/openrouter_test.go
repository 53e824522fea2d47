package llm

import "testing"

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantID  string
		wantErr bool
	}{
		{"default base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "google/gemini-2.5-flash"}, "google/gemini-2.5-flash", false},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4o", BaseURL: "https://router.example/v1"}, "openai/gpt-4o", false},
		{"empty API key", OpenRouterConfig{Model: "google/gemini-2.5-flash"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.ModelID() != tt.wantID {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.wantID)
			}
		})
	}
}
