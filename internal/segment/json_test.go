package segment

import "testing"

func TestParseOutreach(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSubject string
		wantEmail   string
	}{
		{
			name:        "plain json",
			raw:         `{"subject":"99.7% fraud detection","email":"Hi Milan, ..."}`,
			wantSubject: "99.7% fraud detection",
			wantEmail:   "Hi Milan, ...",
		},
		{
			name:        "body alias",
			raw:         `{"subject":"Hello","body":"email text"}`,
			wantSubject: "Hello",
			wantEmail:   "email text",
		},
		{
			name:        "fenced json",
			raw:         "```json\n{\"subject\":\"S\",\"email\":\"E\"}\n```",
			wantSubject: "S",
			wantEmail:   "E",
		},
		{
			name:        "fence without language",
			raw:         "```\n{\"subject\":\"S\",\"email\":\"E\"}\n```",
			wantSubject: "S",
			wantEmail:   "E",
		},
		{
			name:      "invalid json falls back to raw body",
			raw:       "Sorry, here is the email instead: Hi Milan...",
			wantEmail: "Sorry, here is the email instead: Hi Milan...",
		},
		{
			name:      "valid json wrong shape falls back to raw",
			raw:       `{"unrelated":"value"}`,
			wantEmail: `{"unrelated":"value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutreach(tt.raw)
			if got.Subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", got.Subject, tt.wantSubject)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("email = %q, want %q", got.Email, tt.wantEmail)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
