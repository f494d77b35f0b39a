package atproto

import "testing"

func TestParseATURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    ParsedATURI
		wantErr bool
	}{
		{
			name: "post uri",
			uri:  "at://did:plc:abc123/app.bsky.feed.post/3kxyz",
			want: ParsedATURI{DID: "did:plc:abc123", Collection: "app.bsky.feed.post", RKey: "3kxyz"},
		},
		{
			name: "follow uri",
			uri:  "at://did:plc:a/app.bsky.graph.follow/3k1",
			want: ParsedATURI{DID: "did:plc:a", Collection: "app.bsky.graph.follow", RKey: "3k1"},
		},
		{
			name:    "missing scheme",
			uri:     "did:plc:abc/app.bsky.feed.post/3k",
			wantErr: true,
		},
		{
			name:    "missing rkey",
			uri:     "at://did:plc:abc/app.bsky.feed.post",
			wantErr: true,
		},
		{
			name:    "empty",
			uri:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseATURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseATURI(%q) succeeded, want error", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseATURI(%q) failed: %v", tt.uri, err)
			}
			if got != tt.want {
				t.Errorf("ParseATURI(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
		})
	}
}

func TestDIDFromATURI(t *testing.T) {
	if did := DIDFromATURI("at://did:plc:xyz/app.bsky.feed.post/1"); did != "did:plc:xyz" {
		t.Errorf("DIDFromATURI = %q, want did:plc:xyz", did)
	}
	if did := DIDFromATURI("garbage"); did != "" {
		t.Errorf("DIDFromATURI(garbage) = %q, want empty", did)
	}
}
