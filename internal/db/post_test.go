package db

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "plain", title: "Studentvalget 2025", want: "studentvalget-2025"},
		{name: "norwegian letters", title: "Æresdoktor på Blindern", want: "aeresdoktor-pa-blindern"},
		{name: "punctuation", title: "  Hva nå, NTNU?  ", want: "hva-na-ntnu"},
		{name: "dashes collapse", title: "Kultur -- og -- natt", want: "kultur-og-natt"},
		{name: "only symbols", title: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.title)
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
