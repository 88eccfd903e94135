package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestLoadListsFallbackFirst(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	langs := c.Languages()
	if len(langs) != 2 {
		t.Fatalf("languages = %v", langs)
	}
	if langs[0] != language.English {
		t.Fatalf("first language = %v, want en", langs[0])
	}
}

func TestLoadRejectsUnknownFallback(t *testing.T) {
	if _, err := Load("fr"); err == nil {
		t.Fatal("expected error for fallback without a catalog")
	}
}

func TestResolveMergesFallback(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tag, table := c.Resolve("id")
	if tag != language.Indonesian {
		t.Fatalf("tag = %v", tag)
	}
	if table["login.title"] != "Masuk" {
		t.Fatalf("login.title = %q", table["login.title"])
	}
	// id.json has no reset.sender_identity; the English value fills in.
	if table["reset.sender_identity"] != "Email service is misconfigured. Try again later." {
		t.Fatalf("fallback not applied: %q", table["reset.sender_identity"])
	}
}

func TestResolveUnknownLanguageFallsBack(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, table := c.Resolve("de-DE")
	if table["login.title"] != "Sign in" {
		t.Fatalf("login.title = %q", table["login.title"])
	}
}

func TestResolveRegionalVariant(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, table := c.Resolve("id-ID")
	if table["login.title"] != "Masuk" {
		t.Fatalf("regional variant not matched: %q", table["login.title"])
	}
}

func TestLookup(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.Lookup("id", "reset.sender_identity"); got != "Email service is misconfigured. Try again later." {
		t.Fatalf("lookup fallback = %q", got)
	}
	if got := c.Lookup("id", "profile.saved"); got != "Profil diperbarui" {
		t.Fatalf("lookup = %q", got)
	}
}
