package mailer

import (
	"strings"
	"testing"
)

func TestRender_ContainsCredentials(t *testing.T) {
	subject, text, html, err := Render("Unisphere", Welcome{To: "ada@example.com", Username: "ada", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Welcome to Unisphere!" {
		t.Errorf("subject = %q", subject)
	}
	for _, body := range []string{text, html} {
		for _, want := range []string{"ada@example.com", "s3cret!", "ada"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	_, _, html, err := Render("Unisphere", Welcome{To: "x@example.com", Username: "<script>", Password: "p"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("username was not escaped in html body")
	}
}

func TestWelcomeString_OmitsPassword(t *testing.T) {
	s := Welcome{To: "x@example.com", Username: "x", Password: "hunter2"}.String()
	if strings.Contains(s, "hunter2") {
		t.Fatalf("String leaked password: %s", s)
	}
}
