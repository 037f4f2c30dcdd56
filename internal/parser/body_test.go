package parser

import (
	"encoding/base64"
	"testing"
)

func samplePartsAndBodies() ([]Part, PartBytes) {
	parts := []Part{
		{Number: "1", ContentType: "text/plain", Encoding: "7bit", Params: map[string]string{"charset": "utf-8"}},
		{Number: "2", ContentType: "text/html", Encoding: "7bit", Params: map[string]string{"charset": "utf-8"}},
	}
	bodies := PartBytes{
		"1": []byte("plain body"),
		"2": []byte("<p>html body</p>"),
	}
	return parts, bodies
}

func TestGetTextPlainAndHTMLBody(t *testing.T) {
	parts, bodies := samplePartsAndBodies()
	if got := GetTextPlainBody(parts, bodies); got != "plain body" {
		t.Errorf("GetTextPlainBody = %q", got)
	}
	if got := GetTextHTMLBody(parts, bodies); got != "<p>html body</p>" {
		t.Errorf("GetTextHTMLBody = %q", got)
	}
}

func TestGetEmailContentBodyPrefersHTML(t *testing.T) {
	parts, bodies := samplePartsAndBodies()
	if got := GetEmailContentBody(parts, bodies); got != "<p>html body</p>" {
		t.Errorf("GetEmailContentBody = %q, want html part", got)
	}
}

func TestGetPreviewBodyPrefersPlain(t *testing.T) {
	parts, bodies := samplePartsAndBodies()
	if got := GetPreviewBody(parts, bodies); got != "plain body" {
		t.Errorf("GetPreviewBody = %q, want plain part", got)
	}
}

func TestGetPreviewBodyFallsBackToHTML(t *testing.T) {
	parts := []Part{{Number: "2", ContentType: "text/html", Encoding: "7bit"}}
	bodies := PartBytes{"2": []byte("<p>only html</p>")}
	got := GetPreviewBody(parts, bodies)
	if got != "only html" {
		t.Errorf("GetPreviewBody fallback = %q, want stripped html text", got)
	}
}

func TestTruncateBodyShort(t *testing.T) {
	if got := TruncateBodyShort(""); got != "No Content" {
		t.Errorf("TruncateBodyShort(empty) = %q, want No Content", got)
	}
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'a'
	}
	got := TruncateBodyShort(string(long))
	if len([]rune(got)) != 100 {
		t.Errorf("TruncateBodyShort length = %d, want 100", len([]rune(got)))
	}
}

func TestInlineResolutionAndDataURIs(t *testing.T) {
	html := `<p>hi</p><img src="cid:image1">`
	raw := []byte("fake-png-bytes")
	inline := []Part{{Number: "4", ContentID: "image1", ContentType: "image/png", Encoding: "7bit", Disposition: "inline"}}
	bodies := PartBytes{"4": raw}

	resolved := ResolveInlineImagesToDataURIs(html, inline, bodies)
	wantData := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	if resolved != `<p>hi</p><img src="`+wantData+`">` {
		t.Errorf("ResolveInlineImagesToDataURIs = %q", resolved)
	}
}

func TestGetInlineAttachmentSourcesNoMatch(t *testing.T) {
	got := GetInlineAttachmentSources("<p>no images here</p>")
	if len(got) != 0 {
		t.Errorf("expected no sources, got %+v", got)
	}
}
