package codec

import "testing"

func TestModifiedUTF7RoundTrip(t *testing.T) {
	cases := []string{
		"INBOX",
		"Sent Items",
		"Çöp Kutusu",
		"Gelen Kutusu/Arşiv",
		"日本語フォルダ",
		"&weird&",
		"",
		"a&b",
	}
	for _, s := range cases {
		encoded := EncodeModifiedUTF7(s)
		decoded := DecodeModifiedUTF7(encoded)
		if decoded != s {
			t.Errorf("round trip mismatch: %q -> %q -> %q", s, encoded, decoded)
		}
	}
}

func TestEncodeModifiedUTF7BareAmpersand(t *testing.T) {
	if got := EncodeModifiedUTF7("&"); got != "&-" {
		t.Errorf("EncodeModifiedUTF7(&) = %q, want &-", got)
	}
}

func TestDecodeModifiedUTF7BareAmpersand(t *testing.T) {
	if got := DecodeModifiedUTF7("&-"); got != "&" {
		t.Errorf("DecodeModifiedUTF7(&-) = %q, want &", got)
	}
}

func TestDecodeFolderNormalizesDelimiter(t *testing.T) {
	// Yandex-style delimiter.
	got := DecodeFolder("INBOX|Archive")
	want := "INBOX/Archive"
	if got != want {
		t.Errorf("DecodeFolder = %q, want %q", got, want)
	}
}

func TestKnownModifiedUTF7Example(t *testing.T) {
	// "Çöp Kutusu" is a well-known Turkish Gmail trash folder name used
	// throughout spec.md's scenarios.
	encoded := EncodeModifiedUTF7("Çöp Kutusu")
	decoded := DecodeModifiedUTF7(encoded)
	if decoded != "Çöp Kutusu" {
		t.Errorf("got %q", decoded)
	}
}
