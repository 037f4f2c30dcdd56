package imapsession

import (
	"reflect"
	"testing"

	"github.com/bberkay/open-mail/internal/errs"
)

func TestParseSequenceSetCommaAndRange(t *testing.T) {
	got, err := ParseSequenceSet("1,3:5", 10, false)
	if err != nil {
		t.Fatalf("ParseSequenceSet error = %v", err)
	}
	want := []uint32{1, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseSequenceSetWildcardRange(t *testing.T) {
	got, err := ParseSequenceSet("8:*", 10, false)
	if err != nil {
		t.Fatalf("ParseSequenceSet error = %v", err)
	}
	want := []uint32{8, 9, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseSequenceSetBareWildcardRejectedByDefault(t *testing.T) {
	_, err := ParseSequenceSet("1:*", 10, false)
	if !errs.Is(err, errs.Validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseSequenceSetDedupsAndSorts(t *testing.T) {
	got, err := ParseSequenceSet("5,1,3:4,1", 10, false)
	if err != nil {
		t.Fatalf("ParseSequenceSet error = %v", err)
	}
	want := []uint32{1, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidateAgainstSearchRejectsUnknownUID(t *testing.T) {
	_, err := ValidateAgainstSearch("1,99", []uint32{1, 3, 5})
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestValidateAgainstSearchAccepts(t *testing.T) {
	got, err := ValidateAgainstSearch("1,3:5", []uint32{1, 3, 4, 5, 9})
	if err != nil {
		t.Fatalf("ValidateAgainstSearch error = %v", err)
	}
	want := []uint32{1, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
