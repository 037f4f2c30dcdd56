package imapsession

import (
	"reflect"
	"testing"
)

func TestPartNumberPathSingle(t *testing.T) {
	got := partNumberPath("1")
	want := []int{1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPartNumberPathDotted(t *testing.T) {
	got := partNumberPath("1.2.10")
	want := []int{1, 2, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
