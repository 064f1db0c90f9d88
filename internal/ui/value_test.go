package ui

import (
	"reflect"
	"testing"
)

func TestCoercions(t *testing.T) {
	// Values restored from JSON arrive as float64/string/bool/[]any.
	if got := Int(float64(7)); got != 7 {
		t.Errorf("Int(float64) = %d", got)
	}
	if got := Int("12"); got != 12 {
		t.Errorf("Int(string) = %d", got)
	}
	if got := Float(3); got != 3.0 {
		t.Errorf("Float(int) = %v", got)
	}
	if got := String(float64(2.5)); got != "2.5" {
		t.Errorf("String(float64) = %q", got)
	}
	if got := Bool(float64(1)); !got {
		t.Error("Bool(1) should be true")
	}
	if got := Bool("true"); !got {
		t.Error(`Bool("true") should be true`)
	}
	if got := Strings([]any{"a", "b"}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Strings([]any) = %v", got)
	}
	if got := Strings(42); got != nil {
		t.Errorf("Strings(non-slice) = %v", got)
	}
	if got := Int(nil); got != 0 {
		t.Errorf("Int(nil) = %d", got)
	}
}
