package sanitize

import (
	"reflect"
	"testing"
)

func TestTableNames(t *testing.T) {
	got := TableNames(" cases, uploads,,cases;drop table users,1bad,_tmp ")
	want := []string{"cases", "uploads", "_tmp"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TableNames = %v want %v", got, want)
	}
	if n := len(TableNames(DefaultTables)); n != 6 {
		t.Fatalf("default tables should all be valid, got %d", n)
	}
}
