package storage

import (
	"testing"
)

func TestMemoryDB_PutGetDelete(t *testing.T) {
	db := NewMemory()

	if _, err := db.Get([]byte("missing")); err == nil {
		t.Error("Get on missing key should error")
	}

	if err := db.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, err := db.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "v1" {
		t.Errorf("Get = %q, want %q", v, "v1")
	}

	has, err := db.Has([]byte("k1"))
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("Has should be true after Put")
	}

	if err := db.Delete([]byte("k1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	has, err = db.Has([]byte("k1"))
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Error("Has should be false after Delete")
	}
}

func TestMemoryDB_ForEach_PrefixAndOrder(t *testing.T) {
	db := NewMemory()
	pairs := map[string]string{
		"a/1": "one",
		"a/2": "two",
		"b/1": "other",
	}
	for k, v := range pairs {
		if err := db.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	var keys []string
	err := db.ForEach([]byte("a/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a/1" || keys[1] != "a/2" {
		t.Errorf("ForEach keys = %v, want [a/1 a/2]", keys)
	}
}

func TestMemoryDB_ForEach_EarlyStop(t *testing.T) {
	db := NewMemory()
	for _, k := range []string{"p/1", "p/2", "p/3"} {
		if err := db.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	count := 0
	stop := func(key, value []byte) error {
		count++
		if count == 2 {
			return errStop
		}
		return nil
	}
	if err := db.ForEach([]byte("p/"), stop); err != errStop {
		t.Errorf("ForEach should surface the stop error, got %v", err)
	}
	if count != 2 {
		t.Errorf("callback ran %d times, want 2", count)
	}
}

var errStop = errTest("stop")

type errTest string

func (e errTest) Error() string { return string(e) }
