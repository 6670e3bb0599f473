package core

import (
	"sync"
	"testing"
)

func TestRepoContextSetGet(t *testing.T) {
	rc := NewRepoContext()
	if rc.Cloned() {
		t.Fatal("fresh context must not report a clone")
	}

	rc.Set(RepoInfo{Path: "/tmp/demo", Name: "demo", URL: "https://github.com/acme/demo"})
	got := rc.Get()
	if got.Path != "/tmp/demo" || got.Name != "demo" || got.URL != "https://github.com/acme/demo" {
		t.Fatalf("unexpected repo info: %+v", got)
	}
	if !rc.Cloned() {
		t.Fatal("expected Cloned after Set")
	}
}

func TestRepoContextConcurrentWriters(t *testing.T) {
	rc := NewRepoContext()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.Set(RepoInfo{Path: "/tmp/demo", Name: "demo", URL: "u"})
			_ = rc.Get()
		}()
	}
	wg.Wait()

	if rc.Get().Name != "demo" {
		t.Fatalf("unexpected winner: %+v", rc.Get())
	}
}
