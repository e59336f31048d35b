package agent

import "testing"

func TestDirectoryList(t *testing.T) {
	d := NewDirectory()
	got := d.List()
	if len(got) != 4 {
		t.Fatalf("List returned %d profiles, want 4", len(got))
	}

	wantOrder := []string{IDFrontend, IDBackend, IDIntegrations, IDArchitecture}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("List()[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}

	// The returned slice is a copy; callers cannot mutate the registry.
	got[0].ID = "mutated"
	if d.List()[0].ID != IDFrontend {
		t.Error("List exposed the underlying registry")
	}
}

func TestDirectoryGet(t *testing.T) {
	d := NewDirectory()
	p, ok := d.Get(IDIntegrations)
	if !ok {
		t.Fatal("Get(gemini-cli) not found")
	}
	if p.Specialization == "" || len(p.Skills) == 0 || len(p.PreferredTasks) == 0 {
		t.Error("profile is missing fields")
	}

	if _, ok := d.Get("unknown"); ok {
		t.Error("Get(unknown) should miss")
	}
}
