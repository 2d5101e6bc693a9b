package vk

import (
	"encoding/json"
	"testing"
)

func TestParseUsers(t *testing.T) {
	body := `[{
		"id": 1,
		"first_name": "Pavel",
		"last_name": "Durov",
		"screen_name": "durov",
		"sex": 2,
		"home_town": "",
		"city": {"id": 2, "title": "Saint Petersburg"},
		"can_access_closed": true,
		"is_closed": false
	}]`

	users, err := parseUsers(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	u := users[0]
	if u.ID != 1 {
		t.Fatalf("expected ID 1, got %d", u.ID)
	}
	if u.ScreenName != "durov" {
		t.Fatalf("expected screen name durov, got %s", u.ScreenName)
	}
	if u.DisplayName != "Pavel Durov" {
		t.Fatalf("expected display name Pavel Durov, got %s", u.DisplayName)
	}
	if u.Sex != SexMale {
		t.Fatalf("expected male, got %s", u.Sex)
	}
	if u.HomeTown != "Saint Petersburg" {
		t.Fatalf("expected city fallback for home town, got %q", u.HomeTown)
	}
}

func TestParseUsers_Deactivated(t *testing.T) {
	body := `[{"id": 7, "first_name": "DELETED", "last_name": "", "deactivated": "deleted", "sex": 9}]`

	users, err := parseUsers(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	if users[0].Deactivated != "deleted" {
		t.Fatalf("expected deactivated=deleted, got %q", users[0].Deactivated)
	}
	if users[0].Sex != SexUnknown {
		t.Fatalf("expected unknown sex for out-of-range code, got %s", users[0].Sex)
	}
	if users[0].DisplayName != "DELETED" {
		t.Fatalf("expected trimmed display name, got %q", users[0].DisplayName)
	}
}

func TestParseUsers_Empty(t *testing.T) {
	users, err := parseUsers(json.RawMessage(`[]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestParseFollowers(t *testing.T) {
	ids, err := parseFollowers(json.RawMessage(`{"count": 3, "items": [2, 3, 5]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[2] != 5 {
		t.Fatalf("unexpected ids %v", ids)
	}

	// With fields requested, items are objects.
	ids, err = parseFollowers(json.RawMessage(`{"count": 1, "items": [{"id": 42, "first_name": "A"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestParseFollowers_SkipsNonPositiveIDs(t *testing.T) {
	ids, err := parseFollowers(json.RawMessage(`{"count": 5, "items": [0, 7, {"first_name": "NoID"}, {"id": 0}, {"id": 9}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 9 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestParseSubscriptions_Extended(t *testing.T) {
	body := `{"count": 4, "items": [
		{"id": 10, "name": "Group Ten", "screen_name": "club10", "type": "page"},
		{"id": 4, "first_name": "Ann", "last_name": "Lee", "type": "profile"},
		{"id": 11, "name": "No Type Group"},
		{"id": 12, "first_name": "Bob", "last_name": "Ray"}
	]}`

	subs, err := parseSubscriptions(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 4 {
		t.Fatalf("expected 4 subscriptions, got %d", len(subs))
	}
	want := []struct {
		id   NodeID
		kind SubjectKind
		name string
	}{
		{10, SubjectGroup, "Group Ten"},
		{4, SubjectUser, "Ann Lee"},
		{11, SubjectGroup, "No Type Group"},
		{12, SubjectUser, "Bob Ray"},
	}
	for i, w := range want {
		if subs[i].ID != w.id || subs[i].Kind != w.kind || subs[i].Name != w.name {
			t.Fatalf("sub %d = %+v, want %+v", i, subs[i], w)
		}
	}
	if subs[0].ScreenName != "club10" {
		t.Fatalf("expected screen name club10, got %q", subs[0].ScreenName)
	}
}

func TestParseSubscriptions_Plain(t *testing.T) {
	body := `{"users": {"count": 1, "items": [4]}, "groups": {"count": 2, "items": [10, 20]}}`

	subs, err := parseSubscriptions(json.RawMessage(body))
	if err != nil {
		t.Fatal(err)
	}
	p := &UserProfile{Subscriptions: subs}
	if users := p.UserSubscriptions(); len(users) != 1 || users[0] != 4 {
		t.Fatalf("unexpected user subscriptions %v", users)
	}
	if groups := p.GroupSubscriptions(); len(groups) != 2 || groups[1].ID != 20 {
		t.Fatalf("unexpected group subscriptions %v", groups)
	}
}

func TestParseSubscriptions_SkipsUnclassifiable(t *testing.T) {
	subs, err := parseSubscriptions(json.RawMessage(`{"count": 2, "items": [{"id": 3}, {"id": 0, "name": "x"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no subscriptions, got %v", subs)
	}
}
