package vk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// rawUser is the users.get item shape.
type rawUser struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ScreenName  string `json:"screen_name"`
	Sex         int    `json:"sex"`
	HomeTown    string `json:"home_town"`
	Deactivated string `json:"deactivated"`
	City        *struct {
		Title string `json:"title"`
	} `json:"city"`
}

// parseUsers parses a users.get response into base profiles.
// Followers and subscriptions are left empty.
func parseUsers(body json.RawMessage) ([]*UserProfile, error) {
	var raw []rawUser
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal users.get: %w", err)
	}
	profiles := make([]*UserProfile, 0, len(raw))
	for _, u := range raw {
		if u.ID == 0 {
			continue
		}
		p := &UserProfile{
			ID:          NodeID(u.ID),
			ScreenName:  u.ScreenName,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
			Sex:         parseSex(u.Sex),
			HomeTown:    u.HomeTown,
			Deactivated: u.Deactivated,
		}
		if p.HomeTown == "" && u.City != nil {
			p.HomeTown = u.City.Title
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func parseSex(v int) Sex {
	switch Sex(v) {
	case SexFemale, SexMale:
		return Sex(v)
	}
	return SexUnknown
}

// idList is a VK {count, items} list whose items are bare IDs or objects
// carrying an "id" field. Items without a positive ID are dropped.
type idList struct {
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
}

func (l idList) ids() ([]NodeID, error) {
	ids := make([]NodeID, 0, len(l.Items))
	for _, item := range l.Items {
		var n int64
		if json.Unmarshal(item, &n) == nil {
			if n > 0 {
				ids = append(ids, NodeID(n))
			}
			continue
		}
		var obj struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("unmarshal list item: %w", err)
		}
		if obj.ID > 0 {
			ids = append(ids, NodeID(obj.ID))
		}
	}
	return ids, nil
}

// parseFollowers parses a users.getFollowers response.
func parseFollowers(body json.RawMessage) ([]NodeID, error) {
	var raw idList
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal users.getFollowers: %w", err)
	}
	return raw.ids()
}

// parseSubscriptions parses a users.getSubscriptions response. Both the
// extended form (one mixed item list) and the plain form (separate users
// and groups ID lists) are accepted.
func parseSubscriptions(body json.RawMessage) ([]Subscription, error) {
	var raw struct {
		Items  []json.RawMessage `json:"items"`
		Users  *idList           `json:"users"`
		Groups *idList           `json:"groups"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal users.getSubscriptions: %w", err)
	}

	var subs []Subscription
	if raw.Users != nil || raw.Groups != nil {
		for _, part := range []struct {
			list *idList
			kind SubjectKind
		}{{raw.Users, SubjectUser}, {raw.Groups, SubjectGroup}} {
			if part.list == nil {
				continue
			}
			ids, err := part.list.ids()
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				subs = append(subs, Subscription{ID: id, Kind: part.kind})
			}
		}
		return subs, nil
	}

	for _, item := range raw.Items {
		sub, ok, err := classifySubscription(item)
		if err != nil {
			return nil, err
		}
		if ok {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

// classifySubscription tags an extended subscription item as a user or a
// group from whichever identifying fields it carries.
func classifySubscription(item json.RawMessage) (Subscription, bool, error) {
	var raw struct {
		ID         int64  `json:"id"`
		Type       string `json:"type"`
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
	}
	if err := json.Unmarshal(item, &raw); err != nil {
		return Subscription{}, false, fmt.Errorf("unmarshal subscription item: %w", err)
	}
	if raw.ID <= 0 {
		return Subscription{}, false, nil
	}

	sub := Subscription{ID: NodeID(raw.ID), ScreenName: raw.ScreenName}
	switch {
	case raw.Type == "profile":
		sub.Kind = SubjectUser
	case raw.Type == "page" || raw.Type == "group" || raw.Type == "event":
		sub.Kind = SubjectGroup
	case raw.FirstName != "" || raw.LastName != "":
		sub.Kind = SubjectUser
	case raw.Name != "":
		sub.Kind = SubjectGroup
	default:
		slog.Debug("unclassifiable subscription item, skipping", slog.Int64("id", raw.ID))
		return Subscription{}, false, nil
	}

	if sub.Kind == SubjectUser {
		sub.Name = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	} else {
		sub.Name = raw.Name
	}
	return sub, true, nil
}
