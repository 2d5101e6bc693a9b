package vk

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the VK API host.
	DefaultBaseURL = "https://api.vk.com"

	// APIVersion is the VK API version sent with every call.
	APIVersion = "5.199"
)

// API method names used by the crawler.
const (
	MethodUsersGet           = "users.get"
	MethodUsersFollowers     = "users.getFollowers"
	MethodUsersSubscriptions = "users.getSubscriptions"
)

// profileFields is the users.get field list needed to build a UserProfile.
const profileFields = "screen_name,sex,home_town,city"

// Method describes an API method and the parameters it always carries.
type Method struct {
	Name     string
	Defaults url.Values
}

// Methods maps method names to their definitions.
var Methods = map[string]Method{
	MethodUsersGet:           {Name: MethodUsersGet, Defaults: url.Values{"fields": {profileFields}}},
	MethodUsersFollowers:     {Name: MethodUsersFollowers},
	MethodUsersSubscriptions: {Name: MethodUsersSubscriptions, Defaults: url.Values{"extended": {"1"}}},
}

// methodURL builds the full request URL for a method call. The access token
// and API version are appended last.
func methodURL(baseURL, method string, params url.Values, token string) (string, error) {
	m, ok := Methods[method]
	if !ok {
		return "", fmt.Errorf("unknown method: %s", method)
	}
	q := url.Values{}
	for k, v := range m.Defaults {
		q[k] = v
	}
	for k, v := range params {
		q[k] = v
	}
	q.Set("access_token", token)
	q.Set("v", APIVersion)
	return strings.TrimRight(baseURL, "/") + "/method/" + m.Name + "?" + q.Encode(), nil
}
