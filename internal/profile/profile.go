// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package profile is the thin third-party HTTP collaborator behind the
// query root's profile(handle) entry point: a bearer-token
// authenticated lookup against an external social profile API. A
// network failure degrades to an absent profile rather than failing
// the containing query.
package profile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/blinklabs-io/nft-indexer/internal/config"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/go-resty/resty/v2"
)

// Profile is the normalized shape returned from the upstream API,
// trimmed to the fields the query root surfaces.
type Profile struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatarUrl"`
}

type legacyUserResponse struct {
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	ProfileImageUrl string `json:"profile_image_url_https"`
}

// Client looks up profiles from the configured upstream.
type Client struct {
	http *resty.Client
}

// NewClient builds a Client from ambient ProfileConfig.
func NewClient(cfg config.ProfileConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseUrl).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetAuthToken(cfg.BearerToken)
	return &Client{http: httpClient}
}

// GetByHandle looks up a single profile by handle. A network or
// upstream failure is wrapped in errs.ErrUpstream; callers degrade to
// an absent profile rather than fail the whole query.
func (c *Client) GetByHandle(ctx context.Context, handle string) (Profile, error) {
	var result legacyUserResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("screen_name", handle).
		SetResult(&result).
		Get("/1.1/users/show.json")
	if err != nil {
		return Profile{}, fmt.Errorf("%w: profile lookup for %q: %s", errs.ErrUpstream, handle, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Profile{}, fmt.Errorf("%w: no profile for handle %q", errs.ErrNotFound, handle)
	}
	if resp.StatusCode() != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: profile lookup for %q: status %d", errs.ErrUpstream, handle, resp.StatusCode())
	}
	return Profile{
		Handle:    result.ScreenName,
		Name:      result.Name,
		AvatarUrl: result.ProfileImageUrl,
	}, nil
}
