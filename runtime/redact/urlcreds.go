/*
   Copyright 2026 The Fapilog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package redact

import (
	"context"
	"net/url"
	"strings"

	"github.com/chris-haste/fapilog/apis/envelope"
	"github.com/chris-haste/fapilog/apis/stage"
)

// URLCredsOptions configures a URLCreds redactor.
type URLCredsOptions struct {
	// Mask replaces the userinfo components. Default "***".
	Mask string

	// OnError selects the failure policy. Default OnErrorWarn.
	OnError stage.ErrorMode
}

// URLCreds rewrites any string value that parses as a URL with
// userinfo, masking the credentials: "https://u:p@h/x" becomes
// "https://***:***@h/x".
type URLCreds struct {
	mask    string
	onError stage.ErrorMode
}

var _ stage.Redactor = (*URLCreds)(nil)

// NewURLCreds builds the redactor.
func NewURLCreds(opt URLCredsOptions) *URLCreds {
	if opt.Mask == "" {
		opt.Mask = DefaultMask
	}
	return &URLCreds{mask: opt.Mask, onError: opt.OnError}
}

// Name implements stage.Redactor.
func (u *URLCreds) Name() string { return "url_credentials" }

// OnError implements stage.Redactor.
func (u *URLCreds) OnError() stage.ErrorMode { return u.onError }

// Redact scans string values in the payload and context maps.
func (u *URLCreds) Redact(ctx context.Context, e *envelope.Envelope) error {
	u.walk(e.Data)
	u.walk(e.Context)
	return nil
}

func (u *URLCreds) walk(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if masked, ok := u.maskURL(val); ok {
				m[k] = masked
			}
		case map[string]any:
			u.walk(val)
		case []any:
			for i, item := range val {
				if s, ok := item.(string); ok {
					if masked, ok := u.maskURL(s); ok {
						val[i] = masked
					}
				}
			}
		}
	}
}

func (u *URLCreds) maskURL(s string) (string, bool) {
	// Cheap pre-check: userinfo requires both a scheme and an '@'.
	if !strings.Contains(s, "@") || !strings.Contains(s, "://") {
		return "", false
	}
	parsed, err := url.Parse(s)
	if err != nil || parsed.User == nil || parsed.Scheme == "" {
		return "", false
	}
	userinfo := u.mask
	if _, hasPass := parsed.User.Password(); hasPass {
		userinfo += ":" + u.mask
	}
	// url.String would percent-escape the mask ("*" becomes "%2A"), so
	// the userinfo is spliced in after the scheme by hand.
	parsed.User = nil
	prefix := parsed.Scheme + "://"
	return prefix + userinfo + "@" + strings.TrimPrefix(parsed.String(), prefix), true
}
