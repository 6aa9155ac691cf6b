package domain

import "time"

type Session struct {
	User     User      `json:"user"`
	SignedIn time.Time `json:"signed_in"`
}
