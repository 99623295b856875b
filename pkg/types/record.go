// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Address holds the postal part of a Record.
type Address struct {
	Street     string `json:"street" yaml:"street"`
	City       string `json:"city" yaml:"city"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
}

// Contact holds the reachability part of a Record.
type Contact struct {
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Record is one address/contact entry from the records file. Name is the
// join key against a location's title.
type Record struct {
	Name    string  `json:"name" yaml:"name"`
	Address Address `json:"address" yaml:"address"`
	Contact Contact `json:"contact" yaml:"contact"`

	// Unnamed marks entries whose name was missing or not a string.
	// Such records never match a title.
	Unnamed bool `json:"-" yaml:"-"`
}
